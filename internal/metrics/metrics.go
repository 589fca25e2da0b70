package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for vendor calls and the location consumer
var (
    VendorRequestsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "vendor_requests_total",
            Help: "Total number of requests sent to the GPS vendor, by outcome",
        },
        []string{"dialect", "operation", "outcome"},
    )

    VendorRequestDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "vendor_request_duration_seconds",
            Help:    "Duration of GPS vendor requests",
            Buckets: prometheus.DefBuckets,
        },
        []string{"dialect", "operation"},
    )

    LocationMessagesTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "location_messages_total",
            Help: "Total number of location messages consumed from the queue, by ack result",
        },
        []string{"result"},
    )
)

var registerOnce sync.Once

// Register registers all Prometheus metrics with the default registry
func Register() {
    registerOnce.Do(func() {
        prometheus.MustRegister(VendorRequestsTotal)
        prometheus.MustRegister(VendorRequestDuration)
        prometheus.MustRegister(LocationMessagesTotal)
    })
}
