package app

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/goccy/go-json"
    "github.com/prometheus/client_golang/prometheus/testutil"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/gpsvendor"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/metrics"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/repositories"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/services"
)

type fakeAcknowledger struct {
    acks    int
    nacks   int
    requeue bool
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error {
    f.acks++
    return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
    f.nacks++
    f.requeue = f.requeue || requeue
    return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
    return f.Nack(0, false, requeue)
}

type fakeReporter struct {
    resp    *gpsvendor.VendorResponse
    err     error
    batches [][]gpsvendor.LocationRecord
}

func (f *fakeReporter) RegisterDevice(
    _ context.Context,
    _ *gpsvendor.DeviceRecord,
) (*gpsvendor.VendorResponse, error) {
    return nil, errors.New("not used")
}

func (f *fakeReporter) ReportLocations(
    _ context.Context,
    records []gpsvendor.LocationRecord,
) (*gpsvendor.VendorResponse, error) {
    f.batches = append(f.batches, records)
    return f.resp, f.err
}

func (f *fakeReporter) RegisterAndReport(
    _ context.Context,
    _ *gpsvendor.DeviceRecord,
    _ []gpsvendor.LocationRecord,
) (*services.SyncResult, error) {
    return nil, errors.New("not used")
}

func (f *fakeReporter) GetDevice(_ context.Context, _ string) (*repositories.RegisteredDevice, error) {
    return nil, repositories.ErrDeviceNotFound
}

func (f *fakeReporter) PublishLocations(_ context.Context, _ *services.LocationBatchRequest) error {
    return nil
}

func delivery(t *testing.T, ack amqp.Acknowledger, body []byte) amqp.Delivery {
    t.Helper()
    return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, MessageId: "test-message", Body: body}
}

func batchBody(t *testing.T) []byte {
    t.Helper()
    now := time.Now().UTC()
    buf, err := json.Marshal(services.LocationBatchRequest{Locations: []gpsvendor.LocationRecord{
        {Seq: 1, BoxID: "v1752287035", UTCTime: now, ReceivedUTCTime: now},
        {Seq: 2, BoxID: "v1752287035", UTCTime: now, ReceivedUTCTime: now},
    }})
    if err != nil {
        t.Fatal(err)
    }
    return buf
}

func TestHandleLocationMessage_Ack(t *testing.T) {
    ack := &fakeAcknowledger{}
    reporter := &fakeReporter{resp: &gpsvendor.VendorResponse{Success: true}}
    acked := testutil.ToFloat64(metrics.LocationMessagesTotal.WithLabelValues("ack"))
    nacked := testutil.ToFloat64(metrics.LocationMessagesTotal.WithLabelValues("nack"))

    HandleLocationMessage(context.Background(), reporter, delivery(t, ack, batchBody(t)))

    if ack.acks != 1 || ack.nacks != 0 {
        t.Fatalf("expected one ack, got acks=%d nacks=%d", ack.acks, ack.nacks)
    }
    if got := testutil.ToFloat64(metrics.LocationMessagesTotal.WithLabelValues("ack")) - acked; got != 1 {
        t.Fatalf("expected ack counter to grow by 1, got %v", got)
    }
    if got := testutil.ToFloat64(metrics.LocationMessagesTotal.WithLabelValues("nack")) - nacked; got != 0 {
        t.Fatalf("expected nack counter unchanged, got %v", got)
    }
    if len(reporter.batches) != 1 || len(reporter.batches[0]) != 2 || reporter.batches[0][1].Seq != 2 {
        t.Fatalf("batch should be relayed in order, got %+v", reporter.batches)
    }
}

func TestHandleLocationMessage_NackWithoutRequeue(t *testing.T) {
    cases := []struct {
        name     string
        body     []byte
        reporter *fakeReporter
    }{
        {"malformed", []byte("{"), &fakeReporter{}},
        {"rejected", nil, &fakeReporter{resp: &gpsvendor.VendorResponse{Success: false, Code: "0"}}},
        {"vendor error", nil, &fakeReporter{err: &gpsvendor.ClientError{Kind: gpsvendor.KindTransport, Err: errors.New("timeout")}}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            body := tc.body
            if body == nil {
                body = batchBody(t)
            }
            ack := &fakeAcknowledger{}
            acked := testutil.ToFloat64(metrics.LocationMessagesTotal.WithLabelValues("ack"))
            nacked := testutil.ToFloat64(metrics.LocationMessagesTotal.WithLabelValues("nack"))

            HandleLocationMessage(context.Background(), tc.reporter, delivery(t, ack, body))
            if ack.acks != 0 || ack.nacks != 1 {
                t.Fatalf("expected one nack, got acks=%d nacks=%d", ack.acks, ack.nacks)
            }
            if got := testutil.ToFloat64(metrics.LocationMessagesTotal.WithLabelValues("nack")) - nacked; got != 1 {
                t.Fatalf("expected nack counter to grow by 1, got %v", got)
            }
            if got := testutil.ToFloat64(metrics.LocationMessagesTotal.WithLabelValues("ack")) - acked; got != 0 {
                t.Fatalf("expected ack counter unchanged, got %v", got)
            }
            if ack.requeue {
                t.Fatal("failed batches must not be requeued")
            }
        })
    }
}

func TestApp_RunWithoutConfig(t *testing.T) {
    a := NewApp()
    go a.Run(context.Background())
    if err := a.Shutdown(context.Background()); !errors.Is(err, ErrConfigMissing) {
        t.Fatalf("expected ErrConfigMissing, got %v", err)
    }
}

type fakeChannel struct {
    declared []string
    durable  bool
    err      error
}

func (f *fakeChannel) QueueDeclare(
    name string,
    durable, _, _, _ bool,
    _ amqp.Table,
) (amqp.Queue, error) {
    f.declared = append(f.declared, name)
    f.durable = durable
    return amqp.Queue{Name: name}, f.err
}

func TestDeclareLocationQueue(t *testing.T) {
    channel := &fakeChannel{}
    if err := declareLocationQueue(channel, "vendor_locations"); err != nil {
        t.Fatal(err)
    }
    if len(channel.declared) != 1 || channel.declared[0] != "vendor_locations" || !channel.durable {
        t.Fatalf("expected one durable declare of vendor_locations, got %+v", channel)
    }

    channel = &fakeChannel{err: amqp.ErrClosed}
    if err := declareLocationQueue(channel, "vendor_locations"); !errors.Is(err, amqp.ErrClosed) {
        t.Fatalf("expected the declare error, got %v", err)
    }
}
