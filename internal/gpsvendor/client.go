// Package gpsvendor reports devices and GPS locations to third-party fleet-tracking vendors.
//
// Each vendor dialect is a Client implementation. Calls are stateless, issue exactly one
// POST and are never retried. Failures are returned as *ClientError.
package gpsvendor

import (
    "context"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
)

const (
    DefaultTimeout = 10 * time.Second

    OpRegisterDevice  = "register_device"
    OpReportLocations = "report_locations"
)

var validate = validator.New(
    validator.WithRequiredStructEnabled(),
)

// Client is the capability set shared by every vendor dialect
type Client interface {
    RegisterDevice(ctx context.Context, device DeviceRecord) (*VendorResponse, error)
    ReportLocations(ctx context.Context, records []LocationRecord) (*VendorResponse, error)
    Dialect() Dialect
}

// Config holds the vendor endpoint and credentials. It is not modified after New.
type Config struct {
    Dialect Dialect `validate:"required"`
    // BaseURL is the API root for basic_auth and the full location endpoint for api_key
    BaseURL string `validate:"required,url"`

    Username   string `validate:"required_if=Dialect basic_auth"`
    Password   string `validate:"required_if=Dialect basic_auth"`
    VendorCode string `validate:"required_if=Dialect basic_auth"`

    APIKey    string `validate:"required_if=Dialect api_key"`
    CountryID string `validate:"required_if=Dialect api_key"`
    VendorID  string `validate:"required_if=Dialect api_key"`

    Timeout    time.Duration // zero means DefaultTimeout
    HTTPClient *http.Client  `validate:"-"` // optional, Timeout is ignored when set
}

func (c Config) Validate() error {
    if err := c.Dialect.Valid(); err != nil {
        return err
    }
    return validate.Struct(c)
}

func (c Config) httpClient() *http.Client {
    if c.HTTPClient != nil {
        return c.HTTPClient
    }
    timeout := c.Timeout
    if timeout <= 0 {
        timeout = DefaultTimeout
    }
    return &http.Client{Timeout: timeout}
}

// New returns the Client implementation for cfg.Dialect
func New(cfg Config) (Client, error) {
    if err := cfg.Validate(); err != nil {
        return nil, fmt.Errorf("invalid vendor config: %w", err)
    }
    switch cfg.Dialect {
    case DialectBasicAuth:
        return newBasicAuthClient(cfg), nil
    default:
        return newAPIKeyClient(cfg), nil
    }
}

func validateDevice(device DeviceRecord) error {
    if err := validate.Struct(device); err != nil {
        return validationError(OpRegisterDevice, err)
    }
    return nil
}

func validateLocations(records []LocationRecord) error {
    if len(records) == 0 {
        return validationError(OpReportLocations, ErrEmptyBatch)
    }
    for i := range records {
        if err := validate.Struct(records[i]); err != nil {
            return validationError(OpReportLocations, fmt.Errorf("location %d: %w", i, err))
        }
        if records[i].UTCTime.IsZero() || records[i].ReceivedUTCTime.IsZero() {
            return validationError(OpReportLocations, fmt.Errorf("location %d: %w", i, ErrMissingTimestamp))
        }
    }
    return nil
}

func joinURL(base, path string) string {
    return strings.TrimRight(base, "/") + path
}
