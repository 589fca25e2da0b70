package config

import (
    "fmt"
    "time"

    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/gpsvendor"
)

// VendorEnv holds the GPS vendor settings. It is loaded from the same .env file as EnvConfig
// and is all the vendorcheck command needs.
type VendorEnv struct {
    VendorDialect   string `json:"VENDOR_DIALECT" validate:"required,oneof=basic_auth api_key"`
    VendorBaseURL   string `json:"VENDOR_BASE_URL" validate:"required,url"`
    VendorUsername  string `json:"VENDOR_USERNAME" validate:"required_if=VendorDialect basic_auth"`
    VendorPassword  string `json:"VENDOR_PASSWORD" validate:"required_if=VendorDialect basic_auth"`
    VendorCode      string `json:"VENDOR_CODE" validate:"required_if=VendorDialect basic_auth"`
    VendorAPIKey    string `json:"VENDOR_API_KEY" validate:"required_if=VendorDialect api_key"`
    VendorCountryID string `json:"VENDOR_COUNTRY_ID" validate:"required_if=VendorDialect api_key"`
    VendorID        string `json:"VENDOR_ID" validate:"required_if=VendorDialect api_key"`
    VendorTimeout   string `json:"VENDOR_TIMEOUT"`
}

// VendorConfig converts the env values into a gpsvendor.Config
func (v *VendorEnv) VendorConfig() (gpsvendor.Config, error) {
    var timeout time.Duration
    if v.VendorTimeout != "" {
        parsed, err := time.ParseDuration(v.VendorTimeout)
        if err != nil {
            return gpsvendor.Config{}, fmt.Errorf("invalid VENDOR_TIMEOUT: %w", err)
        }
        timeout = parsed
    }
    return gpsvendor.Config{
        Dialect:    gpsvendor.Dialect(v.VendorDialect),
        BaseURL:    v.VendorBaseURL,
        Username:   v.VendorUsername,
        Password:   v.VendorPassword,
        VendorCode: v.VendorCode,
        APIKey:     v.VendorAPIKey,
        CountryID:  v.VendorCountryID,
        VendorID:   v.VendorID,
        Timeout:    timeout,
    }, nil
}

// EnvConfig struct holds the configuration for the application
type EnvConfig struct {
    Host          string `json:"HOST" validate:"required"`
    Port          string `json:"PORT" validate:"required"`
    DatabaseURL   string `json:"DATABASE_URL" validate:"required"`
    RabbitmqUrl   string `json:"RABBITMQ_URL" validate:"required"`
    LocationQueue string `json:"LOCATION_QUEUE" validate:"required"`
    SignatureKey  string `json:"SIGNATURE_KEY" validate:"required"`
    AuthSvc       string `json:"AUTH_SVC" validate:"required"`
}
