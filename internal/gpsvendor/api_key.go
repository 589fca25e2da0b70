package gpsvendor

import (
    "bytes"
    "context"
    "fmt"
    "net/http"

    "github.com/goccy/go-json"
)

const (
    apiKeyHeader     = "x-api-key"
    countryIDHeader  = "country_id"
    apiKeyTimeLayout = "2006-01-02T15:04:05.000Z"
)

type apiKeyLocation struct {
    DriverID       string  `json:"driver_id"`
    UnitID         string  `json:"unit_id"`
    Seq            int64   `json:"seq"`
    UTCTime        string  `json:"utc_ts"`
    RecvUTCTime    string  `json:"recv_utc_ts"`
    Lat            float64 `json:"lat"`
    Lon            float64 `json:"lon"`
    Alt            float64 `json:"alt"`
    Speed          float64 `json:"speed"`
    EngineStatus   int     `json:"engine_status"`
    Fix            int     `json:"fix"`
    License        string  `json:"license"`
    Course         float64 `json:"course"`
    HDOP           float64 `json:"hdop"`
    NumSats        int     `json:"num_sats"`
    GSMCell        int     `json:"gsm_cell"`
    GSMLoc         int     `json:"gsm_loc"`
    GSMReal        int     `json:"gsm_real"`
    Mileage        float64 `json:"mileage"`
    ExtPowerStatus int     `json:"ext_power_status"`
    ExtPower       float64 `json:"ext_power"`
    HighAccCount   int     `json:"high_acc_count"`
    HighDeAccCount int     `json:"high_de_acc_count"`
    OverSpeedCount int     `json:"over_speed_count"`
    MaxSpeed       float64 `json:"max_speed"`
}

// the vendor spells it vender_id on the wire
type apiKeyLocationBatch struct {
    VenderID      string           `json:"vender_id"`
    LocationCount int              `json:"location_count"`
    Locations     []apiKeyLocation `json:"locations"`
}

// APIKeyClient speaks the x-api-key dialect. It only has a location endpoint and treats
// any 2xx reply as success.
type APIKeyClient struct {
    endpoint  string
    vendorID  string
    transport *transport
}

// NewAPIKeyClient validates cfg and returns a client for the api_key dialect
func NewAPIKeyClient(cfg Config) (*APIKeyClient, error) {
    cfg.Dialect = DialectAPIKey
    if err := cfg.Validate(); err != nil {
        return nil, fmt.Errorf("invalid vendor config: %w", err)
    }
    return newAPIKeyClient(cfg), nil
}

func newAPIKeyClient(cfg Config) *APIKeyClient {
    apiKey, countryID := cfg.APIKey, cfg.CountryID
    return &APIKeyClient{
        endpoint: cfg.BaseURL,
        vendorID: cfg.VendorID,
        transport: &transport{
            httpClient:  cfg.httpClient(),
            contentType: "application/json; charset=utf-8",
            auth: func(req *http.Request) {
                // non-canonical header names, set directly to keep the vendor's casing
                req.Header[apiKeyHeader] = []string{apiKey}
                req.Header[countryIDHeader] = []string{countryID}
            },
        },
    }
}

func (c *APIKeyClient) Dialect() Dialect {
    return DialectAPIKey
}

// RegisterDevice always fails, the dialect has no registration endpoint
func (c *APIKeyClient) RegisterDevice(_ context.Context, _ DeviceRecord) (*VendorResponse, error) {
    return nil, validationError(OpRegisterDevice, ErrRegistrationUnsupported)
}

func (c *APIKeyClient) ReportLocations(ctx context.Context, records []LocationRecord) (*VendorResponse, error) {
    if err := validateLocations(records); err != nil {
        return nil, err
    }
    batch := apiKeyLocationBatch{
        VenderID:      c.vendorID,
        LocationCount: len(records),
        Locations:     make([]apiKeyLocation, 0, len(records)),
    }
    for _, r := range records {
        batch.Locations = append(batch.Locations, apiKeyLocation{
            DriverID:       r.DriverID,
            UnitID:         r.BoxID,
            Seq:            r.Seq,
            UTCTime:        r.UTCTime.UTC().Format(apiKeyTimeLayout),
            RecvUTCTime:    r.ReceivedUTCTime.UTC().Format(apiKeyTimeLayout),
            Lat:            r.Lat,
            Lon:            r.Lon,
            Alt:            r.Alt,
            Speed:          r.Speed,
            EngineStatus:   boolFlag(r.EngineOn),
            Fix:            r.Fix,
            License:        r.License,
            Course:         r.Course,
            HDOP:           r.HDOP,
            NumSats:        r.NumSats,
            GSMCell:        r.GSMCell,
            GSMLoc:         r.GSMLoc,
            GSMReal:        r.GSMSignal,
            Mileage:        r.Mileage,
            ExtPowerStatus: boolFlag(r.ExtPowerOn),
            ExtPower:       r.ExtPower,
            HighAccCount:   r.HighAccCount,
            HighDeAccCount: r.HighDeAccCount,
            OverSpeedCount: r.OverSpeedCount,
            MaxSpeed:       r.MaxSpeed,
        })
    }
    raw, err := c.transport.post(ctx, OpReportLocations, c.endpoint, batch)
    if err != nil {
        return nil, err
    }
    return c.decode(OpReportLocations, raw)
}

// decode accepts an empty body or any JSON value. Code and message are surfaced when the
// reply is an object carrying them, they do not affect Success.
func (c *APIKeyClient) decode(op string, raw *rawResponse) (*VendorResponse, error) {
    resp := &VendorResponse{
        Success:    true,
        StatusCode: raw.StatusCode,
        Raw:        raw.Body,
    }
    if len(bytes.TrimSpace(raw.Body)) == 0 {
        return resp, nil
    }
    if !json.Valid(raw.Body) {
        return nil, schemaError(op, raw, fmt.Errorf("vendor reply is not valid JSON"))
    }
    var body resultBody
    if err := json.Unmarshal(raw.Body, &body); err == nil {
        resp.Code = body.Code.String()
        resp.Message = body.text()
    }
    return resp, nil
}
