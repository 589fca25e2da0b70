package gpsvendor

import (
    "bytes"
    "context"
    "errors"
    "fmt"
    "net/http"

    "github.com/goccy/go-json"
)

const (
    basicAuthRegisterPath = "/vendor/DeviceRegister"
    basicAuthLocationPath = "/vendor/SendLocation"
    basicAuthTimeLayout   = "2006-01-02 15:04:05"
    basicAuthSuccessCode  = "1"
)

type basicAuthDevice struct {
    VendorCode   string  `json:"gps_vendor_code"`
    VehiclePlate string  `json:"vehicle_plate"`
    ChassisNo    string  `json:"chassis_no"`
    BoxID        string  `json:"box_id"`
    IMEI         string  `json:"gps_imei"`
    Phone        string  `json:"gps_phone"`
    HaveMic      string  `json:"gps_have_mic"`
    CarrierName  string  `json:"carrier_name"`
    Mileage      float64 `json:"mileage"`
    SpeedLimit   float64 `json:"speed_limit"`
    FuelTankSize float64 `json:"fuel_tank_size"`
}

type basicAuthLocation struct {
    Seq          int64   `json:"seq"`
    BoxID        string  `json:"box_id"`
    UTCTime      string  `json:"utc_ts"`
    RecvUTCTime  string  `json:"recv_utc_ts"`
    Lat          float64 `json:"lat"`
    Lon          float64 `json:"lon"`
    Alt          float64 `json:"alt"`
    Speed        float64 `json:"speed"`
    EngineStatus int     `json:"engine_status"`
    Fix          int     `json:"fix"`
    Course       float64 `json:"course"`
    HDOP         float64 `json:"hdop"`
    NumSats      int     `json:"num_sats"`
    GSMRSSI      int     `json:"gsm_rssi"`
    Mileage      float64 `json:"mileage"`
    ExtPower     float64 `json:"ext_power"`
    DriverID     string  `json:"driver_id"`
}

type basicAuthLocationBatch struct {
    VendorCode     string              `json:"vendor_code"`
    LocationsCount int                 `json:"locations_count"`
    Locations      []basicAuthLocation `json:"locations"`
}

// BasicAuthClient speaks the HTTP Basic dialect: a DeviceRegister and a SendLocation endpoint,
// success signalled by "code": 1 in the reply
type BasicAuthClient struct {
    baseURL    string
    vendorCode string
    transport  *transport
}

// NewBasicAuthClient validates cfg and returns a client for the basic_auth dialect
func NewBasicAuthClient(cfg Config) (*BasicAuthClient, error) {
    cfg.Dialect = DialectBasicAuth
    if err := cfg.Validate(); err != nil {
        return nil, fmt.Errorf("invalid vendor config: %w", err)
    }
    return newBasicAuthClient(cfg), nil
}

func newBasicAuthClient(cfg Config) *BasicAuthClient {
    username, password := cfg.Username, cfg.Password
    return &BasicAuthClient{
        baseURL:    cfg.BaseURL,
        vendorCode: cfg.VendorCode,
        transport: &transport{
            httpClient:  cfg.httpClient(),
            contentType: "application/json",
            auth: func(req *http.Request) {
                req.SetBasicAuth(username, password)
            },
        },
    }
}

func (c *BasicAuthClient) Dialect() Dialect {
    return DialectBasicAuth
}

func (c *BasicAuthClient) RegisterDevice(ctx context.Context, device DeviceRecord) (*VendorResponse, error) {
    if err := validateDevice(device); err != nil {
        return nil, err
    }
    vendorCode := device.VendorCode
    if vendorCode == "" {
        vendorCode = c.vendorCode
    }
    payload := basicAuthDevice{
        VendorCode:   vendorCode,
        VehiclePlate: device.VehiclePlate,
        ChassisNo:    device.ChassisNo,
        BoxID:        device.BoxID,
        IMEI:         device.IMEI,
        Phone:        device.Phone,
        HaveMic:      yesNo(device.HasMic),
        CarrierName:  device.CarrierName,
        Mileage:      device.Mileage,
        SpeedLimit:   device.SpeedLimit,
        FuelTankSize: device.FuelTankSize,
    }
    raw, err := c.transport.post(ctx, OpRegisterDevice, joinURL(c.baseURL, basicAuthRegisterPath), payload)
    if err != nil {
        return nil, err
    }
    return c.decode(OpRegisterDevice, raw)
}

func (c *BasicAuthClient) ReportLocations(ctx context.Context, records []LocationRecord) (*VendorResponse, error) {
    if err := validateLocations(records); err != nil {
        return nil, err
    }
    batch := basicAuthLocationBatch{
        VendorCode:     c.vendorCode,
        LocationsCount: len(records),
        Locations:      make([]basicAuthLocation, 0, len(records)),
    }
    for _, r := range records {
        batch.Locations = append(batch.Locations, basicAuthLocation{
            Seq:          r.Seq,
            BoxID:        r.BoxID,
            UTCTime:      r.UTCTime.UTC().Format(basicAuthTimeLayout),
            RecvUTCTime:  r.ReceivedUTCTime.UTC().Format(basicAuthTimeLayout),
            Lat:          r.Lat,
            Lon:          r.Lon,
            Alt:          r.Alt,
            Speed:        r.Speed,
            EngineStatus: boolFlag(r.EngineOn),
            Fix:          r.Fix,
            Course:       r.Course,
            HDOP:         r.HDOP,
            NumSats:      r.NumSats,
            GSMRSSI:      r.GSMSignal,
            Mileage:      r.Mileage,
            ExtPower:     r.ExtPower,
            DriverID:     r.DriverID,
        })
    }
    raw, err := c.transport.post(ctx, OpReportLocations, joinURL(c.baseURL, basicAuthLocationPath), batch)
    if err != nil {
        return nil, err
    }
    return c.decode(OpReportLocations, raw)
}

// decode expects a JSON object carrying the vendor result code
func (c *BasicAuthClient) decode(op string, raw *rawResponse) (*VendorResponse, error) {
    // null decodes into a zero struct without error, it is not a reply object
    if trimmed := bytes.TrimSpace(raw.Body); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
        return nil, schemaError(op, raw, errors.New("vendor reply is not a JSON object"))
    }
    var body resultBody
    if err := json.Unmarshal(raw.Body, &body); err != nil {
        return nil, schemaError(op, raw, fmt.Errorf("failed to decode vendor reply: %w", err))
    }
    return &VendorResponse{
        Success:    body.Code.String() == basicAuthSuccessCode,
        Code:       body.Code.String(),
        StatusCode: raw.StatusCode,
        Message:    body.text(),
        Raw:        raw.Body,
    }, nil
}
