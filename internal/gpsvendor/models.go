package gpsvendor

import (
    "fmt"
    "strconv"
    "time"

    "github.com/goccy/go-json"
)

// Dialect identifies the wire shape and authentication scheme of a vendor API
type Dialect string

const (
    DialectBasicAuth Dialect = "basic_auth"
    DialectAPIKey    Dialect = "api_key"
)

func (d Dialect) Valid() error {
    switch d {
    case DialectBasicAuth, DialectAPIKey:
        return nil
    }
    return fmt.Errorf("unknown vendor dialect %q", string(d))
}

// DeviceRecord describes a tracking box installed in a vehicle
type DeviceRecord struct {
    VendorCode   string  `json:"gps_vendor_code"`
    VehiclePlate string  `json:"vehicle_plate" validate:"required"`
    ChassisNo    string  `json:"chassis_no" validate:"required"`
    BoxID        string  `json:"box_id" validate:"required"`
    IMEI         string  `json:"gps_imei" validate:"required"`
    Phone        string  `json:"gps_phone" validate:"required"`
    HasMic       bool    `json:"gps_have_mic"`
    CarrierName  string  `json:"carrier_name" validate:"required"`
    Mileage      float64 `json:"mileage" validate:"gte=0"`
    SpeedLimit   float64 `json:"speed_limit" validate:"gte=0"`
    FuelTankSize float64 `json:"fuel_tank_size" validate:"gte=0"`
}

// LocationRecord is a single GPS fix reported by a box.
// Fields that only one dialect carries are ignored by the other.
type LocationRecord struct {
    Seq             int64     `json:"seq" validate:"gte=0"`
    BoxID           string    `json:"box_id" validate:"required"`
    UTCTime         time.Time `json:"utc_ts"`
    ReceivedUTCTime time.Time `json:"recv_utc_ts"`
    Lat             float64   `json:"lat" validate:"gte=-90,lte=90"`
    Lon             float64   `json:"lon" validate:"gte=-180,lte=180"`
    Alt             float64   `json:"alt"`
    Speed           float64   `json:"speed" validate:"gte=0"`
    EngineOn        bool      `json:"engine_on"`
    Fix             int       `json:"fix"`
    License         string    `json:"license"`
    Course          float64   `json:"course" validate:"gte=0,lte=360"`
    HDOP            float64   `json:"hdop" validate:"gte=0"`
    NumSats         int       `json:"num_sats" validate:"gte=0"`
    GSMSignal       int       `json:"gsm_signal"`
    GSMCell         int       `json:"gsm_cell"`
    GSMLoc          int       `json:"gsm_loc"`
    Mileage         float64   `json:"mileage" validate:"gte=0"`
    ExtPowerOn      bool      `json:"ext_power_on"`
    ExtPower        float64   `json:"ext_power"`
    DriverID        string    `json:"driver_id"`
    HighAccCount    int       `json:"high_acc_count" validate:"gte=0"`
    HighDeAccCount  int       `json:"high_de_acc_count" validate:"gte=0"`
    OverSpeedCount  int       `json:"over_speed_count" validate:"gte=0"`
    MaxSpeed        float64   `json:"max_speed" validate:"gte=0"`
}

// VendorResponse is the normalized outcome of a call that reached the vendor and got a 2xx back.
// Success false means the vendor rejected the request, it is not an error.
type VendorResponse struct {
    Success    bool   `json:"success"`
    Code       string `json:"code,omitempty"`
    StatusCode int    `json:"status_code"`
    Message    string `json:"message,omitempty"`
    Raw        []byte `json:"-"`
}

// ResultCode holds a vendor result code that may arrive as a JSON number or a string
type ResultCode string

func (c *ResultCode) UnmarshalJSON(data []byte) error {
    var v interface{}
    if err := json.Unmarshal(data, &v); err != nil {
        return err
    }
    switch val := v.(type) {
    case nil:
        *c = ""
    case float64:
        *c = ResultCode(strconv.FormatFloat(val, 'f', -1, 64))
    case string:
        *c = ResultCode(val)
    case bool:
        *c = ResultCode(strconv.FormatBool(val))
    default:
        return fmt.Errorf("ResultCode: unexpected type %T", v)
    }
    return nil
}

func (c ResultCode) String() string {
    return string(c)
}

func boolFlag(b bool) int {
    if b {
        return 1
    }
    return 0
}

func yesNo(b bool) string {
    if b {
        return "Y"
    }
    return "N"
}
