package gpsvendor

import (
    "io"
    "net/http"
    "net/http/httptest"
    "sync"
    "testing"
    "time"

    "github.com/goccy/go-json"
)

type capturedRequest struct {
    Method  string
    Path    string
    Header  http.Header
    Body    map[string]interface{}
    User    string
    Pass    string
    HasAuth bool
}

// vendorStub records every request and answers with a fixed status and body
type vendorStub struct {
    mu       sync.Mutex
    requests []capturedRequest
    status   int
    body     string
    server   *httptest.Server
}

func newVendorStub(t *testing.T, status int, body string) *vendorStub {
    t.Helper()
    s := &vendorStub{status: status, body: body}
    s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        buf, _ := io.ReadAll(r.Body)
        captured := capturedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
        captured.User, captured.Pass, captured.HasAuth = r.BasicAuth()
        _ = json.Unmarshal(buf, &captured.Body)
        s.mu.Lock()
        s.requests = append(s.requests, captured)
        s.mu.Unlock()
        w.WriteHeader(s.status)
        _, _ = io.WriteString(w, s.body)
    }))
    t.Cleanup(s.server.Close)
    return s
}

func (s *vendorStub) calls() []capturedRequest {
    s.mu.Lock()
    defer s.mu.Unlock()
    return append([]capturedRequest(nil), s.requests...)
}

func basicAuthConfig(url string) Config {
    return Config{
        Dialect:    DialectBasicAuth,
        BaseURL:    url,
        Username:   "fleet-user",
        Password:   "fleet-pass",
        VendorCode: "108",
        Timeout:    2 * time.Second,
    }
}

func apiKeyConfig(url string) Config {
    return Config{
        Dialect:   DialectAPIKey,
        BaseURL:   url,
        APIKey:    "test-key",
        CountryID: "1",
        VendorID:  "7",
        Timeout:   2 * time.Second,
    }
}

func testDevice() DeviceRecord {
    return DeviceRecord{
        VehiclePlate: "71-8697|สบ",
        ChassisNo:    "MNKFM2PK1XHX10616",
        BoxID:        "v1752287035",
        IMEI:         "867936074539716",
        Phone:        "0975081030",
        HasMic:       false,
        CarrierName:  "IEM",
        Mileage:      909,
        SpeedLimit:   90,
        FuelTankSize: 70,
    }
}

var fixTime = time.Date(2025, 7, 12, 3, 4, 5, 678000000, time.UTC)

func testLocation(seq int64) LocationRecord {
    return LocationRecord{
        Seq:             seq,
        BoxID:           "v1752287035",
        UTCTime:         fixTime,
        ReceivedUTCTime: fixTime.Add(time.Second),
        Lat:             13.7563,
        Lon:             100.5018,
        Alt:             20,
        Speed:           75,
        EngineOn:        true,
        Fix:             1,
        License:         "71-8697",
        Course:          180,
        HDOP:            0.8,
        NumSats:         15,
        GSMSignal:       28,
        GSMCell:         54643,
        GSMLoc:          123,
        Mileage:         915,
        ExtPowerOn:      true,
        ExtPower:        12.6,
        DriverID:        "0X00101XXX0X00",
        HighAccCount:    2,
        OverSpeedCount:  1,
        MaxSpeed:        95,
    }
}
