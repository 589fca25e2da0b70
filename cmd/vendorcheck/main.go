// Command vendorcheck registers one device with the configured GPS vendor and, if the vendor
// accepts it, reports one location for it. Vendor settings come from .env and the environment.
package main

import (
    "context"
    "errors"
    "flag"
    "log"
    "os"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/goccy/go-json"
    "github.com/yemyoaung/managing-vehicle-tracking-common"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/config"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/gpsvendor"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/repositories"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/services"
)

var (
    envFile = flag.String("env", ".env", "env file holding the VENDOR_* settings")
    pause   = flag.Duration("pause", 2*time.Second, "delay between registration and the location report")

    boxID        = flag.String("box_id", "", "box / unit id of the device (required)")
    plate        = flag.String("plate", "", "vehicle plate, also sent as license")
    chassisNo    = flag.String("chassis_no", "", "vehicle chassis number")
    imei         = flag.String("imei", "", "GPS device IMEI")
    phone        = flag.String("phone", "", "GPS device phone number")
    hasMic       = flag.Bool("mic", false, "device has a microphone")
    carrier      = flag.String("carrier", "", "carrier name")
    speedLimit   = flag.Float64("speed_limit", 90, "speed limit")
    fuelTankSize = flag.Float64("fuel_tank_size", 70, "fuel tank size")

    seq      = flag.Int64("seq", 1, "location sequence number")
    lat      = flag.Float64("lat", 13.7563, "latitude")
    lon      = flag.Float64("lon", 100.5018, "longitude")
    alt      = flag.Float64("alt", 20, "altitude")
    speed    = flag.Float64("speed", 0, "speed")
    course   = flag.Float64("course", 0, "course / heading in degrees")
    hdop     = flag.Float64("hdop", 1, "horizontal dilution of precision")
    numSats  = flag.Int("num_sats", 0, "satellite count")
    rssi     = flag.Int("rssi", 0, "GSM signal strength")
    mileage  = flag.Float64("mileage", 0, "odometer mileage")
    extPower = flag.Float64("ext_power", 12.6, "external power voltage")
    engineOn = flag.Bool("engine_on", true, "engine status")
    driverID = flag.String("driver_id", "", "driver id")
)

func main() {
    flag.Parse()
    if *boxID == "" {
        flag.Usage()
        os.Exit(2)
    }

    validate := validator.New(
        validator.WithRequiredStructEnabled(),
    )
    load, err := common.NewConfigLoaderFromEnvFile[config.VendorEnv](*envFile, validate)
    if err != nil {
        log.Fatal("Failed to load vendor config: ", err)
    }
    vendorCfg, err := load.Config.VendorConfig()
    if err != nil {
        log.Fatal(err)
    }
    client, err := gpsvendor.New(vendorCfg)
    if err != nil {
        log.Fatal(err)
    }

    service := services.NewGpsVendorService(client, repositories.NewMemoryDeviceRepository(), nil).
        SetPause(*pause)

    now := time.Now().UTC()
    device := &gpsvendor.DeviceRecord{
        VehiclePlate: *plate,
        ChassisNo:    *chassisNo,
        BoxID:        *boxID,
        IMEI:         *imei,
        Phone:        *phone,
        HasMic:       *hasMic,
        CarrierName:  *carrier,
        Mileage:      *mileage,
        SpeedLimit:   *speedLimit,
        FuelTankSize: *fuelTankSize,
    }
    location := gpsvendor.LocationRecord{
        Seq:             *seq,
        BoxID:           *boxID,
        UTCTime:         now,
        ReceivedUTCTime: now,
        Lat:             *lat,
        Lon:             *lon,
        Alt:             *alt,
        Speed:           *speed,
        EngineOn:        *engineOn,
        Fix:             1,
        License:         *plate,
        Course:          *course,
        HDOP:            *hdop,
        NumSats:         *numSats,
        GSMSignal:       *rssi,
        Mileage:         *mileage,
        ExtPowerOn:      *extPower > 0,
        ExtPower:        *extPower,
        DriverID:        *driverID,
        MaxSpeed:        *speed,
    }

    log.Printf("checking %s vendor with box_id %s", client.Dialect(), *boxID)
    result, err := service.RegisterAndReport(context.Background(), device, []gpsvendor.LocationRecord{location})

    if buf, encodeErr := json.MarshalIndent(result, "", "  "); encodeErr == nil {
        log.Printf("result:\n%s", buf)
    }
    if err != nil {
        var ce *gpsvendor.ClientError
        if errors.As(err, &ce) && len(ce.Body) > 0 {
            log.Printf("vendor body: %s", ce.Body)
        }
        log.Fatal(err)
    }
    if !result.Reported {
        log.Fatal("vendor did not accept the location report")
    }
    log.Println("vendor accepted the location report")
}
