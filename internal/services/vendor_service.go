package services

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/goccy/go-json"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/gpsvendor"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/metrics"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/repositories"
)

const MaxLocationBatch = 1000

var (
    ErrDeviceNotRegistered  = errors.New("device is not registered with the vendor")
    ErrRegistrationRejected = errors.New("vendor rejected the device registration")
    ErrQueueUnavailable     = errors.New("location queue is not configured")
    ErrBatchTooLarge        = errors.New("location batch exceeds the maximum size")
)

type LocationBatchRequest struct {
    Locations []gpsvendor.LocationRecord `json:"locations" validate:"required,min=1,dive"`
}

func (r *LocationBatchRequest) Validate() error {
    if len(r.Locations) == 0 {
        return gpsvendor.ErrEmptyBatch
    }
    if len(r.Locations) > MaxLocationBatch {
        return ErrBatchTooLarge
    }
    for i := range r.Locations {
        if r.Locations[i].UTCTime.IsZero() || r.Locations[i].ReceivedUTCTime.IsZero() {
            return fmt.Errorf("location %d: %w", i, gpsvendor.ErrMissingTimestamp)
        }
    }
    return nil
}

// SyncResult is the outcome of a register-then-report run
type SyncResult struct {
    Registration *gpsvendor.VendorResponse `json:"registration,omitempty"`
    Report       *gpsvendor.VendorResponse `json:"report,omitempty"`
    Registered   bool                      `json:"registered"`
    Reported     bool                      `json:"reported"`
}

type VendorService interface {
    RegisterDevice(ctx context.Context, device *gpsvendor.DeviceRecord) (*gpsvendor.VendorResponse, error)
    ReportLocations(ctx context.Context, records []gpsvendor.LocationRecord) (*gpsvendor.VendorResponse, error)
    RegisterAndReport(
        ctx context.Context,
        device *gpsvendor.DeviceRecord,
        records []gpsvendor.LocationRecord,
    ) (*SyncResult, error)
    GetDevice(ctx context.Context, boxID string) (*repositories.RegisteredDevice, error)
    PublishLocations(ctx context.Context, req *LocationBatchRequest) error
}

type GpsVendorService struct {
    client       gpsvendor.Client
    deviceRepo   repositories.DeviceRepository
    locationRepo repositories.LocationRepository
    pause        time.Duration
}

func NewGpsVendorService(
    client gpsvendor.Client,
    deviceRepo repositories.DeviceRepository,
    locationRepo repositories.LocationRepository,
) *GpsVendorService {
    return &GpsVendorService{
        client:       client,
        deviceRepo:   deviceRepo,
        locationRepo: locationRepo,
    }
}

// SetPause sets the delay between registration and the first location report
func (s *GpsVendorService) SetPause(pause time.Duration) *GpsVendorService {
    s.pause = pause
    return s
}

// registers reports whether the dialect has a registration step that reports must wait for
func (s *GpsVendorService) registers() bool {
    return s.client.Dialect() == gpsvendor.DialectBasicAuth
}

func (s *GpsVendorService) RegisterDevice(
    ctx context.Context,
    device *gpsvendor.DeviceRecord,
) (*gpsvendor.VendorResponse, error) {
    start := time.Now()
    resp, err := s.client.RegisterDevice(ctx, *device)
    s.observe(gpsvendor.OpRegisterDevice, start, resp, err)
    if err != nil {
        return nil, err
    }
    if !resp.Success {
        return resp, nil
    }

    registered := &repositories.RegisteredDevice{
        BoxID:      device.BoxID,
        Dialect:    s.client.Dialect(),
        ResultCode: resp.Code,
        Device:     *device,
    }
    if err := s.deviceRepo.SaveDevice(ctx, registered); err != nil {
        return resp, fmt.Errorf("failed to save registered device: %w", err)
    }
    return resp, nil
}

func (s *GpsVendorService) ReportLocations(
    ctx context.Context,
    records []gpsvendor.LocationRecord,
) (*gpsvendor.VendorResponse, error) {
    if s.registers() {
        if err := s.requireRegistered(ctx, records); err != nil {
            return nil, err
        }
    }
    start := time.Now()
    resp, err := s.client.ReportLocations(ctx, records)
    s.observe(gpsvendor.OpReportLocations, start, resp, err)
    return resp, err
}

func (s *GpsVendorService) requireRegistered(ctx context.Context, records []gpsvendor.LocationRecord) error {
    checked := make(map[string]struct{}, len(records))
    for _, r := range records {
        if _, ok := checked[r.BoxID]; ok {
            continue
        }
        var device repositories.RegisteredDevice
        err := s.deviceRepo.FindDeviceByBoxID(ctx, r.BoxID, &device)
        if errors.Is(err, repositories.ErrDeviceNotFound) {
            return fmt.Errorf("%w: %s", ErrDeviceNotRegistered, r.BoxID)
        }
        if err != nil {
            return err
        }
        checked[r.BoxID] = struct{}{}
    }
    return nil
}

// RegisterAndReport registers the device and reports the locations only when the vendor
// accepted the registration. Dialects without registration report directly.
func (s *GpsVendorService) RegisterAndReport(
    ctx context.Context,
    device *gpsvendor.DeviceRecord,
    records []gpsvendor.LocationRecord,
) (*SyncResult, error) {
    result := &SyncResult{}

    if s.registers() {
        resp, err := s.RegisterDevice(ctx, device)
        result.Registration = resp
        if err != nil {
            return result, fmt.Errorf("registration failed: %w", err)
        }
        if !resp.Success {
            return result, fmt.Errorf("%w: code %q", ErrRegistrationRejected, resp.Code)
        }
        result.Registered = true

        if s.pause > 0 {
            select {
            case <-ctx.Done():
                return result, ctx.Err()
            case <-time.After(s.pause):
            }
        }
    }

    resp, err := s.ReportLocations(ctx, records)
    result.Report = resp
    if err != nil {
        return result, fmt.Errorf("location report failed: %w", err)
    }
    result.Reported = resp.Success
    return result, nil
}

func (s *GpsVendorService) GetDevice(ctx context.Context, boxID string) (*repositories.RegisteredDevice, error) {
    var device repositories.RegisteredDevice
    if err := s.deviceRepo.FindDeviceByBoxID(ctx, boxID, &device); err != nil {
        return nil, err
    }
    return &device, nil
}

func (s *GpsVendorService) PublishLocations(ctx context.Context, req *LocationBatchRequest) error {
    if s.locationRepo == nil {
        return ErrQueueUnavailable
    }
    if err := req.Validate(); err != nil {
        return err
    }
    buf, err := json.Marshal(req)
    if err != nil {
        return err
    }
    return s.locationRepo.PublishLocations(ctx, buf)
}

func (s *GpsVendorService) observe(op string, start time.Time, resp *gpsvendor.VendorResponse, err error) {
    dialect := string(s.client.Dialect())
    elapsed := time.Since(start)

    outcome := "success"
    switch {
    case err != nil:
        outcome = gpsvendor.KindOf(err).String()
    case !resp.Success:
        outcome = "rejected"
    }

    metrics.VendorRequestsTotal.WithLabelValues(dialect, op, outcome).Inc()
    metrics.VendorRequestDuration.WithLabelValues(dialect, op).Observe(elapsed.Seconds())

    if err != nil {
        log.Printf("vendor %s %s failed after %s: %v", dialect, op, elapsed, err)
        return
    }
    log.Printf("vendor %s %s: outcome=%s code=%q status=%d in %s", dialect, op, outcome, resp.Code, resp.StatusCode, elapsed)
}
