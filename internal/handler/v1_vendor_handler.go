package handler

import (
    "errors"
    "fmt"
    "log"
    "net/http"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/goccy/go-json"
    "github.com/yemyoaung/managing-vehicle-tracking-common"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/gpsvendor"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/repositories"
    "github.com/yemyoaung/managing-vehicle-tracking-gps-vendor-svc/internal/services"
)

var (
    ErrMethodNotAllowed = errors.New("method was not allowed")
    ErrNotFound         = errors.New("not found")
    ErrInvalidRequest   = errors.New("invalid request")
)

type V1VendorHandler struct {
    vendorService services.VendorService
    validate      *validator.Validate
}

func NewV1VendorHandler(vendorService services.VendorService, validate *validator.Validate) *V1VendorHandler {
    return &V1VendorHandler{vendorService: vendorService, validate: validate}
}

func (h *V1VendorHandler) methodWasNotAllowed(w http.ResponseWriter) {
    common.HandleError(http.StatusMethodNotAllowed, w, ErrMethodNotAllowed)
}

// statusFor maps service and vendor errors to the status returned to our own callers
func statusFor(err error) int {
    switch {
    case errors.Is(err, repositories.ErrDeviceNotFound):
        return http.StatusNotFound
    case errors.Is(err, services.ErrDeviceNotRegistered):
        return http.StatusConflict
    case errors.Is(err, services.ErrQueueUnavailable):
        return http.StatusServiceUnavailable
    case errors.Is(err, gpsvendor.ErrEmptyBatch),
        errors.Is(err, gpsvendor.ErrMissingTimestamp),
        errors.Is(err, services.ErrBatchTooLarge):
        return http.StatusUnprocessableEntity
    }
    switch gpsvendor.KindOf(err) {
    case gpsvendor.KindValidation:
        return http.StatusUnprocessableEntity
    case gpsvendor.KindTransport:
        return http.StatusGatewayTimeout
    case gpsvendor.KindHTTP, gpsvendor.KindSchema:
        return http.StatusBadGateway
    }
    // storage and queue failures
    return http.StatusInternalServerError
}

func (h *V1VendorHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        h.methodWasNotAllowed(w)
        return
    }

    var req gpsvendor.DeviceRecord
    body, ok := r.Context().Value(common.Body).([]byte)
    if !ok {
        common.HandleError(http.StatusBadRequest, w, ErrInvalidRequest)
        return
    }
    if err := json.Unmarshal(body, &req); err != nil {
        common.HandleError(http.StatusUnprocessableEntity, w, err)
        return
    }

    if err := h.validate.Struct(&req); err != nil {
        common.HandleError(http.StatusUnprocessableEntity, w, err)
        return
    }

    resp, err := h.vendorService.RegisterDevice(r.Context(), &req)
    if err != nil {
        common.HandleError(statusFor(err), w, err)
        return
    }

    if !resp.Success {
        common.HandleError(
            http.StatusUnprocessableEntity,
            w,
            fmt.Errorf("%w: code %q: %s", services.ErrRegistrationRejected, resp.Code, resp.Message),
        )
        return
    }

    if err = json.NewEncoder(w).Encode(
        common.DefaultSuccessResponse(
            resp,
            "successfully registered device",
        ),
    ); err != nil {
        log.Printf("Failed to encode response: %v", err)
    }
}

func (h *V1VendorHandler) FindDeviceByBoxID(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        h.methodWasNotAllowed(w)
        return
    }

    // path is "/api/v1/devices/:box_id", the box id should be in the fifth segment
    segments := strings.Split(r.URL.Path, "/")
    if len(segments) < 5 || segments[4] == "" {
        common.HandleError(http.StatusNotFound, w, ErrNotFound)
        return
    }

    device, err := h.vendorService.GetDevice(r.Context(), segments[4])
    if err != nil {
        common.HandleError(statusFor(err), w, err)
        return
    }

    if err = json.NewEncoder(w).Encode(
        common.DefaultSuccessResponse(
            device,
            fmt.Sprintf("successfully fetched device with box id: %s", segments[4]),
        ),
    ); err != nil {
        log.Printf("Failed to encode response: %v", err)
    }
}

func (h *V1VendorHandler) PublishLocations(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        h.methodWasNotAllowed(w)
        return
    }

    var req services.LocationBatchRequest
    body, ok := r.Context().Value(common.Body).([]byte)
    if !ok {
        common.HandleError(http.StatusBadRequest, w, ErrInvalidRequest)
        return
    }
    if err := json.Unmarshal(body, &req); err != nil {
        common.HandleError(http.StatusUnprocessableEntity, w, err)
        return
    }

    if err := h.validate.Struct(&req); err != nil {
        common.HandleError(http.StatusUnprocessableEntity, w, err)
        return
    }

    if err := h.vendorService.PublishLocations(r.Context(), &req); err != nil {
        common.HandleError(statusFor(err), w, err)
        return
    }

    if err := json.NewEncoder(w).Encode(
        common.DefaultSuccessResponse(
            map[string]int{"location_count": len(req.Locations)},
            "successfully queued locations",
        ),
    ); err != nil {
        log.Printf("Failed to encode response: %v", err)
    }
}
