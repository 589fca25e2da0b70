package handler

import "net/http"

// VendorHandler is an interface for handling GPS vendor related requests
type VendorHandler interface {
    RegisterDevice(w http.ResponseWriter, r *http.Request)
    FindDeviceByBoxID(w http.ResponseWriter, r *http.Request)
    PublishLocations(w http.ResponseWriter, r *http.Request)
}
