package gpsvendor

import (
    "errors"
    "fmt"
)

var (
    ErrEmptyBatch              = errors.New("location batch is empty")
    ErrMissingTimestamp        = errors.New("location timestamp is missing")
    ErrRegistrationUnsupported = errors.New("dialect has no device registration endpoint")
    ErrUnexpectedStatus        = errors.New("unexpected http status")
)

// Kind classifies a ClientError
type Kind int

const (
    KindValidation Kind = iota + 1 // rejected before sending
    KindTransport                  // no response received
    KindHTTP                       // non-2xx response
    KindSchema                     // 2xx response with an unexpected body
)

func (k Kind) String() string {
    switch k {
    case KindValidation:
        return "validation_error"
    case KindTransport:
        return "transport_error"
    case KindHTTP:
        return "http_error"
    case KindSchema:
        return "schema_error"
    }
    return "unknown_error"
}

// ClientError is returned by every Client operation that did not produce a VendorResponse
type ClientError struct {
    Kind       Kind
    Op         string
    StatusCode int
    // Body is the raw response body, Detail its JSON decoding when it parsed
    Body   []byte
    Detail interface{}
    Err    error
}

func (e *ClientError) Error() string {
    switch e.Kind {
    case KindHTTP:
        return fmt.Sprintf("%s: %s: status %d: %s", e.Op, e.Kind, e.StatusCode, string(e.Body))
    case KindSchema:
        return fmt.Sprintf("%s: %s: status %d: %v", e.Op, e.Kind, e.StatusCode, e.Err)
    }
    return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ClientError) Unwrap() error {
    return e.Err
}

// IsKind reports whether err is a ClientError of the given kind
func IsKind(err error, kind Kind) bool {
    var ce *ClientError
    if errors.As(err, &ce) {
        return ce.Kind == kind
    }
    return false
}

// KindOf returns the kind of err, or zero when err is not a ClientError
func KindOf(err error) Kind {
    var ce *ClientError
    if errors.As(err, &ce) {
        return ce.Kind
    }
    return 0
}

func validationError(op string, err error) *ClientError {
    return &ClientError{Kind: KindValidation, Op: op, Err: err}
}
