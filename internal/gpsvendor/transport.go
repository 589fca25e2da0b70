package gpsvendor

import (
    "bytes"
    "context"
    "fmt"
    "io"
    "net/http"

    "github.com/goccy/go-json"
)

// authFunc attaches dialect credentials to an outgoing request
type authFunc func(req *http.Request)

type rawResponse struct {
    StatusCode int
    Body       []byte
}

// transport performs the single POST behind every Client operation and classifies failures
type transport struct {
    httpClient  *http.Client
    contentType string
    auth        authFunc
}

func (t *transport) post(ctx context.Context, op, url string, payload interface{}) (*rawResponse, error) {
    reqBody, err := json.Marshal(payload)
    if err != nil {
        return nil, validationError(op, fmt.Errorf("failed to encode payload: %w", err))
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
    if err != nil {
        return nil, validationError(op, fmt.Errorf("failed to build request: %w", err))
    }
    req.Header.Set("Content-Type", t.contentType)
    req.Header.Set("Accept", "application/json")
    if t.auth != nil {
        t.auth(req)
    }

    resp, err := t.httpClient.Do(req)
    if err != nil {
        return nil, &ClientError{Kind: KindTransport, Op: op, Err: err}
    }
    defer resp.Body.Close()

    respBody, err := io.ReadAll(resp.Body)
    if err != nil {
        return nil, &ClientError{Kind: KindTransport, Op: op, StatusCode: resp.StatusCode, Err: err}
    }

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        ce := &ClientError{
            Kind:       KindHTTP,
            Op:         op,
            StatusCode: resp.StatusCode,
            Body:       respBody,
            Err:        fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode),
        }
        var detail interface{}
        if len(respBody) > 0 && json.Unmarshal(respBody, &detail) == nil {
            ce.Detail = detail
        }
        return nil, ce
    }

    return &rawResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// resultBody is the subset of a vendor reply both dialects may carry
type resultBody struct {
    Code    ResultCode  `json:"code"`
    Message interface{} `json:"message"`
    Msg     interface{} `json:"msg"`
}

func (r *resultBody) text() string {
    for _, v := range []interface{}{r.Message, r.Msg} {
        switch val := v.(type) {
        case nil:
            continue
        case string:
            if val != "" {
                return val
            }
        default:
            buf, err := json.Marshal(val)
            if err == nil {
                return string(buf)
            }
        }
    }
    return ""
}

func schemaError(op string, raw *rawResponse, err error) *ClientError {
    return &ClientError{
        Kind:       KindSchema,
        Op:         op,
        StatusCode: raw.StatusCode,
        Body:       raw.Body,
        Err:        err,
    }
}
