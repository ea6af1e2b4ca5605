package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/focitech/focitech/engine/resource"
	"github.com/tidwall/gjson"
)

const (
	// ConnectionLostMessage is shown for transport failures.
	ConnectionLostMessage = "Connection lost. Please check your internet and try again."
	// FallbackDetail is used when an error body carries no usable detail.
	FallbackDetail = "TechnoviaX Engine Sync Failure."
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// NetworkError is a transport failure with no HTTP response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error on %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is returned when the per call deadline expires.
type TimeoutError struct {
	Method string
	Path   string
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %s %s timed out: %v", e.Method, e.Path, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. Detail is taken from the body.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// Is maps well known statuses to the sentinel errors.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// extractDetail reads "detail" as a string, or the first "msg" of a
// validation array.
func extractDetail(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return FallbackDetail
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String && detail.String() != "":
		return detail.String()
	case detail.IsArray():
		if msg := detail.Get("0.msg"); msg.Type == gjson.String && msg.String() != "" {
			return msg.String()
		}
	}
	return FallbackDetail
}

func classifyTransport(ctx context.Context, method, path string, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Method: method, Path: path, Err: err}
	}
	return &NetworkError{Method: method, Path: path, Err: err}
}

// UserMessage renders err for display next to a form or table.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		verr    *resource.ValidationError
		netErr  *NetworkError
		tmErr   *TimeoutError
		httpErr *HTTPError
	)
	switch {
	case errors.As(err, &verr):
		if len(verr.Fields) > 0 {
			return verr.Fields[0].Message
		}
		return FallbackDetail
	case errors.As(err, &netErr), errors.As(err, &tmErr):
		return ConnectionLostMessage
	case errors.As(err, &httpErr):
		return httpErr.Detail
	default:
		return FallbackDetail
	}
}
