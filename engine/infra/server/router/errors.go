package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/resource"
)

// Error codes
const (
	ErrInternalCode           = "INTERNAL_ERROR"
	ErrBadRequestCode         = "BAD_REQUEST"
	ErrValidationCode         = "VALIDATION_FAILED"
	ErrUnauthorizedCode       = "UNAUTHORIZED"
	ErrForbiddenCode          = "FORBIDDEN"
	ErrNotFoundCode           = "NOT_FOUND"
	ErrRequestTimeoutCode     = "REQUEST_TIMEOUT"
	ErrRateLimitedCode        = "RATE_LIMITED"
	ErrBackendCode            = "BACKEND_ERROR"
	ErrServiceUnavailableCode = "SERVICE_UNAVAILABLE"
)

// ProblemFromError maps errors from the backend client, the identity
// service and form validation onto a problem document. Detail always carries
// a message that is safe to show to the visitor.
func ProblemFromError(err error) *Problem {
	status, code := classify(err)
	p := &Problem{
		Status: status,
		Title:  http.StatusText(status),
		Detail: Message(err),
		Code:   code,
	}
	var verr *resource.ValidationError
	if errors.As(err, &verr) {
		p.Fields = verr.Map()
	}
	return p
}

// Message is the visitor-facing text for err. Identity service rejections
// carry their own message; resume upload errors read as-is.
func Message(err error) string {
	var authErr *identity.AuthError
	switch {
	case errors.Is(err, identity.ErrInvalidLogin):
		return "Invalid email or password."
	case errors.As(err, &authErr) && authErr.Message != "":
		return authErr.Message
	case errors.Is(err, identity.ErrNotConfigured):
		return "Sign in is not available right now."
	case errors.Is(err, resource.ErrFileTooLarge), errors.Is(err, resource.ErrFileType),
		errors.Is(err, resource.ErrFileContent), errors.Is(err, resource.ErrResumeRequired):
		return err.Error()
	default:
		return api.UserMessage(err)
	}
}

// StatusOf returns the HTTP status ProblemFromError would use.
func StatusOf(err error) int {
	status, _ := classify(err)
	return status
}

func classify(err error) (int, string) {
	var (
		httpErr *api.HTTPError
		timeout *api.TimeoutError
		netErr  *api.NetworkError
		authErr *identity.AuthError
	)
	switch {
	case errors.Is(err, resource.ErrInvalid):
		return http.StatusUnprocessableEntity, ErrValidationCode
	case errors.Is(err, resource.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, ErrValidationCode
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, identity.ErrNoSession),
		errors.Is(err, identity.ErrInvalidLogin), errors.Is(err, api.ErrNoToken):
		return http.StatusUnauthorized, ErrUnauthorizedCode
	case errors.Is(err, api.ErrForbidden):
		return http.StatusForbidden, ErrForbiddenCode
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound, ErrNotFoundCode
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrRequestTimeoutCode
	case errors.As(err, &netErr), errors.Is(err, identity.ErrNotConfigured):
		return http.StatusBadGateway, ErrServiceUnavailableCode
	case errors.As(err, &httpErr):
		if httpErr.Status >= 400 && httpErr.Status < 500 {
			return httpErr.Status, ErrBadRequestCode
		}
		return http.StatusBadGateway, ErrBackendCode
	case errors.As(err, &authErr):
		if authErr.Status >= 400 && authErr.Status < 500 {
			return authErr.Status, ErrBadRequestCode
		}
		return http.StatusBadGateway, ErrBackendCode
	default:
		return http.StatusInternalServerError, ErrInternalCode
	}
}
