package identity

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	ErrNotConfigured = errors.New("identity: auth service is not configured")
	ErrNoSession     = errors.New("identity: not signed in")
	ErrTokenExpired  = errors.New("identity: token expired")
	ErrInvalidLogin  = errors.New("identity: invalid login credentials")
)

// AuthError is a non-2xx answer from the auth service.
type AuthError struct {
	Status  int
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth service returned %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("auth service returned %d: %s", e.Status, e.Message)
}

func (e *AuthError) Is(target error) bool {
	switch target {
	case ErrInvalidLogin:
		return e.Code == "invalid_grant" || e.Code == "invalid_credentials"
	case ErrNoSession:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// parseAuthError reads the various error shapes GoTrue produces.
func parseAuthError(status int, body []byte) *AuthError {
	e := &AuthError{Status: status, Message: http.StatusText(status)}
	if !gjson.ValidBytes(body) {
		return e
	}
	root := gjson.ParseBytes(body)
	for _, key := range []string{"error_code", "error"} {
		if v := root.Get(key); v.Type == gjson.String && v.String() != "" {
			e.Code = v.String()
			break
		}
	}
	for _, key := range []string{"error_description", "msg", "message"} {
		if v := root.Get(key); v.Type == gjson.String && v.String() != "" {
			e.Message = v.String()
			break
		}
	}
	return e
}
