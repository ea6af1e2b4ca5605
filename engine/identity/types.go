// Package identity talks to the Supabase auth service and tracks the signed
// in user.
package identity

import (
	"time"
)

const (
	// DefaultRole is assigned when app_metadata carries no role.
	DefaultRole = "authenticated"
	// AdminRole unlocks the admin area.
	AdminRole = "admin"
)

// User is the account returned by the auth service.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (u *User) metaString(meta map[string]any, key string) string {
	if u == nil || meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}

// Role reads app_metadata.role.
func (u *User) Role() string {
	if r := u.metaString(u.appMeta(), "role"); r != "" {
		return r
	}
	return DefaultRole
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role() == AdminRole
}

func (u *User) FullName() string {
	return u.metaString(u.userMeta(), "full_name")
}

func (u *User) Location() string {
	return u.metaString(u.userMeta(), "location")
}

func (u *User) Education() string {
	return u.metaString(u.userMeta(), "education")
}

// DisplayName is the full name, or the email when none is set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Email
}

// MemberSince formats the account creation date.
func (u *User) MemberSince() string {
	if u == nil || u.CreatedAt.IsZero() {
		return ""
	}
	return u.CreatedAt.Format("January 2006")
}

func (u *User) appMeta() map[string]any {
	if u == nil {
		return nil
	}
	return u.AppMetadata
}

func (u *User) userMeta() map[string]any {
	if u == nil {
		return nil
	}
	return u.UserMetadata
}

// Session is a token pair plus the user it belongs to. AccessToken is empty
// when sign up still awaits email confirmation.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// Active reports whether the session carries an access token.
func (s *Session) Active() bool {
	return s != nil && s.AccessToken != ""
}

// Expiry returns when the access token lapses, or the zero time if unknown.
func (s *Session) Expiry() time.Time {
	if s == nil || s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// ExpiresWithin reports whether the token lapses before now+d.
func (s *Session) ExpiresWithin(now time.Time, d time.Duration) bool {
	exp := s.Expiry()
	return !exp.IsZero() && exp.Before(now.Add(d))
}

// Event names a change in the signed in state.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"
)
