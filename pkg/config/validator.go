package config

import (
	"net/url"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("redis_url", validateRedisURL)
}

// validateRedisURL accepts empty values or redis:// and rediss:// URLs.
func validateRedisURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "redis" || u.Scheme == "rediss") && u.Host != ""
}
