package usecase

import (
	"regexp"
	"strings"

	"SiteForge/internal/domain"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateName checks identifiers that end up inside artifact keys.
func ValidateName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ValidationError{Field: field, Reason: "is required"}
	}
	if len(value) > 128 || !namePattern.MatchString(value) {
		return &domain.ValidationError{Field: field, Reason: "must contain only letters, digits, '-' or '_'"}
	}
	return nil
}

func requireEnv(env string) error {
	if env != domain.EnvDraft && env != domain.EnvLive {
		return &domain.ValidationError{Field: "env", Reason: "must be draft or live"}
	}
	return nil
}
