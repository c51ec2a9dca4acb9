package domain

import (
	"errors"
	"fmt"
)

// Code is the stable machine-checkable discriminator carried by failure responses.
type Code string

const (
	CodeValidation       Code = "validation"
	CodeUpstream         Code = "upstream_unavailable"
	CodeConflict         Code = "conflict"
	CodeQualityExhausted Code = "quality_exhausted"
	CodeMalformedPayload Code = "malformed_payload"
	CodePageExists       Code = "page_exists"
	CodeNotFound         Code = "not_found"
	CodeInternal         Code = "internal"
)

var (
	// ErrNotFound is returned by stores when a key is absent.
	ErrNotFound = errors.New("artifact not found")
	// ErrPageExists is returned when synthesis targets an existing page.
	ErrPageExists = errors.New("page already exists")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ConflictError reports a version tag mismatch on a conditional write.
type ConflictError struct {
	Key              string
	ExpectedTag      string
	ServerVersionTag string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s: expected %q, server has %q", e.Key, e.ExpectedTag, e.ServerVersionTag)
}

// UpstreamError reports an unreachable or failing external service.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// MalformedPayloadError reports structured model output that could not be used.
type MalformedPayloadError struct {
	Reason string
	Err    error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload: %s: %v", e.Reason, e.Err)
	}
	return "malformed payload: " + e.Reason
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// SlotError reports the failure of a single template slot.
type SlotError struct {
	Index int
	Slot  string
	Err   error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %d (%s): %v", e.Index, e.Slot, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

// QualityExhaustedError is terminal: no attempt reached the threshold.
type QualityExhaustedError struct {
	Attempts  int
	Threshold int
	Verdict   QualityVerdict
}

func (e *QualityExhaustedError) Error() string {
	return fmt.Sprintf("quality gate not passed after %d attempts: score %d < %d", e.Attempts, e.Verdict.Score, e.Threshold)
}

// CodeOf maps an error chain to its discriminator.
func CodeOf(err error) Code {
	var (
		validation *ValidationError
		conflict   *ConflictError
		upstream   *UpstreamError
		malformed  *MalformedPayloadError
		exhausted  *QualityExhaustedError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return CodeValidation
	case errors.As(err, &conflict):
		return CodeConflict
	case errors.As(err, &exhausted):
		return CodeQualityExhausted
	case errors.As(err, &malformed):
		return CodeMalformedPayload
	case errors.As(err, &upstream):
		return CodeUpstream
	case errors.Is(err, ErrPageExists):
		return CodePageExists
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}
