package concept

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrValidation            = fmt.Errorf("%w: validation failed", ErrInvalidInput)
	ErrUpstreamTimeout       = errors.New("upstream timeout")
	ErrUpstream              = errors.New("upstream error")
	ErrUpstreamFormat        = errors.New("upstream format error")
	ErrImageGenerationFailed = errors.New("image generation failed")
	ErrStore                 = errors.New("store error")
)

// UpstreamError reports a non-2xx answer from an external service.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned error status %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// StageError records which pipeline stage a failure came out of.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Kind returns the taxonomy name of err, or "internal" when it is not one of ours.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrUpstreamTimeout):
		return "UpstreamTimeout"
	case errors.Is(err, ErrUpstreamFormat):
		return "UpstreamFormatError"
	case errors.Is(err, ErrUpstream):
		return "UpstreamError"
	case errors.Is(err, ErrImageGenerationFailed):
		return "ImageGenerationFailed"
	case errors.Is(err, ErrStore):
		return "StoreError"
	default:
		return "internal"
	}
}
