package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Kind groups failures by how callers are expected to react to them.
type Kind string

const (
	// KindInput marks caller mistakes such as an empty topic or a malformed payload.
	KindInput Kind = "input"
	// KindConfiguration marks missing credentials or unsupported providers.
	KindConfiguration Kind = "configuration"
	// KindTransient marks network and provider failures that may succeed later.
	KindTransient Kind = "transient"
	// KindInternal covers everything that carries no marker.
	KindInternal Kind = "internal"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf classifies err using the sentinel markers it wraps.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindInput
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrTransient), errors.Is(err, ErrTimeout),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrExternalTool):
		return KindTransient
	default:
		return KindInternal
	}
}

// IsFatal reports whether err must abort the current invocation instead of
// degrading to an empty result.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindInput, KindConfiguration:
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
