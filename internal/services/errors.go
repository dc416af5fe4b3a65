package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify failures along the taxonomy the
// orchestrator reports on: configuration problems stop the whole run,
// authorization and listing problems skip one account, transient problems
// were already retried at a lower layer.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrAuthorization = errors.New("authorization error")
	ErrListing       = errors.New("listing error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
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

// IsFatal reports whether an error should abort the whole run rather than a
// single account.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsAccountSkip reports whether an error skips the current account while the
// remaining accounts continue.
func IsAccountSkip(err error) bool {
	return errors.Is(err, ErrAuthorization) || errors.Is(err, ErrListing)
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
