package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrToolUnavailable  = errors.New("tool unavailable")
	ErrTransformFailure = errors.New("transform failure")
	ErrBackupFailure    = errors.New("backup failure")
	ErrInvalidAsset     = errors.New("invalid asset")
	ErrExternalTool     = errors.New("external tool error")
	ErrConfiguration    = errors.New("configuration error")
	ErrTimeout          = errors.New("timeout")
)

// Disposition describes how the pipeline reacts to a per-asset error.
type Disposition string

const (
	// DispositionSkip records the asset as skipped and continues the batch.
	DispositionSkip Disposition = "skip"
	// DispositionAbort halts the whole run.
	DispositionAbort Disposition = "abort"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransformFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// DispositionFor maps a per-asset error to the action the pipeline takes.
// Backup failures and cancellation abort the run; everything else skips the
// asset so the batch still produces a report.
func DispositionFor(err error) Disposition {
	switch {
	case err == nil:
		return DispositionSkip
	case errors.Is(err, ErrBackupFailure), errors.Is(err, ErrConfiguration):
		return DispositionAbort
	case errors.Is(err, context.Canceled):
		return DispositionAbort
	default:
		return DispositionSkip
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
