package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration aborts the whole run; nothing is processed.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool marks a failure reported by a subprocess collaborator.
	ErrExternalTool = errors.New("external tool error")
	// ErrTransient marks a failure worth retrying on a future run.
	ErrTransient = errors.New("transient failure")
	// ErrNotFound is returned by lookup collaborators on a clean miss.
	ErrNotFound = errors.New("not found")
	// ErrContention means a lock was unavailable; skip, never quarantine.
	ErrContention = errors.New("lock contention")
	// ErrSuperseded means the destination already holds an equal or newer version.
	ErrSuperseded = errors.New("superseded by existing version")
	// ErrRejected means the file could not be classified as any media kind.
	ErrRejected = errors.New("unrecognized media file")
)

// Wrap builds an error carrying stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// sentinel errors above.
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
