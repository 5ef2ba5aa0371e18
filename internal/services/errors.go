package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnreadableFile       = errors.New("unreadable file")
	ErrAlignmentUnavailable = errors.New("alignment unavailable")
	ErrShapeMismatch        = errors.New("shape mismatch")
	ErrInvalidCheckKind     = errors.New("invalid check kind")
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
	ErrNotFound             = errors.New("not found")
	ErrBusy                 = errors.New("session busy")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Exit codes returned by the CLI for classified failures.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitProblems    = 2
	ExitUnreadable  = 3
	ExitConfig      = 4
	ExitProgrammer  = 5
	ExitSessionBusy = 6
)

// ExitCode maps an engine error to the process exit code the CLI should use.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUnreadableFile), errors.Is(err, ErrNotFound):
		return ExitUnreadable
	case errors.Is(err, ErrConfiguration):
		return ExitConfig
	case errors.Is(err, ErrShapeMismatch), errors.Is(err, ErrInvalidCheckKind):
		return ExitProgrammer
	case errors.Is(err, ErrBusy):
		return ExitSessionBusy
	case errors.Is(err, ErrValidation):
		return ExitProblems
	default:
		return ExitFailure
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
		return "validation failure"
	}
	return strings.Join(parts, ": ")
}
