package schema

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// ErrorCode categorizes validation failures.
type ErrorCode string

const (
	// ErrCodeSyntax indicates input that is not well-formed JSON.
	ErrCodeSyntax ErrorCode = "SYNTAX"

	// ErrCodeViolation indicates input that does not match the schema.
	ErrCodeViolation ErrorCode = "SCHEMA_VIOLATION"

	// ErrCodeUnknownAction indicates an action tag outside the vocabulary.
	ErrCodeUnknownAction ErrorCode = "UNKNOWN_ACTION"
)

// ValidationError is one schema failure.
type ValidationError struct {
	Code    ErrorCode
	Path    string    // dotted CUE path, empty for whole-input failures
	Message string
	Pos     token.Pos // position in the input, if known
}

func (e *ValidationError) Error() string {
	loc := e.Path
	if e.Pos.IsValid() {
		loc = fmt.Sprintf("%d:%d", e.Pos.Line(), e.Pos.Column())
		if e.Path != "" {
			loc = e.Path + " (" + loc + ")"
		}
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, loc, e.Message)
}

// IsValidationError reports whether err wraps a ValidationError with code.
func IsValidationError(err error, code ErrorCode) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}
