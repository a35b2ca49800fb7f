package reducer

import (
	"errors"
	"fmt"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// ReduceError represents an action the reducer cannot interpret.
type ReduceError struct {
	// Code identifies the error category.
	Code ReduceErrorCode

	// ActionType is the offending action tag.
	ActionType ruleflow.ActionType

	// Message is a human-readable description.
	Message string
}

// ReduceErrorCode categorizes reducer errors.
type ReduceErrorCode string

const (
	// ErrCodeUnknownAction indicates an action tag outside the vocabulary.
	ErrCodeUnknownAction ReduceErrorCode = "UNKNOWN_ACTION"
)

func (e *ReduceError) Error() string {
	return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.ActionType)
}

// Unwrap lets errors.Is match ruleflow.ErrUnknownAction.
func (e *ReduceError) Unwrap() error {
	if e.Code == ErrCodeUnknownAction {
		return ruleflow.ErrUnknownAction
	}
	return nil
}

// NewUnknownActionError creates a ReduceError for an unrecognized action.
func NewUnknownActionError(t ruleflow.ActionType) *ReduceError {
	return &ReduceError{
		Code:       ErrCodeUnknownAction,
		ActionType: t,
		Message:    "action type is not part of the vocabulary",
	}
}

// IsUnknownAction returns true if err is an unknown-action error.
func IsUnknownAction(err error) bool {
	var re *ReduceError
	if errors.As(err, &re) {
		return re.Code == ErrCodeUnknownAction
	}
	return errors.Is(err, ruleflow.ErrUnknownAction)
}
