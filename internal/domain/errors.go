package domain

import (
	"fmt"
	"strings"
)

// ErrorCode is a machine-readable validation error code.
type ErrorCode string

const (
	CodeMissingID           ErrorCode = "MISSING_ID"
	CodeDuplicateID         ErrorCode = "DUPLICATE_ID"
	CodeDuplicateChild      ErrorCode = "DUPLICATE_CHILD"
	CodeUnknownParent       ErrorCode = "UNKNOWN_PARENT"
	CodeParentNotPortfolio  ErrorCode = "PARENT_NOT_PORTFOLIO"
	CodeChildNotListed      ErrorCode = "CHILD_NOT_LISTED"
	CodeUnknownChild        ErrorCode = "UNKNOWN_CHILD"
	CodeChildParentMismatch ErrorCode = "CHILD_PARENT_MISMATCH"
	CodeNoRoot              ErrorCode = "NO_ROOT"
	CodeMultipleRoots       ErrorCode = "MULTIPLE_ROOTS"
	CodeCycle               ErrorCode = "CYCLE"
	CodeEmptyPortfolio      ErrorCode = "EMPTY_PORTFOLIO"
	CodeInvalidProbability  ErrorCode = "INVALID_PROBABILITY"
	CodeUnknownDistribution ErrorCode = "UNKNOWN_DISTRIBUTION"
	CodeTooFewPoints        ErrorCode = "TOO_FEW_POINTS"
	CodeLengthMismatch      ErrorCode = "LENGTH_MISMATCH"
	CodeNotAscending        ErrorCode = "NOT_ASCENDING"
	CodeInvalidLossBounds   ErrorCode = "INVALID_LOSS_BOUNDS"
	CodeInvalidTerms        ErrorCode = "INVALID_TERMS"
	CodeInvalidBounds       ErrorCode = "INVALID_BOUNDS"
	CodeFitFailed           ErrorCode = "FIT_FAILED"
)

// ValidationError represents a single validation failure with a field path,
// a machine-readable code, and a human message.
type ValidationError struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple accumulated validation errors.
// Validation never stops at the first failure; callers receive every
// violation in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Prefixed returns a copy of the errors with every field path prefixed by
// the given scope (typically a node id).
func (e ValidationErrors) Prefixed(scope string) ValidationErrors {
	if len(e) == 0 {
		return nil
	}
	out := make(ValidationErrors, len(e))
	for i, err := range e {
		out[i] = ValidationError{
			Field:   scope + "." + err.Field,
			Code:    err.Code,
			Message: err.Message,
		}
	}
	return out
}

// HasCode reports whether any accumulated error carries the given code.
func (e ValidationErrors) HasCode(code ErrorCode) bool {
	for _, err := range e {
		if err.Code == code {
			return true
		}
	}
	return false
}
