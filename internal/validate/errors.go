package validate

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes validation failures.
type ErrorCode string

const (
	// ErrCodeBadPayload indicates the submitted payload was not a
	// decodable batch at all.
	ErrCodeBadPayload ErrorCode = "BAD_PAYLOAD"

	// ErrCodeMissingTemplate indicates an entry without a template.
	ErrCodeMissingTemplate ErrorCode = "MISSING_TEMPLATE"

	// ErrCodeMissingPostType indicates an entry without a post type.
	ErrCodeMissingPostType ErrorCode = "MISSING_POST_TYPE"

	// ErrCodeUnknownTemplate indicates a template id that does not
	// reference an installed template.
	ErrCodeUnknownTemplate ErrorCode = "UNKNOWN_TEMPLATE"

	// ErrCodeUnknownPostType indicates a content type the host does
	// not know.
	ErrCodeUnknownPostType ErrorCode = "UNKNOWN_POST_TYPE"

	// ErrCodeDuplicateTemplate indicates the same template appears in
	// more than one entry of a batch.
	ErrCodeDuplicateTemplate ErrorCode = "DUPLICATE_TEMPLATE"

	// ErrCodeDuplicatePostType indicates the same post type appears
	// in more than one entry of a batch.
	ErrCodeDuplicatePostType ErrorCode = "DUPLICATE_POST_TYPE"
)

// ValidationError describes why a batch was rejected. The whole batch
// fails on the first violation; the previously stored list is never
// touched.
type ValidationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Index is the offending entry's position in the batch, or -1
	// when the error is not tied to a single entry.
	Index int

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: rule %d: %s", e.Code, e.Index+1, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidationError reports whether err is a validation rejection.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func newEntryError(code ErrorCode, index int, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Index: index, Message: fmt.Sprintf(format, args...)}
}
