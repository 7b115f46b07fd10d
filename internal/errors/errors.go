package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrMessageNotFound indicates the message was not found in the caller's mailbox
	ErrMessageNotFound = errors.New("message not found")

	// ErrUploadNotFound indicates the inline image was not found
	ErrUploadNotFound = errors.New("upload not found")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingToken indicates a mutating call was attempted without an
	// anti-forgery token. This is a local precondition failure: no request
	// is issued when it occurs.
	ErrMissingToken = errors.New("missing anti-forgery token")

	// ErrMissingRecipient indicates a send was attempted with no recipient
	ErrMissingRecipient = errors.New("missing recipient")

	// ErrMissingSubject indicates a send was attempted with an empty subject
	ErrMissingSubject = errors.New("missing subject")

	// ErrMissingBody indicates a send was attempted with an empty body
	ErrMissingBody = errors.New("missing body")

	// ErrInvalidTransition indicates a folder transition that is not allowed,
	// such as archiving a draft
	ErrInvalidTransition = errors.New("invalid folder transition")

	// ErrUploadTooLarge indicates an inline image exceeds the size limit
	ErrUploadTooLarge = errors.New("image exceeds size limit")

	// ErrUploadNotImage indicates an inline image upload with a non-image MIME type
	ErrUploadNotImage = errors.New("file is not an image")

	// ErrUploadUnavailable indicates no upload backend is wired
	ErrUploadUnavailable = errors.New("image upload unavailable")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeMissingToken      = "MISSING_TOKEN"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeUploadTooLarge    = "UPLOAD_TOO_LARGE"
	CodeUploadNotImage    = "UPLOAD_NOT_IMAGE"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternalError     = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrUploadNotFound)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrMissingRecipient) ||
		errors.Is(err, ErrMissingSubject) ||
		errors.Is(err, ErrMissingBody)
}

// IsPrecondition reports whether the error is a local precondition failure,
// raised before any network call is made
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrMissingToken) || IsInvalidInput(err)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case errors.Is(err, ErrMissingToken):
		return CodeMissingToken
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrUploadTooLarge):
		return CodeUploadTooLarge
	case errors.Is(err, ErrUploadNotImage):
		return CodeUploadNotImage
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	default:
		return CodeInternalError
	}
}
