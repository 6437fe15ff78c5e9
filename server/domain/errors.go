package domain

import "errors"

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidFormat = errors.New("invalid image format")
	ErrTooLarge      = errors.New("image too large")
	ErrStorage       = errors.New("storage error")
	ErrNotFound      = errors.New("not found")
)

// ErrorCode maps an error to the code carried on the wire.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrInvalidFormat):
		return "INVALID_FORMAT"
	case errors.Is(err, ErrTooLarge):
		return "TOO_LARGE"
	case errors.Is(err, ErrStorage):
		return "STORAGE_ERROR"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}
