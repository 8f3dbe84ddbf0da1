package extraction

import (
	"errors"

	"docchat-backend/internal/shared/util"
)

const maxReasonBytes = 500

var (
	// ErrInvalidInput reports a missing or malformed document id or path.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound reports a document that does not exist or belongs to another user.
	ErrNotFound = errors.New("not found for this user")
	// ErrDownload reports a failure to fetch the stored file.
	ErrDownload = errors.New("download failed")
	// ErrPersist reports a failure to store the extraction outcome.
	ErrPersist = errors.New("failed to save extraction result")
)

// UnprocessableError is returned when the file was fetched but could not
// yield usable content. Reason is stored on the document row.
type UnprocessableError struct {
	Reason string
	Err    error
}

func (e *UnprocessableError) Error() string {
	return e.Reason
}

func (e *UnprocessableError) Unwrap() error {
	return e.Err
}

func unprocessable(reason string, err error) *UnprocessableError {
	return &UnprocessableError{Reason: capReason(reason), Err: err}
}

// capReason reduces a diagnostic to one printable line of at most
// maxReasonBytes. Parser panics can carry raw file bytes.
func capReason(reason string) string {
	return util.TruncateUTF8(collapseSpaces(stripControls(reason)), maxReasonBytes)
}
