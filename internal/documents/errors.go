package documents

import "errors"

var (
	// ErrNotFound indicates the document does not exist for the user.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a request the service cannot act on.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTooLarge indicates an upload above the configured size limit.
	ErrTooLarge = errors.New("file too large")
)
