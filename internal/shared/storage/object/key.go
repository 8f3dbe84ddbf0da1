package object

import (
	"bytes"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"docchat-backend/internal/shared/util"
)

const sniffLen = 512

// NewKey sanitizes fileName and returns a fresh storage key of the form
// "<user hash>/<uuid>_<name>" together with the sanitized name.
func NewKey(userID, fileName string) (key, name string, err error) {
	name, err = util.SanitizeFileName(fileName)
	if err != nil {
		return "", "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(util.HashUserKey(userID), uuid.NewString()+"_"+name), name, nil
}

// Sniff reads the head of r to detect its content type. The returned reader
// yields the complete stream, head included.
func Sniff(name string, r io.Reader) (mimeType string, body io.Reader, err error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read head: %w", err)
	}
	head = head[:n]
	return DetectMimeType(name, head), io.MultiReader(bytes.NewReader(head), r), nil
}
