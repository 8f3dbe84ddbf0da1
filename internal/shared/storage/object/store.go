package object

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
)

// ErrNotFound is returned when a storage key has no object.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving, retrieving and removing binary objects.
type ObjectStore interface {
	Save(ctx context.Context, userId string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

var extensionMimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
	".csv":  "text/csv; charset=utf-8",
	".json": "application/json",
}

// DetectMimeType prefers the extension for the document types the service
// extracts and falls back to content sniffing.
func DetectMimeType(fileName string, sniff []byte) string {
	if mt, ok := extensionMimeTypes[strings.ToLower(path.Ext(fileName))]; ok {
		return mt
	}
	return http.DetectContentType(sniff)
}
