package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

const (
	// UnsupportedTypeMessage is stored for extensions without an extractor.
	UnsupportedTypeMessage = "Content extraction not supported for this file type. Supported types: PDF, TXT, MD, CSV, JSON."
	// NoTextMessage is stored when a PDF opens but yields no text.
	NoTextMessage = "No extractable text was found in this PDF. It may be a scanned or image-based document; try running it through OCR before uploading."

	DefaultMaxPages  = 500
	DefaultScanPages = 200
	DefaultTimeout   = 60 * time.Second
)

// Limits bounds the cost of a single extraction.
type Limits struct {
	MaxPages  int
	ScanPages int
	Timeout   time.Duration
}

// DefaultLimits returns the production page and time limits.
func DefaultLimits() Limits {
	return Limits{MaxPages: DefaultMaxPages, ScanPages: DefaultScanPages, Timeout: DefaultTimeout}
}

func (l Limits) withDefaults() Limits {
	if l.MaxPages <= 0 {
		l.MaxPages = DefaultMaxPages
	}
	if l.ScanPages <= 0 || l.ScanPages > l.MaxPages {
		l.ScanPages = l.MaxPages
	}
	if l.Timeout <= 0 {
		l.Timeout = DefaultTimeout
	}
	return l
}

// Extractor turns raw file bytes into sanitized, bounded text.
type Extractor struct {
	Limits Limits
}

// NewExtractor returns an Extractor using limits, filling zero values with defaults.
func NewExtractor(limits Limits) *Extractor {
	return &Extractor{Limits: limits.withDefaults()}
}

// Extract dispatches on the extension of fileName. Failures that make the
// file unusable are returned as *UnprocessableError, including running past
// the time limit. The returned text never exceeds MaxContentBytes.
func (e *Extractor) Extract(ctx context.Context, fileName string, data []byte) (string, error) {
	limits := e.Limits.withDefaults()

	runCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := e.ExtractBytes(runCtx, strings.ToLower(path.Ext(fileName)), data)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", timedOut(limits.Timeout)
		}
		return res.text, res.err
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", timedOut(limits.Timeout)
	}
}

// ExtractBytes extracts text for the given extension without a time limit.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(ctx context.Context, ext string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch strings.ToLower(ext) {
	case ".pdf":
		text, err := extractPDF(ctx, data, e.Limits.withDefaults())
		if err != nil {
			return "", err
		}
		return Truncate(text), nil
	case ".txt", ".md":
		return Truncate(Sanitize(string(trimBOM(data)))), nil
	case ".csv":
		return Truncate(SanitizeLines(string(trimBOM(data)))), nil
	case ".json":
		return Truncate(extractJSON(trimBOM(data))), nil
	default:
		return UnsupportedTypeMessage, nil
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func trimBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

func timedOut(d time.Duration) *UnprocessableError {
	return unprocessable(fmt.Sprintf("extraction timed out after %s", d), context.DeadlineExceeded)
}

// extractJSON re-indents valid JSON with two spaces and sorted object keys.
// Anything that does not parse as a single JSON value is treated as text.
func extractJSON(data []byte) string {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Sanitize(string(data))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Sanitize(string(data))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return Sanitize(string(data))
	}
	return strings.TrimSpace(stripControls(buf.String()))
}
