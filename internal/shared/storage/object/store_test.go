package object

import (
	"io"
	"path"
	"strings"
	"testing"

	"docchat-backend/internal/shared/util"
)

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		sniff    []byte
		want     string
	}{
		{name: "pdf by extension", fileName: "report.PDF", sniff: []byte("junk"), want: "application/pdf"},
		{name: "markdown", fileName: "notes.md", sniff: []byte("# hi"), want: "text/markdown; charset=utf-8"},
		{name: "csv", fileName: "data.csv", sniff: []byte("a,b"), want: "text/csv; charset=utf-8"},
		{name: "sniffed pdf", fileName: "blob.bin", sniff: []byte("%PDF-1.4\n"), want: "application/pdf"},
		{name: "sniffed text", fileName: "readme", sniff: []byte("hello"), want: "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMimeType(tt.fileName, tt.sniff); got != tt.want {
				t.Fatalf("DetectMimeType(%q) = %q, want %q", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestNewKey(t *testing.T) {
	key, name, err := NewKey("user-1", "Q3/report.pdf")
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	dir, file := path.Split(key)
	if dir != util.HashUserKey("user-1")+"/" {
		t.Fatalf("unexpected key dir %q", dir)
	}
	if !strings.HasSuffix(file, "_"+name) || strings.Contains(name, "/") {
		t.Fatalf("unexpected key %q for name %q", key, name)
	}
	other, _, _ := NewKey("user-1", "Q3/report.pdf")
	if other == key {
		t.Fatal("expected unique keys")
	}
}

func TestSniffReplaysHead(t *testing.T) {
	payload := strings.Repeat("a,b\n", 300)
	mimeType, body, err := Sniff("rows.csv", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if mimeType != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected mime type %q", mimeType)
	}
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(got) != payload {
		t.Fatalf("body lost bytes: got %d, want %d", len(got), len(payload))
	}
}
