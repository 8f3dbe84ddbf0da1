package extraction

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "nul and blank lines", in: "hello\x00world\n\n\n\nbye", want: "helloworld\n\nbye"},
		{name: "crlf", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "controls", in: "a\x01b\x1fc\x7fd\x0be", want: "abcde"},
		{name: "horizontal whitespace", in: "  a \t\t b  c  ", want: "a b c"},
		{name: "spaces around newlines", in: "a   \n   b", want: "a\nb"},
		{name: "whitespace only lines", in: "a\n \t \n\n \nb", want: "a\n\nb"},
		{name: "invalid utf8", in: "ok\xff\xfe!", want: "ok!"},
		{name: "empty", in: " \n\t\n ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"hello\x00world\n\n\n\nbye",
		"\r\n\r\n\r\nx\t\ty z\u0085w",
		"  lead\n\n\n\n\ttrail  \n",
		"mixed \x7f\x00 \n \n \n \n end",
		strings.Repeat("a \n\n\n", 50),
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
		if hasControl(once) {
			t.Fatalf("control characters left in %q", once)
		}
	}
}

func TestSanitizeLinesKeepsRows(t *testing.T) {
	got := SanitizeLines("name,  city\r\n\r\nAda,\tLondon\n\x00Bob , Paris\n")
	want := "name, city\nAda, London\nBob , Paris"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestTruncateRespectsRuneBoundary(t *testing.T) {
	s := strings.Repeat("é", MaxContentBytes)
	got := Truncate(s)
	if len(got) > MaxContentBytes {
		t.Fatalf("expected at most %d bytes, got %d", MaxContentBytes, len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a rune")
	}
	if short := Truncate("short"); short != "short" {
		t.Fatalf("unexpected truncation of short input: %q", short)
	}
}

func hasControl(s string) bool {
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7f {
			return true
		}
	}
	return false
}
