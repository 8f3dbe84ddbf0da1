package extraction

import (
	"strings"
	"unicode"

	"docchat-backend/internal/shared/util"
)

// MaxContentBytes bounds every stored extraction result.
const MaxContentBytes = 50000

// Sanitize normalizes line endings, removes control characters, collapses
// horizontal whitespace to single spaces and blank-line runs to one blank
// line, and trims the result. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	s = stripControls(normalizeNewlines(s))
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = collapseSpaces(line)
	}
	return strings.TrimSpace(collapseBlankLines(strings.Join(lines, "\n")))
}

// SanitizeLines cleans each line independently and drops empty lines.
// CSV rows keep their line structure.
func SanitizeLines(s string) string {
	s = stripControls(normalizeNewlines(s))
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if cleaned := collapseSpaces(line); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return strings.Join(out, "\n")
}

// Truncate cuts s to MaxContentBytes on a rune boundary.
func Truncate(s string) string {
	return truncateTo(s, MaxContentBytes)
}

func truncateTo(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimRightFunc(util.TruncateUTF8(s, max), unicode.IsSpace)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// stripControls drops NUL, C0 controls other than tab and newline, DEL and
// invalid UTF-8 sequences.
func stripControls(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

func collapseSpaces(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	pending := false
	for _, r := range line {
		if unicode.IsSpace(r) {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteRune(r)
	}
	return b.String()
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
