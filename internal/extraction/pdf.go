package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	reasonEncrypted = "PDF is encrypted or password-protected"

	// lineEpsilon is the vertical distance, in text space units, beyond
	// which two glyphs are considered to be on different lines.
	lineEpsilon = 2.0
	// wordGapRatio is the horizontal gap, relative to the font size, that
	// still joins two glyphs into the same word.
	wordGapRatio = 0.15
)

func extractPDF(ctx context.Context, data []byte, limits Limits) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = unprocessable(fmt.Sprintf("could not parse PDF: %v", r), nil)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if isEncryptionError(err) {
			return "", unprocessable(reasonEncrypted, err)
		}
		return "", unprocessable("could not open PDF: "+err.Error(), err)
	}
	if reader.Trailer().Key("Encrypt").Kind() != pdf.Null {
		return "", unprocessable(reasonEncrypted, nil)
	}

	total := reader.NumPage()
	if total > limits.MaxPages {
		return "", unprocessable(fmt.Sprintf("PDF has %d pages, which exceeds the limit of %d", total, limits.MaxPages), nil)
	}
	scan := total
	if limits.ScanPages > 0 && scan > limits.ScanPages {
		scan = limits.ScanPages
	}

	pages := make([]string, 0, scan)
	for i := 1; i <= scan; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		if pageText := Sanitize(readPage(page)); pageText != "" {
			pages = append(pages, pageText)
		}
	}

	content := strings.Join(pages, "\n\n")
	if content == "" {
		content = NoTextMessage
	}
	if scan < total {
		marker := fmt.Sprintf("\n\n[Truncated: scanned %d of %d pages]", scan, total)
		content = truncateTo(content, MaxContentBytes-len(marker)) + marker
	}
	return content, nil
}

func isEncryptionError(err error) bool {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "password")
}

// readPage rebuilds the lines of a page from positioned glyphs. Glyphs are
// grouped into fragments while they sit on the same baseline with small
// gaps; whitespace glyphs end a fragment. A fragment starts a new line when
// its baseline moves or it starts left of the previous fragment.
func readPage(page pdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = plainTextFallback(page)
		}
	}()

	var (
		out      strings.Builder
		frag     strings.Builder
		started  bool
		fragX    float64
		fragY    float64
		lastX    float64
		lastEnd  float64
		prevX    float64
		prevY    float64
		wroteAny bool
	)

	flush := func() {
		if frag.Len() == 0 {
			return
		}
		if wroteAny {
			if math.Abs(fragY-prevY) > lineEpsilon || fragX < prevX-lineEpsilon {
				out.WriteByte('\n')
			} else {
				out.WriteByte(' ')
			}
		}
		out.WriteString(frag.String())
		wroteAny = true
		prevX, prevY = fragX, fragY
		frag.Reset()
		started = false
	}

	for _, glyph := range page.Content().Text {
		if strings.TrimSpace(glyph.S) == "" {
			flush()
			continue
		}
		if started {
			gap := glyph.X - lastEnd
			sameLine := math.Abs(glyph.Y-fragY) <= lineEpsilon
			forward := glyph.X >= lastX-lineEpsilon
			if sameLine && forward && gap <= wordGapRatio*math.Max(glyph.FontSize, 1) {
				frag.WriteString(glyph.S)
				lastX, lastEnd = glyph.X, glyph.X+glyph.W
				continue
			}
			flush()
		}
		frag.WriteString(glyph.S)
		started = true
		fragX, fragY = glyph.X, glyph.Y
		lastX, lastEnd = glyph.X, glyph.X+glyph.W
	}
	flush()

	return out.String()
}

func plainTextFallback(page pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	plain, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return plain
}
