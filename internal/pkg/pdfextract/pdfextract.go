package pdfextract

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	spaceRun      = regexp.MustCompile(`[ \t]+`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
	splitDecimal  = regexp.MustCompile(`(\d+)\s*\.\s*(\d+)`)
	splitYearSpan = regexp.MustCompile(`(\d{4})\s*[-–]\s*(\d{4})`)
)

// ExtractText reads the entire content of r and extracts plain text from the PDF.
// Returns empty string and nil error if the PDF has no extractable text.
func ExtractText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", nil
	}
	readerAt := bytes.NewReader(b)
	pdfReader, err := pdf.NewReader(readerAt, int64(len(b)))
	if err != nil {
		return "", err
	}
	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", err
	}
	return CleanText(string(out)), nil
}

// CleanText normalizes whitespace in extracted PDF text and repairs number
// formatting that page extraction tends to split, such as admission score
// decimals ("24. 0") and year ranges ("2023 - 2024").
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRun.ReplaceAllString(text, " ")
	text = splitDecimal.ReplaceAllString(text, "$1.$2")
	text = splitYearSpan.ReplaceAllString(text, "$1-$2")
	text = blankLines.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
