package extract

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// MinTextLength is the minimum length of normalized text worth indexing.
const MinTextLength = 10

// CleanText collapses every whitespace run, newlines included, into a single space and trims
// the result.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Normalize cleans raw extracted text and rejects results shorter than MinTextLength
// with models.ErrEmptyDocument.
func Normalize(raw string) (string, error) {
	text := CleanText(raw)
	if n := len([]rune(text)); n < MinTextLength {
		return "", fmt.Errorf("%w: %d characters after normalization", models.ErrEmptyDocument, n)
	}
	return text, nil
}
