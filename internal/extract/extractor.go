// Package extract provides text extraction from uploaded documents and text normalization.
package extract

import (
	"fmt"
	"os"

	"github.com/hyperjump/kotae/internal/models"
)

// Extractor extracts plain text from document bytes.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the raw text of content interpreted as fileType.
// For plain text, content is returned as-is (UTF-8 validated). PDF and DOCX are parsed;
// parser failures are returned wrapped in models.ErrExtractionFailed.
// Any other file type returns models.ErrUnsupportedFormat.
// The result is not normalized; see Normalize.
func (e *Extractor) Extract(content []byte, fileType models.FileType) (string, error) {
	switch fileType {
	case models.FileTypeText:
		return extractPlain(content)
	case models.FileTypePDF:
		text, err := extractPDF(content)
		if err != nil {
			return "", fmt.Errorf("%w: %w", models.ErrExtractionFailed, err)
		}
		return text, nil
	case models.FileTypeDOCX:
		text, err := extractDOCX(content)
		if err != nil {
			return "", fmt.Errorf("%w: %w", models.ErrExtractionFailed, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, fileType)
	}
}

// ExtractFile reads the file at path and extracts it, detecting the type from the extension.
func (e *Extractor) ExtractFile(path string) (string, error) {
	fileType, ok := models.FileTypeFromName(path)
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, fileType)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.Extract(content, fileType)
}
