package e2e

import (
	"archive/zip"
	"bytes"
	"html"
	"path/filepath"
)

// FileBytes returns upload bytes for name: a minimal .docx archive or the raw text otherwise.
func FileBytes(name, text string) []byte {
	if filepath.Ext(name) == ".docx" {
		return minimalDocx(text)
	}
	return []byte(text)
}

func minimalDocx(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` +
		html.EscapeString(text) + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}
