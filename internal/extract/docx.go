package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	docxDefaultBody  = "word/document.xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// extractDOCX returns one line per non-empty paragraph of the main document part. Runs inside a
// paragraph are joined without separators since Word splits words across runs freely.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("not a DOCX archive: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	bodyPath := docxDefaultBody
	if ct, ok := files["[Content_Types].xml"]; ok {
		if p := mainPartName(ct); p != "" {
			bodyPath = p
		}
	}
	body, ok := files[bodyPath]
	if !ok {
		return "", fmt.Errorf("DOCX has no %s", bodyPath)
	}
	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", bodyPath, err)
	}
	defer rc.Close()
	return docxParagraphs(rc)
}

// mainPartName reads the main document location from the package manifest.
func mainPartName(f *zip.File) string {
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()
	var types contentTypes
	if err := xml.NewDecoder(rc).Decode(&types); err != nil {
		return ""
	}
	for _, o := range types.Overrides {
		if o.ContentType == docxMainType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return ""
}

func isWordElement(n xml.Name, local string) bool {
	return n.Local == local && (n.Space == wordprocessingNS || n.Space == "w")
}

func docxParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var (
		paragraphs []string
		para       strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if isWordElement(t.Name, "t") {
				inText = true
			}
		case xml.EndElement:
			switch {
			case isWordElement(t.Name, "t"):
				inText = false
			case isWordElement(t.Name, "p"):
				if p := strings.TrimSpace(para.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
