package e2e

import (
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/models"
)

func TestBuildCorpus(t *testing.T) {
	c := BuildCorpus()
	if len(c.Documents) != len(topics) || len(c.Questions) != len(topics) {
		t.Fatalf("got %d documents and %d questions", len(c.Documents), len(c.Questions))
	}
	for _, u := range Users {
		if len(c.Owned(u)) == 0 {
			t.Errorf("user %s owns no documents", u)
		}
	}
	names := make(map[string]bool)
	for _, d := range c.Documents {
		if names[d.Name] {
			t.Errorf("duplicate document name %s", d.Name)
		}
		names[d.Name] = true
	}
}

func TestFileBytesExtractable(t *testing.T) {
	e := extract.NewExtractor()
	for _, d := range BuildCorpus().Documents {
		ft, ok := models.FileTypeFromName(d.Name)
		if !ok {
			t.Fatalf("unsupported corpus file %s", d.Name)
		}
		got, err := e.Extract(FileBytes(d.Name, d.Content), ft)
		if err != nil {
			t.Fatalf("%s: %v", d.Name, err)
		}
		if !strings.Contains(got, d.Content[:40]) {
			t.Errorf("%s: extracted text %q does not contain the document body", d.Name, got)
		}
	}
}
