// Package cli renders kotae results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	success = color.New(color.FgGreen).SprintFunc()
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes a generated answer followed by its sources.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, answer)
	}
	fmt.Fprintf(w, "\n%s\n", answer.Answer)
	if len(answer.Sources) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\n%s\n", heading("Sources"))
	for i, s := range answer.Sources {
		fmt.Fprintf(w, "  [%d] %s %s\n", i+1, s.DocumentName, faint(fmt.Sprintf("(%.4f, %s)", s.RelevanceScore, s.DocumentID)))
	}
	return nil
}

// WriteUploaded writes the summary of a newly indexed document.
func WriteUploaded(w io.Writer, summary *models.DocumentSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, summary)
	}
	fmt.Fprintf(w, "%s %s (%s, %s, %d chunks)\n", success("Indexed"), summary.OriginalName,
		summary.FileType, humanBytes(summary.FileSize), summary.ChunksCount)
	fmt.Fprintf(w, "ID: %s\n", summary.ID)
	return nil
}

// WriteDocuments writes a user's document list.
func WriteDocuments(w io.Writer, docs []*models.DocumentSummary, format OutputFormat) error {
	if format == OutputJSON {
		if docs == nil {
			docs = []*models.DocumentSummary{}
		}
		return writeJSON(w, docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents.")
		return nil
	}
	for _, d := range docs {
		fmt.Fprintf(w, "%s  %-40s %6s %4d chunks  %s\n",
			d.ID, utils.Truncate(d.OriginalName, 37), d.FileType, d.ChunksCount,
			faint(d.UploadedAt.Format("2006-01-02 15:04")))
	}
	return nil
}

// Status is what the status command reports.
type Status struct {
	Documents      int64         `json:"documents"`
	Conversations  int64         `json:"conversations"`
	EmbeddingModel string        `json:"embedding_model"`
	LLMProvider    string        `json:"llm_provider"`
	LLMModel       string        `json:"llm_model"`
	DiskUsage      storage.Usage `json:"disk_usage"`
}

// WriteStatus writes store counts and disk usage.
func WriteStatus(w io.Writer, st *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintln(w, heading("kotae status"))
	fmt.Fprintf(w, "  Documents:       %d\n", st.Documents)
	fmt.Fprintf(w, "  Conversations:   %d\n", st.Conversations)
	fmt.Fprintf(w, "  Embedding model: %s\n", st.EmbeddingModel)
	fmt.Fprintf(w, "  Chat model:      %s/%s\n", st.LLMProvider, st.LLMModel)
	fmt.Fprintf(w, "  Disk usage:      %s (db %s, uploads %s, vectors %s)\n",
		humanBytes(st.DiskUsage.Total()), humanBytes(st.DiskUsage.Database),
		humanBytes(st.DiskUsage.Uploads), humanBytes(st.DiskUsage.Vectors))
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
