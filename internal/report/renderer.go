package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fakeyudi/clicktrail/internal/capture"
)

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(rep *Report) ([]byte, error)
	Ext() string
}

// ErrUnknownFormat is returned by RendererFor for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// RendererFor returns the renderer for a format name: pdf, json or markdown.
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "pdf":
		return &PDFRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	}
	return nil, fmt.Errorf("%w %q (want pdf, json or markdown)", ErrUnknownFormat, format)
}

// PDFRenderer lays the report out on a paginated PDF. A report without
// entries has no pages, so Render returns ErrNothingToExport for it.
type PDFRenderer struct {
	Layout      Layout                // DefaultLayout when zero
	NewDocument func(Layout) Document // NewPDFDocument when nil
}

func (r *PDFRenderer) Ext() string { return ".pdf" }

func (r *PDFRenderer) Render(rep *Report) ([]byte, error) {
	if len(rep.Entries) == 0 {
		return nil, ErrNothingToExport
	}
	l := r.Layout
	if l == (Layout{}) {
		l = DefaultLayout()
	}
	newDoc := r.NewDocument
	if newDoc == nil {
		newDoc = NewPDFDocument
	}
	doc := newDoc(l)
	Paginate(doc, l, rep.Entries)
	return doc.Bytes()
}

// JSONRenderer renders a Report as indented JSON. Screenshots are embedded
// as base64.
type JSONRenderer struct{}

func (r *JSONRenderer) Ext() string { return ".json" }

func (r *JSONRenderer) Render(rep *Report) ([]byte, error) {
	return json.MarshalIndent(rep, "", "  ")
}

// MarkdownRenderer renders a Report as Markdown with inline data URL images.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Ext() string { return ".md" }

func (r *MarkdownRenderer) Render(rep *Report) ([]byte, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Interaction report: %s\n\n", rep.Session.StartPath)

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Session: %s\n", rep.Session.ID)
	fmt.Fprintf(&sb, "- Started: %s\n", rep.Session.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if rep.Session.StoppedAt != nil {
		fmt.Fprintf(&sb, "- Stopped: %s\n", rep.Session.StoppedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&sb, "- Interactions: %d\n\n", len(rep.Entries))

	if len(rep.Entries) == 0 {
		sb.WriteString("_No interactions recorded._\n")
	}
	for i, e := range rep.Entries {
		fmt.Fprintf(&sb, "## %d. %s on %s\n\n", i+1, e.EventKind.Label(), e.PagePath)
		fmt.Fprintf(&sb, "![screenshot %d](%s)\n\n", i+1, capture.DataURL(e.Image))
		fmt.Fprintf(&sb, "- Page Path: %s\n", e.PagePath)
		fmt.Fprintf(&sb, "- Event Type: %s\n", e.EventKind)
		fmt.Fprintf(&sb, "- Element Info: %s\n", strings.ReplaceAll(strings.TrimRight(e.ElementDescription, "\n"), "\n", "; "))
		fmt.Fprintf(&sb, "- Label: %s\n", oneLine(e.Label))
		fmt.Fprintf(&sb, "- Content: %s\n\n", oneLine(e.Content))
	}

	return []byte(sb.String()), nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
