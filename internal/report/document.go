package report

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/fakeyudi/clicktrail/internal/session"
)

// Layout holds the fixed page geometry, in millimetres.
type Layout struct {
	ImageX, ImageY, ImageW, ImageH float64
	TextX, TextY                   float64
	LineHeight                     float64
	WrapWidth                      float64
	FontSize                       float64 // points
}

// DefaultLayout is an A4 portrait page with the screenshot on top and the
// metadata fields below it.
func DefaultLayout() Layout {
	return Layout{
		ImageX: 10, ImageY: 10, ImageW: 190, ImageH: 100,
		TextX: 10, TextY: 120,
		LineHeight: 10,
		WrapWidth:  180,
		FontSize:   16,
	}
}

// Document is the paginated document builder the report is laid out on.
type Document interface {
	AddPage()
	Image(png []byte, x, y, w, h float64) error
	Wrap(text string, width float64) []string
	Text(lines []string, x, y, lineHeight float64)
	Bytes() ([]byte, error)
}

// Paginate lays out one page per entry: screenshot, page path, event type,
// then the wrapped element description, label and content.
func Paginate(doc Document, l Layout, entries []session.Entry) {
	for _, e := range entries {
		doc.AddPage()
		if err := doc.Image(e.Image, l.ImageX, l.ImageY, l.ImageW, l.ImageH); err != nil {
			doc.Text([]string{"[screenshot unavailable]"}, l.ImageX, l.ImageY+l.LineHeight, l.LineHeight)
		}

		y := l.TextY
		y = field(doc, l, []string{"Page Path: " + e.PagePath}, y)
		y = field(doc, l, []string{"Event Type: " + string(e.EventKind)}, y)
		y = field(doc, l, doc.Wrap("Element Info: "+e.ElementDescription, l.WrapWidth), y)
		y = field(doc, l, doc.Wrap("Label: "+e.Label, l.WrapWidth), y)
		field(doc, l, doc.Wrap("Content: "+e.Content, l.WrapWidth), y)
	}
}

// field writes lines at y and returns the offset for the next field.
func field(doc Document, l Layout, lines []string, y float64) float64 {
	doc.Text(lines, l.TextX, y, l.LineHeight)
	return y + float64(len(lines))*l.LineHeight
}

// pdfDocument is a Document backed by fpdf using the core Helvetica font.
type pdfDocument struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	images int
}

// NewPDFDocument returns an empty A4 portrait PDF document.
func NewPDFDocument(l Layout) Document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", l.FontSize)
	return &pdfDocument{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (d *pdfDocument) AddPage() { d.pdf.AddPage() }

func (d *pdfDocument) Image(data []byte, x, y, w, h float64) error {
	// fpdf errors are sticky; reject bad payloads before they poison the document.
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("decode screenshot: %w", err)
	}
	d.images++
	name := fmt.Sprintf("shot-%d", d.images)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return d.pdf.Error()
}

func (d *pdfDocument) Wrap(text string, width float64) []string {
	return d.pdf.SplitText(latin1(text), width)
}

func (d *pdfDocument) Text(lines []string, x, y, lineHeight float64) {
	for i, line := range lines {
		d.pdf.Text(x, y+float64(i)*lineHeight, d.tr(latin1(line)))
	}
}

func (d *pdfDocument) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// latin1 replaces runes the core fonts cannot measure or encode.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return '?'
		}
		return r
	}, s)
}
