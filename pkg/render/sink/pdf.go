package sink

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/render"
)

// PDFOption configures a PDF surface.
type PDFOption func(*PDF)

// WithPDFSize sets the page size in points. One board pixel maps to one point.
func WithPDFSize(w, h float64) PDFOption { return func(p *PDF) { p.width, p.height = w, h } }

// PDF is a single-page vector surface.
type PDF struct {
	width, height float64
	doc           *gofpdf.Fpdf
	tr            func(string) string
}

// NewPDF returns a blank page.
func NewPDF(opts ...PDFOption) *PDF {
	p := &PDF{width: DefaultWidth, height: DefaultHeight}
	for _, opt := range opts {
		opt(p)
	}
	p.Clear()
	return p
}

// Clear starts a fresh document; PDF pages cannot be erased in place.
func (p *PDF) Clear() {
	orientation := "P"
	if p.width > p.height {
		orientation = "L"
	}
	p.doc = gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: min(p.width, p.height), Ht: max(p.width, p.height)},
	})
	p.doc.SetMargins(0, 0, 0)
	p.doc.SetAutoPageBreak(false, 0)
	p.doc.AddPage()
	p.doc.SetLineCapStyle("round")
	p.doc.SetLineJoinStyle("round")
	p.tr = p.doc.UnicodeTranslatorFromDescriptor("")
}

func (p *PDF) StrokePath(path element.Path, c string, width float64) {
	if path.Empty() {
		return
	}
	col := render.ParseColor(c)
	p.doc.SetDrawColor(int(col.R), int(col.G), int(col.B))
	p.doc.SetLineWidth(width)
	p.trace(path)
	p.doc.DrawPath("D")
}

func (p *PDF) FillPath(path element.Path, c string) {
	if path.Empty() {
		return
	}
	col := render.ParseColor(c)
	p.doc.SetFillColor(int(col.R), int(col.G), int(col.B))
	p.trace(path)
	p.doc.DrawPath("F")
}

func (p *PDF) FillText(text string, x, y, size float64, c string) {
	if size <= 0 {
		size = 16
	}
	col := render.ParseColor(c)
	p.doc.SetFont("Helvetica", "", size)
	p.doc.SetTextColor(int(col.R), int(col.G), int(col.B))
	// Text positions the baseline; shift down by the ascent for a top anchor.
	p.doc.Text(x, y+size*0.78, p.tr(text))
}

// Bytes writes the document.
func (p *PDF) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *PDF) trace(path element.Path) {
	for _, s := range path {
		if !s.Valid() {
			continue
		}
		switch s.Op {
		case element.OpMove:
			p.doc.MoveTo(s.Pts[0], s.Pts[1])
		case element.OpLine:
			p.doc.LineTo(s.Pts[0], s.Pts[1])
		case element.OpQuad:
			p.doc.CurveTo(s.Pts[0], s.Pts[1], s.Pts[2], s.Pts[3])
		case element.OpCubic:
			p.doc.CurveBezierCubicTo(s.Pts[0], s.Pts[1], s.Pts[2], s.Pts[3], s.Pts[4], s.Pts[5])
		case element.OpClose:
			p.doc.ClosePath()
		}
	}
}

var _ render.Surface = (*PDF)(nil)
