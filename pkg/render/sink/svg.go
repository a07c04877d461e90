package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/render"
)

// Default board dimensions for surfaces created without a size.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// TextFont is the font family requested for TEXT elements in vector output.
const TextFont = "Caveat, cursive"

// SVGOption configures an SVG surface.
type SVGOption func(*SVG)

// WithSize sets the document size in pixels.
func WithSize(w, h float64) SVGOption { return func(s *SVG) { s.width, s.height = w, h } }

// WithBackground sets the background fill. An empty color leaves it transparent.
func WithBackground(c string) SVGOption { return func(s *SVG) { s.background = c } }

// SVG is a surface that produces an SVG document.
type SVG struct {
	width, height float64
	background    string
	body          bytes.Buffer
}

// NewSVG returns an empty SVG surface.
func NewSVG(opts ...SVGOption) *SVG {
	s := &SVG{width: DefaultWidth, height: DefaultHeight, background: "#ffffff"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SVG) Clear() { s.body.Reset() }

func (s *SVG) StrokePath(p element.Path, color string, width float64) {
	if p.Empty() {
		return
	}
	fmt.Fprintf(&s.body, `  <path d="%s" fill="none" stroke="%s" stroke-width="%.2f" stroke-linecap="round" stroke-linejoin="round"/>`+"\n",
		p.SVG(), html.EscapeString(color), width)
}

func (s *SVG) FillPath(p element.Path, color string) {
	if p.Empty() {
		return
	}
	fmt.Fprintf(&s.body, `  <path d="%s" fill="%s" stroke="none"/>`+"\n", p.SVG(), html.EscapeString(color))
}

func (s *SVG) FillText(text string, x, y, size float64, color string) {
	fmt.Fprintf(&s.body, `  <text x="%.2f" y="%.2f" font-size="%.2f" font-family="%s" fill="%s" dominant-baseline="hanging">%s</text>`+"\n",
		x, y, size, TextFont, html.EscapeString(color), html.EscapeString(text))
}

// Bytes returns the complete document.
func (s *SVG) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		s.width, s.height, s.width, s.height)
	if s.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", html.EscapeString(s.background))
	}
	buf.Write(s.body.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

var _ render.Surface = (*SVG)(nil)
