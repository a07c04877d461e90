package sink

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/render"
)

// PNGOption configures a PNG surface.
type PNGOption func(*PNG)

// WithPNGSize sets the board size in pixels before scaling.
func WithPNGSize(w, h int) PNGOption { return func(p *PNG) { p.width, p.height = w, h } }

// WithScale sets the output scale factor (default 1).
func WithScale(s float64) PNGOption { return func(p *PNG) { p.scale = s } }

// WithPNGBackground sets the background color.
func WithPNGBackground(c string) PNGOption { return func(p *PNG) { p.background = c } }

// PNG is a raster surface.
type PNG struct {
	width, height int
	scale         float64
	background    string

	dc    *gg.Context
	font  *truetype.Font
	faces map[float64]font.Face
}

// NewPNG returns a cleared raster surface.
func NewPNG(opts ...PNGOption) (*PNG, error) {
	p := &PNG{width: DefaultWidth, height: DefaultHeight, scale: 1, background: "#ffffff"}
	for _, opt := range opts {
		opt(p)
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	p.font = f
	p.faces = make(map[float64]font.Face)
	p.dc = gg.NewContext(int(float64(p.width)*p.scale), int(float64(p.height)*p.scale))
	p.dc.Scale(p.scale, p.scale)
	p.Clear()
	return p, nil
}

func (p *PNG) Clear() {
	p.dc.ClearPath()
	if p.background == "" {
		p.dc.SetColor(color.Transparent)
	} else {
		p.dc.SetColor(render.ParseColor(p.background))
	}
	p.dc.Clear()
}

func (p *PNG) StrokePath(path element.Path, c string, width float64) {
	if path.Empty() {
		return
	}
	p.trace(path)
	p.dc.SetLineWidth(width)
	p.dc.SetLineCap(gg.LineCapRound)
	p.dc.SetLineJoin(gg.LineJoinRound)
	p.dc.SetColor(render.ParseColor(c))
	p.dc.Stroke()
}

func (p *PNG) FillPath(path element.Path, c string) {
	if path.Empty() {
		return
	}
	p.trace(path)
	p.dc.SetColor(render.ParseColor(c))
	p.dc.Fill()
}

func (p *PNG) FillText(text string, x, y, size float64, c string) {
	p.dc.SetFontFace(p.face(size))
	p.dc.SetColor(render.ParseColor(c))
	p.dc.DrawStringAnchored(text, x, y, 0, 1)
}

// Bytes encodes the current image.
func (p *PNG) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *PNG) trace(path element.Path) {
	for _, s := range path {
		if !s.Valid() {
			continue
		}
		switch s.Op {
		case element.OpMove:
			p.dc.MoveTo(s.Pts[0], s.Pts[1])
		case element.OpLine:
			p.dc.LineTo(s.Pts[0], s.Pts[1])
		case element.OpQuad:
			p.dc.QuadraticTo(s.Pts[0], s.Pts[1], s.Pts[2], s.Pts[3])
		case element.OpCubic:
			p.dc.CubicTo(s.Pts[0], s.Pts[1], s.Pts[2], s.Pts[3], s.Pts[4], s.Pts[5])
		case element.OpClose:
			p.dc.ClosePath()
		}
	}
}

func (p *PNG) face(size float64) font.Face {
	if size <= 0 {
		size = 16
	}
	if f, ok := p.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(p.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	p.faces[size] = f
	return f
}

var _ render.Surface = (*PNG)(nil)
