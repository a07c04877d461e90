package element

import (
	"strconv"
	"strings"

	"github.com/matzehuels/whiteboard/pkg/errors"
)

// Path commands.
const (
	OpMove  = "M"
	OpLine  = "L"
	OpQuad  = "Q"
	OpCubic = "C"
	OpClose = "Z"
)

// Segment is one path command with its absolute coordinates:
// M and L take one point, Q two, C three, Z none.
type Segment struct {
	Op  string    `json:"op" bson:"op"`
	Pts []float64 `json:"pts,omitempty" bson:"pts,omitempty"`
}

// arity is the number of coordinates each command takes.
var arity = map[string]int{OpMove: 2, OpLine: 2, OpQuad: 4, OpCubic: 6, OpClose: 0}

// Valid reports whether s is a known command carrying exactly the
// coordinates it takes.
func (s Segment) Valid() bool {
	n, ok := arity[s.Op]
	return ok && len(s.Pts) == n
}

// Path is a vector outline made of segments. A path may contain several
// sub-paths, each starting with a move.
type Path []Segment

// MoveTo starts a sub-path. LineTo, QuadTo, CubicTo and Close extend it.
func (p *Path) MoveTo(x, y float64) { *p = append(*p, Segment{Op: OpMove, Pts: []float64{x, y}}) }
func (p *Path) LineTo(x, y float64) { *p = append(*p, Segment{Op: OpLine, Pts: []float64{x, y}}) }
func (p *Path) QuadTo(cx, cy, x, y float64) {
	*p = append(*p, Segment{Op: OpQuad, Pts: []float64{cx, cy, x, y}})
}
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	*p = append(*p, Segment{Op: OpCubic, Pts: []float64{c1x, c1y, c2x, c2y, x, y}})
}
func (p *Path) Close() { *p = append(*p, Segment{Op: OpClose}) }

// Empty reports whether the path draws nothing.
func (p Path) Empty() bool { return len(p) == 0 }

// Validate checks every segment of p. Malformed segments fail with
// INVALID_ELEMENT.
func (p Path) Validate() error {
	for i, s := range p {
		if !s.Valid() {
			return errors.New(errors.ErrCodeInvalidElement, "segment %d: %q with %d coordinates", i, s.Op, len(s.Pts))
		}
	}
	return nil
}

// SVG returns the path in SVG path-data syntax with two decimals.
func (p Path) SVG() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.Op)
		for _, v := range s.Pts {
			b.WriteByte(' ')
			b.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
		}
	}
	return b.String()
}
