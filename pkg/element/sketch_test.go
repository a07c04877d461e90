package element

import (
	"math"
	"testing"
)

func TestGenerateSketchDeterministic(t *testing.T) {
	a := Anchors{X1: 10, Y1: 20, X2: 200, Y2: 120}
	for _, typ := range []Type{Line, Rectangle, Circle, Arrow} {
		t.Run(string(typ), func(t *testing.T) {
			s1 := GenerateSketch(typ, a, "#333", 2, 1234)
			s2 := GenerateSketch(typ, a, "#333", 2, 1234)
			s3 := GenerateSketch(typ, a, "#333", 2, 4321)
			if s1.Paths[0].SVG() != s2.Paths[0].SVG() {
				t.Error("same seed produced different paths")
			}
			if s1.Paths[0].SVG() == s3.Paths[0].SVG() {
				t.Error("different seeds produced identical paths")
			}
			if s1.Shape != typ || s1.StrokeWidth != 2 || s1.Stroke != "#333" {
				t.Errorf("sketch header = %+v", s1)
			}
		})
	}
}

func TestGenerateSketchSegments(t *testing.T) {
	a := Anchors{X1: 0, Y1: 0, X2: 100, Y2: 50}
	tests := []struct {
		typ   Type
		moves int
	}{
		{Line, 2},      // one segment, stroked twice
		{Rectangle, 8}, // four edges
		{Arrow, 8},     // shaft plus two head strokes, each there and back
		{Circle, 2},    // two passes
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			s := GenerateSketch(tt.typ, a, "#000", 1, 99)
			moves := 0
			for _, seg := range s.Paths[0] {
				if seg.Op == OpMove {
					moves++
				}
			}
			if moves != tt.moves {
				t.Errorf("moves = %d, want %d", moves, tt.moves)
			}
		})
	}
}

func TestGenerateSketchStaysNearShape(t *testing.T) {
	s := GenerateSketch(Line, Anchors{X1: 0, Y1: 0, X2: 100, Y2: 0}, "#000", 1, 7)
	for _, seg := range s.Paths[0] {
		for i := 1; i < len(seg.Pts); i += 2 {
			if y := seg.Pts[i]; math.Abs(y) > 5 {
				t.Errorf("y = %v strays from the line", y)
			}
		}
	}
}

func TestArrowHead(t *testing.T) {
	x3, y3, x4, y4 := ArrowHead(0, 0, 100, 0, 20)
	if x3 >= 100 || x4 >= 100 {
		t.Errorf("head points (%v, %v) not behind the tip", x3, x4)
	}
	if math.Abs(y3+y4) > 1e-9 {
		t.Errorf("head not symmetric: y3=%v y4=%v", y3, y4)
	}
	if d := math.Hypot(100-x3, y3); math.Abs(d-20) > 1e-9 {
		t.Errorf("head length = %v, want 20", d)
	}
}

func TestPathSVG(t *testing.T) {
	var p Path
	p.MoveTo(1, 2)
	p.LineTo(3.5, 4)
	p.QuadTo(5, 6, 7, 8)
	p.Close()
	want := "M 1.00 2.00 L 3.50 4.00 Q 5.00 6.00 7.00 8.00 Z"
	if got := p.SVG(); got != want {
		t.Errorf("SVG() = %q, want %q", got, want)
	}
	if (Path{}).SVG() != "" || !(Path{}).Empty() {
		t.Error("empty path should render as empty string")
	}
}

func TestNewSeed(t *testing.T) {
	for range 100 {
		if s := NewSeed(); s <= 0 || s >= math.MaxInt32 {
			t.Fatalf("NewSeed() = %d out of range", s)
		}
	}
}
