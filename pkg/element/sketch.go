package element

import (
	"math"
	"math/rand/v2"
)

// Sketch is the cached hand-drawn rendering of a shape element. It is fully
// determined by its inputs: the same type, anchors, style and seed always
// produce the same paths.
type Sketch struct {
	Seed        int64   `json:"seed" bson:"seed"`
	Shape       Type    `json:"shape" bson:"shape"`
	Stroke      string  `json:"stroke" bson:"stroke"`
	StrokeWidth float64 `json:"strokeWidth" bson:"strokeWidth"`
	Paths       []Path  `json:"paths" bson:"paths"`
}

// ArrowHeadLength is the length of each arrow head stroke.
const ArrowHeadLength = 20

// Generator parameters for the hand-drawn look.
const (
	maxRandomnessOffset = 2.0
	roughness           = 1.0
	bowing              = 1.0
	curveStepCount      = 9.0
)

// NewSeed returns a fresh non-zero seed. Seeds stay below 2^31 so they
// survive a round trip through JavaScript numbers.
func NewSeed() int64 {
	return rand.Int64N(math.MaxInt32-1) + 1
}

// GenerateSketch builds the sketch descriptor for a shape. Non-sketched types
// yield a descriptor without paths.
func GenerateSketch(typ Type, a Anchors, stroke string, width float64, seed int64) *Sketch {
	s := &Sketch{Seed: seed, Shape: typ, Stroke: stroke, StrokeWidth: width}
	g := newRNG(seed)
	switch typ {
	case Line:
		s.Paths = []Path{g.doubleLine(a.X1, a.Y1, a.X2, a.Y2)}
	case Rectangle:
		s.Paths = []Path{g.polygon([][2]float64{
			{a.X1, a.Y1}, {a.X2, a.Y1}, {a.X2, a.Y2}, {a.X1, a.Y2},
		}, true)}
	case Circle:
		s.Paths = []Path{g.ellipse((a.X1+a.X2)/2, (a.Y1+a.Y2)/2, a.X2-a.X1, a.Y2-a.Y1)}
	case Arrow:
		x3, y3, x4, y4 := ArrowHead(a.X1, a.Y1, a.X2, a.Y2, ArrowHeadLength)
		s.Paths = []Path{g.polygon([][2]float64{
			{a.X1, a.Y1}, {a.X2, a.Y2}, {x3, y3}, {a.X2, a.Y2}, {x4, y4},
		}, false)}
	}
	return s
}

// ArrowHead returns the two free endpoints of the head strokes of an arrow
// from (x1, y1) to (x2, y2).
func ArrowHead(x1, y1, x2, y2, length float64) (x3, y3, x4, y4 float64) {
	angle := math.Atan2(y2-y1, x2-x1)
	x3 = x2 - length*math.Cos(angle-math.Pi/6)
	y3 = y2 - length*math.Sin(angle-math.Pi/6)
	x4 = x2 - length*math.Cos(angle+math.Pi/6)
	y4 = y2 - length*math.Sin(angle+math.Pi/6)
	return x3, y3, x4, y4
}

// rng is the seeded source behind every wobble of a sketch.
type rng struct {
	r *rand.Rand
}

func newRNG(seed int64) *rng {
	s := uint64(seed)
	return &rng{r: rand.New(rand.NewPCG(s, s^0xdeadbeef))}
}

func (g *rng) next() float64 {
	return g.r.Float64()
}

// jitter returns a random offset in [-v, v) scaled by the roughness gain.
func (g *rng) jitter(v, gain float64) float64 {
	return roughness * gain * (g.next()*2*v - v)
}

// doubleLine strokes a segment twice with independent wobble.
func (g *rng) doubleLine(x1, y1, x2, y2 float64) Path {
	var p Path
	g.line(&p, x1, y1, x2, y2, false)
	g.line(&p, x1, y1, x2, y2, true)
	return p
}

func (g *rng) polygon(pts [][2]float64, closed bool) Path {
	var p Path
	n := len(pts)
	last := n - 1
	if closed {
		last = n
	}
	for i := 0; i < last; i++ {
		a, b := pts[i], pts[(i+1)%n]
		g.line(&p, a[0], a[1], b[0], b[1], false)
		g.line(&p, a[0], a[1], b[0], b[1], true)
	}
	return p
}

// line appends one bowed cubic stroke. The overlay pass uses half the offset
// so the second stroke stays close to the first.
func (g *rng) line(p *Path, x1, y1, x2, y2 float64, overlay bool) {
	lengthSq := (x1-x2)*(x1-x2) + (y1-y2)*(y1-y2)
	length := math.Sqrt(lengthSq)

	var gain float64
	switch {
	case length < 200:
		gain = 1
	case length > 500:
		gain = 0.4
	default:
		gain = -0.0016668*length + 1.233334
	}

	offset := maxRandomnessOffset
	if offset*offset*100 > lengthSq {
		offset = length / 10
	}
	half := offset / 2
	diverge := 0.2 + g.next()*0.2

	midX := bowing * maxRandomnessOffset * (y2 - y1) / 200
	midY := bowing * maxRandomnessOffset * (x1 - x2) / 200
	midX = g.jitter(midX, gain)
	midY = g.jitter(midY, gain)

	o := offset
	if overlay {
		o = half
	}
	p.MoveTo(x1+g.jitter(o, gain), y1+g.jitter(o, gain))
	p.CubicTo(
		midX+x1+(x2-x1)*diverge+g.jitter(o, gain),
		midY+y1+(y2-y1)*diverge+g.jitter(o, gain),
		midX+x1+2*(x2-x1)*diverge+g.jitter(o, gain),
		midY+y1+2*(y2-y1)*diverge+g.jitter(o, gain),
		x2+g.jitter(o, gain),
		y2+g.jitter(o, gain),
	)
}

// ellipse traces two jittered passes around the ellipse centred at (cx, cy)
// and joins each pass with a Catmull-Rom curve.
func (g *rng) ellipse(cx, cy, w, h float64) Path {
	rx, ry := math.Abs(w)/2, math.Abs(h)/2
	psq := math.Sqrt(2 * math.Pi * math.Sqrt((rx*rx+ry*ry)/2))
	steps := math.Ceil(max(curveStepCount, curveStepCount/math.Sqrt(200)*psq))
	steps = max(steps, 4)
	increment := 2 * math.Pi / steps

	rx += g.jitter(rx*0.05, 1)
	ry += g.jitter(ry*0.05, 1)

	var p Path
	for pass := 0; pass < 2; pass++ {
		start := g.next() * 2 * math.Pi
		overlap := increment * (0.1 + g.next()*0.3)
		spread := 1.0
		if pass == 1 {
			spread = 0.5
		}
		var pts [][2]float64
		// lead-in point so the curve enters the first sample smoothly
		pts = append(pts, [2]float64{
			cx + 0.9*rx*math.Cos(start-increment),
			cy + 0.9*ry*math.Sin(start-increment),
		})
		for angle := start; angle < start+2*math.Pi+overlap; angle += increment {
			pts = append(pts, [2]float64{
				cx + rx*math.Cos(angle) + g.jitter(rx*0.03*spread, 1),
				cy + ry*math.Sin(angle) + g.jitter(ry*0.03*spread, 1),
			})
		}
		pts = append(pts, [2]float64{
			cx + rx*math.Cos(start+2*math.Pi+overlap*0.5),
			cy + ry*math.Sin(start+2*math.Pi+overlap*0.5),
		})
		curve(&p, pts)
	}
	return p
}

// curve appends a Catmull-Rom spline through pts[1:len-1]; the first and last
// points only shape the tangents.
func curve(p *Path, pts [][2]float64) {
	if len(pts) < 3 {
		return
	}
	p.MoveTo(pts[1][0], pts[1][1])
	for i := 1; i+2 < len(pts); i++ {
		p0, p1, p2, p3 := pts[i-1], pts[i], pts[i+1], pts[i+2]
		p.CubicTo(
			p1[0]+(p2[0]-p0[0])/6, p1[1]+(p2[1]-p0[1])/6,
			p2[0]-(p3[0]-p1[0])/6, p2[1]-(p3[1]-p1[1])/6,
			p2[0], p2[1],
		)
	}
}
