// Package element defines the drawable value types shared by every part of
// the whiteboard: shapes, freehand strokes and text runs.
//
// Elements are values. Constructors and updaters return new elements and never
// modify their input, so a slice of elements can be snapshotted by copying the
// slice header (see [Clone]) and handed to the history, the renderer and the
// network layer without further copying.
//
// # Sketch descriptors
//
// LINE, RECTANGLE, CIRCLE and ARROW carry a cached [Sketch]: the hand-drawn
// vector outline produced by [GenerateSketch] from a per-element seed. The
// seed is chosen once in [Create] and reused by [UpdateGeometry], so resizing
// a shape keeps its wobble stable and a repaint never has to recompute it.
package element

import (
	"fmt"
	"hash/fnv"
	"math"
	"reflect"

	"github.com/matzehuels/whiteboard/pkg/errors"
)

// Type identifies the kind of an element.
type Type string

// Element types understood by the engine.
const (
	Line      Type = "LINE"
	Rectangle Type = "RECTANGLE"
	Circle    Type = "CIRCLE"
	Arrow     Type = "ARROW"
	Brush     Type = "BRUSH"
	Text      Type = "TEXT"
)

// Types lists every known element type in a stable order.
var Types = []Type{Line, Rectangle, Circle, Arrow, Brush, Text}

// Valid reports whether t is a known element type.
func (t Type) Valid() bool {
	switch t {
	case Line, Rectangle, Circle, Arrow, Brush, Text:
		return true
	}
	return false
}

// Sketched reports whether elements of type t are painted from a cached sketch.
func (t Type) Sketched() bool {
	switch t {
	case Line, Rectangle, Circle, Arrow:
		return true
	}
	return false
}

// DefaultPressure is recorded for pointer samples without pressure data.
const DefaultPressure = 0.5

// Sample is one pressure-weighted pointer sample of a freehand stroke.
type Sample struct {
	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	Pressure float64 `json:"pressure" bson:"pressure"`
}

// Anchors are the geometric anchors of an element. Their meaning depends on
// the type: endpoints for LINE and ARROW, opposite bounding corners for
// RECTANGLE and CIRCLE, the origin (X1, Y1) for TEXT and the sample bounding
// box for BRUSH.
type Anchors struct {
	X1, Y1, X2, Y2 float64
}

// At returns degenerate anchors collapsed onto a single point.
func At(x, y float64) Anchors {
	return Anchors{X1: x, Y1: y, X2: x, Y2: y}
}

// ToolConfig is the style applied to a newly created element.
type ToolConfig struct {
	Stroke string  // CSS color
	Size   float64 // stroke width or font size
	Text   string  // TEXT only
}

// Element is a single drawable unit.
type Element struct {
	ID       int      `json:"id" bson:"id"`
	Type     Type     `json:"type" bson:"type"`
	X1       float64  `json:"x1" bson:"x1"`
	Y1       float64  `json:"y1" bson:"y1"`
	X2       float64  `json:"x2" bson:"x2"`
	Y2       float64  `json:"y2" bson:"y2"`
	Points   []Sample `json:"points,omitempty" bson:"points,omitempty"`
	Stroke   string   `json:"stroke" bson:"stroke"`
	Size     float64  `json:"size" bson:"size"`
	Text     string   `json:"text,omitempty" bson:"text,omitempty"`
	RoughEle *Sketch  `json:"roughEle,omitempty" bson:"roughEle,omitempty"`
}

// Anchors returns the element's geometric anchors.
func (e Element) Anchors() Anchors {
	return Anchors{X1: e.X1, Y1: e.Y1, X2: e.X2, Y2: e.Y2}
}

func (e *Element) setAnchors(a Anchors) {
	e.X1, e.Y1, e.X2, e.Y2 = a.X1, a.Y1, a.X2, a.Y2
}

// Create builds a new element of the given type. Sketched types get a fresh
// seed and their sketch descriptor; BRUSH starts with a single sample at
// (X1, Y1). An unknown type fails with INVALID_ELEMENT_TYPE.
func Create(id int, typ Type, a Anchors, tc ToolConfig) (Element, error) {
	e := Element{ID: id, Type: typ, Stroke: tc.Stroke, Size: tc.Size}
	switch typ {
	case Line, Rectangle, Circle, Arrow:
		e.setAnchors(a)
		e.RoughEle = GenerateSketch(typ, a, tc.Stroke, tc.Size, NewSeed())
	case Brush:
		e.setAnchors(At(a.X1, a.Y1))
		e.Points = []Sample{{X: a.X1, Y: a.Y1, Pressure: DefaultPressure}}
	case Text:
		e.setAnchors(a)
		e.Text = tc.Text
	default:
		return Element{}, errors.New(errors.ErrCodeInvalidElementType, "cannot create element of type %q", typ)
	}
	return e, nil
}

// UpdateGeometry returns a copy of e with its anchors replaced. The sketch of
// a sketched element is regenerated from the same seed.
func UpdateGeometry(e Element, a Anchors) (Element, error) {
	switch e.Type {
	case Line, Rectangle, Circle, Arrow:
		seed := SeedFor(e)
		if e.RoughEle != nil && e.RoughEle.Seed != 0 {
			seed = e.RoughEle.Seed
		}
		e.setAnchors(a)
		e.RoughEle = GenerateSketch(e.Type, a, e.Stroke, e.Size, seed)
	case Brush, Text:
		e.setAnchors(a)
	default:
		return Element{}, errors.New(errors.ErrCodeInvalidElementType, "cannot update element of type %q", e.Type)
	}
	return e, nil
}

// AppendSample returns a copy of a BRUSH element with s appended to its
// samples and its anchors grown to the samples' bounding box. The input's
// sample slice is never written to.
func AppendSample(e Element, s Sample) Element {
	if s.Pressure == 0 {
		s.Pressure = DefaultPressure
	}
	points := make([]Sample, len(e.Points), len(e.Points)+1)
	copy(points, e.Points)
	e.Points = append(points, s)
	if len(e.Points) == 1 {
		e.setAnchors(At(s.X, s.Y))
		return e
	}
	e.X1, e.Y1 = min(e.X1, s.X), min(e.Y1, s.Y)
	e.X2, e.Y2 = max(e.X2, s.X), max(e.Y2, s.Y)
	return e
}

// EnsureSketch returns e with a sketch descriptor. A sketched element that
// arrives without one gets it generated from its own seed or, lacking that,
// from [SeedFor], so the same payload always yields the same sketch.
func EnsureSketch(e Element) Element {
	if !e.Type.Sketched() {
		return e
	}
	if e.RoughEle != nil && len(e.RoughEle.Paths) > 0 {
		return e
	}
	seed := SeedFor(e)
	if e.RoughEle != nil && e.RoughEle.Seed != 0 {
		seed = e.RoughEle.Seed
	}
	e.RoughEle = GenerateSketch(e.Type, e.Anchors(), e.Stroke, e.Size, seed)
	return e
}

// Freeze returns a copy of elements in which every sketched element carries
// its sketch descriptor.
func Freeze(elements []Element) []Element {
	out := make([]Element, len(elements))
	for i, e := range elements {
		out[i] = EnsureSketch(e)
	}
	return out
}

// SeedFor derives a stable seed from an element's identity, geometry and
// style. It stands in for the seed of payloads that never had one.
func SeedFor(e Element) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%g|%g|%g|%g|%s|%g", e.ID, e.Type, e.X1, e.Y1, e.X2, e.Y2, e.Stroke, e.Size)
	return int64(h.Sum64()%(math.MaxInt32-1)) + 1
}

// Validate checks that e carries exactly the fields its type requires.
func Validate(e Element) error {
	if !e.Type.Valid() {
		return errors.New(errors.ErrCodeInvalidElementType, "element %d has unknown type %q", e.ID, e.Type)
	}
	if e.Type != Brush && len(e.Points) > 0 {
		return errors.New(errors.ErrCodeInvalidElement, "element %d: points are only valid on %s", e.ID, Brush)
	}
	if e.Type != Text && e.Text != "" {
		return errors.New(errors.ErrCodeInvalidElement, "element %d: text is only valid on %s", e.ID, Text)
	}
	if !e.Type.Sketched() && e.RoughEle != nil {
		return errors.New(errors.ErrCodeInvalidElement, "element %d: %s cannot carry a sketch", e.ID, e.Type)
	}
	if e.RoughEle != nil {
		for _, p := range e.RoughEle.Paths {
			if err := p.Validate(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidElement, err, "element %d: malformed sketch", e.ID)
			}
		}
	}
	if e.Size < 0 {
		return errors.New(errors.ErrCodeInvalidElement, "element %d: negative size %v", e.ID, e.Size)
	}
	return nil
}

// Clone returns a copy of the element sequence. Elements are values, so the
// copy shares their immutable sample and sketch data.
func Clone(elements []Element) []Element {
	out := make([]Element, len(elements))
	copy(out, elements)
	return out
}

// Equal reports whether two element sequences are equal by value.
// A nil and an empty sequence are equal.
func Equal(a, b []Element) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// MaxID returns the largest element id in the sequence, or -1 if it is empty.
func MaxID(elements []Element) int {
	id := -1
	for _, e := range elements {
		id = max(id, e.ID)
	}
	return id
}
