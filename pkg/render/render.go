package render

import (
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/whiteboard/pkg/element"
	wberrors "github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/observability"
)

// Surface is a 2D drawing target. Coordinates are board pixels with the
// origin at the top left.
type Surface interface {
	// Clear erases everything painted so far.
	Clear()
	// StrokePath outlines p with the given color and line width.
	StrokePath(p element.Path, color string, width float64)
	// FillPath fills the closed path p.
	FillPath(p element.Path, color string)
	// FillText draws text whose top-left corner is at (x, y).
	FillText(text string, x, y, size float64, color string)
}

// DefaultBrushSize is the outline diameter used for BRUSH elements without a size.
const DefaultBrushSize = 16

// Option configures a Renderer.
type Option func(*Renderer)

// WithStrict makes Render stop at the first element it cannot paint.
func WithStrict() Option { return func(r *Renderer) { r.strict = true } }

// WithLogger sets the logger used to report skipped elements.
func WithLogger(l *log.Logger) Option { return func(r *Renderer) { r.logger = l } }

// Renderer paints element sequences. It holds no per-frame state and may be
// shared.
type Renderer struct {
	strict bool
	logger *log.Logger
}

// New returns a renderer configured by opts.
func New(opts ...Option) *Renderer {
	r := &Renderer{logger: log.NewWithOptions(io.Discard, log.Options{})}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render clears s and paints elements in order. It returns the joined errors
// of the elements that could not be painted; in strict mode it returns the
// first such error and leaves the rest of the frame unpainted.
func (r *Renderer) Render(s Surface, elements []element.Element) error {
	start := time.Now()
	s.Clear()

	var errs []error
	for _, e := range elements {
		err := r.Paint(s, e)
		if err == nil {
			continue
		}
		observability.Render().OnElementSkipped(string(e.Type), err)
		if r.strict {
			return err
		}
		r.logger.Warn("skipping element", "id", e.ID, "type", e.Type, "err", err)
		errs = append(errs, err)
	}
	observability.Render().OnFrame(len(elements), len(errs), time.Since(start))
	return errors.Join(errs...)
}

// Paint draws a single element without clearing the surface.
func (r *Renderer) Paint(s Surface, e element.Element) error {
	switch e.Type {
	case element.Line, element.Rectangle, element.Circle, element.Arrow:
		if err := element.Validate(e); err != nil {
			return err
		}
		e = element.EnsureSketch(e)
		for _, p := range e.RoughEle.Paths {
			s.StrokePath(p, e.RoughEle.Stroke, e.RoughEle.StrokeWidth)
		}
	case element.Brush:
		size := e.Size
		if size <= 0 {
			size = DefaultBrushSize
		}
		s.FillPath(OutlinePath(StrokeOutline(e.Points, size)), e.Stroke)
	case element.Text:
		s.FillText(e.Text, e.X1, e.Y1, e.Size, e.Stroke)
	default:
		return wberrors.New(wberrors.ErrCodeUnknownElementType, "element %d has unknown type %q", e.ID, e.Type)
	}
	return nil
}
