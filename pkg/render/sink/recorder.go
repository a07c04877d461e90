package sink

import (
	"fmt"
	"strings"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/render"
)

// Recorder is a surface that records paint calls instead of drawing.
// Clear discards the calls recorded so far, so after a Render the log holds
// exactly one frame.
type Recorder struct {
	calls []string
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Clear() {
	r.calls = []string{"clear"}
}

func (r *Recorder) StrokePath(p element.Path, color string, width float64) {
	r.calls = append(r.calls, fmt.Sprintf("stroke %s %.2f [%s]", color, width, p.SVG()))
}

func (r *Recorder) FillPath(p element.Path, color string) {
	r.calls = append(r.calls, fmt.Sprintf("fill %s [%s]", color, p.SVG()))
}

func (r *Recorder) FillText(text string, x, y, size float64, color string) {
	r.calls = append(r.calls, fmt.Sprintf("text %s %.2f %q at %.2f,%.2f", color, size, text, x, y))
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []string {
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// String returns the recorded calls, one per line.
func (r *Recorder) String() string {
	return strings.Join(r.calls, "\n")
}

var _ render.Surface = (*Recorder)(nil)
