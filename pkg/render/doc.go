// Package render paints element sequences onto drawing surfaces.
//
// # Overview
//
// A [Renderer] clears a [Surface] and paints every element in sequence order,
// so later elements appear on top of earlier ones. Repainting the same
// sequence always produces the same calls on the surface.
//
//   - LINE, RECTANGLE, CIRCLE, ARROW: every path of the element's cached
//     sketch is stroked. The sketch is never recomputed at paint time unless
//     the element arrived without one.
//   - BRUSH: the samples are turned into a pressure-weighted outline polygon
//     ([StrokeOutline]), smoothed into a closed path ([OutlinePath]) and filled.
//   - TEXT: the text is filled at (X1, Y1) with a top baseline.
//
// # Unknown elements
//
// An element of unknown type cannot be painted. By default the renderer logs
// and skips it, finishes the frame, and returns the joined per-element errors.
// [WithStrict] aborts the frame at the first bad element instead.
//
//	r := render.New(render.WithLogger(logger))
//	if err := r.Render(surface, state.Elements); err != nil {
//	    // some elements were skipped
//	}
//
// Concrete surfaces (SVG, PNG, PDF and a call recorder for tests) live in the
// [sink] subpackage.
//
// [sink]: github.com/matzehuels/whiteboard/pkg/render/sink
package render
