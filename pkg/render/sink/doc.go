// Package sink provides drawing surfaces for the element renderer.
//
// # Overview
//
// Every type in this package implements [render.Surface]:
//
//   - [Recorder]: logs paint calls as text, for tests and debugging
//   - [SVG]: vector document written into a buffer
//   - [PNG]: raster image drawn with fogleman/gg
//   - [PDF]: single-page vector document drawn with gofpdf
//
// Surfaces are configured with functional options:
//
//	svg := sink.NewSVG(sink.WithSize(1280, 720))
//	if err := renderer.Render(svg, elements); err != nil {
//	    log.Warn("frame had errors", "err", err)
//	}
//	os.WriteFile("board.svg", svg.Bytes(), 0o644)
//
// Raster and PDF surfaces report encoding failures from Bytes.
//
// [render.Surface]: github.com/matzehuels/whiteboard/pkg/render#Surface
package sink
