package render

import "github.com/matzehuels/whiteboard/pkg/element"

// Extent returns the width and height needed to show every element with the
// given margin, measured from the board origin.
func Extent(elements []element.Element, margin float64) (w, h float64) {
	for _, e := range elements {
		x2, y2 := max(e.X1, e.X2), max(e.Y1, e.Y2)
		switch e.Type {
		case element.Text:
			tw, th := element.TextBox(e)
			x2, y2 = e.X1+tw, e.Y1+th
		case element.Brush:
			for _, p := range e.Points {
				x2, y2 = max(x2, p.X+e.Size), max(y2, p.Y+e.Size)
			}
		case element.Arrow:
			x3, y3, x4, y4 := element.ArrowHead(e.X1, e.Y1, e.X2, e.Y2, element.ArrowHeadLength)
			x2, y2 = max(x2, x3, x4), max(y2, y3, y4)
		}
		w, h = max(w, x2), max(h, y2)
	}
	return w + margin, h + margin
}
