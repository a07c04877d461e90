package element

import "math"

// HitTest reports whether the point (x, y) lies on e within tol. Shapes are hit
// on their outline, strokes along their samples and text inside its box.
func HitTest(e Element, x, y, tol float64) bool {
	switch e.Type {
	case Line, Arrow:
		return segmentDistance(x, y, e.X1, e.Y1, e.X2, e.Y2) <= tol
	case Rectangle:
		return segmentDistance(x, y, e.X1, e.Y1, e.X2, e.Y1) <= tol ||
			segmentDistance(x, y, e.X2, e.Y1, e.X2, e.Y2) <= tol ||
			segmentDistance(x, y, e.X2, e.Y2, e.X1, e.Y2) <= tol ||
			segmentDistance(x, y, e.X1, e.Y2, e.X1, e.Y1) <= tol
	case Circle:
		return nearEllipse(e, x, y, tol)
	case Brush:
		reach := tol + e.Size/2
		switch len(e.Points) {
		case 0:
			return false
		case 1:
			return math.Hypot(x-e.Points[0].X, y-e.Points[0].Y) <= reach
		}
		for i := 1; i < len(e.Points); i++ {
			a, b := e.Points[i-1], e.Points[i]
			if segmentDistance(x, y, a.X, a.Y, b.X, b.Y) <= reach {
				return true
			}
		}
	case Text:
		w, h := TextBox(e)
		return x >= e.X1-tol && x <= e.X1+w+tol && y >= e.Y1-tol && y <= e.Y1+h+tol
	}
	return false
}

// TextBox estimates the width and height of a TEXT element from its font size.
func TextBox(e Element) (w, h float64) {
	n := 0
	for range e.Text {
		n++
	}
	return float64(n) * e.Size * 0.5, e.Size
}

func nearEllipse(e Element, x, y, tol float64) bool {
	cx, cy := (e.X1+e.X2)/2, (e.Y1+e.Y2)/2
	rx, ry := math.Abs(e.X2-e.X1)/2, math.Abs(e.Y2-e.Y1)/2
	if rx == 0 || ry == 0 {
		return segmentDistance(x, y, e.X1, e.Y1, e.X2, e.Y2) <= tol
	}
	nx, ny := (x-cx)/rx, (y-cy)/ry
	d := math.Sqrt(nx*nx + ny*ny)
	return math.Abs(d-1)*min(rx, ry) <= tol
}

func segmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / lenSq
	t = max(0, min(1, t))
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}
