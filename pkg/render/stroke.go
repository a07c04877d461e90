package render

import (
	"math"

	"github.com/matzehuels/whiteboard/pkg/element"
)

// Outline shaping parameters.
const (
	thinning   = 0.5
	streamline = 0.5
	capSteps   = 8
)

// StrokeOutline turns pressure-weighted samples into the outline polygon of a
// freehand stroke of the given diameter. Higher pressure widens the stroke.
// The polygon runs down the left side, around the end cap, back up the right
// side and around the start cap. An empty sample list yields no points.
func StrokeOutline(points []element.Sample, size float64) [][2]float64 {
	if len(points) == 0 {
		return nil
	}
	pts := smooth(points)

	if len(pts) == 1 {
		p := pts[0]
		return circle(p.X, p.Y, radius(size, p.Pressure))
	}

	left := make([][2]float64, 0, len(pts))
	right := make([][2]float64, 0, len(pts))
	for i, p := range pts {
		var dx, dy float64
		if i == 0 {
			dx, dy = pts[1].X-p.X, pts[1].Y-p.Y
		} else {
			dx, dy = p.X-pts[i-1].X, p.Y-pts[i-1].Y
		}
		l := math.Hypot(dx, dy)
		if l == 0 {
			if i > 0 {
				left = append(left, left[len(left)-1])
				right = append(right, right[len(right)-1])
			}
			continue
		}
		r := radius(size, p.Pressure)
		nx, ny := -dy/l*r, dx/l*r
		left = append(left, [2]float64{p.X + nx, p.Y + ny})
		right = append(right, [2]float64{p.X - nx, p.Y - ny})
	}
	if len(left) == 0 {
		p := pts[0]
		return circle(p.X, p.Y, radius(size, p.Pressure))
	}

	first, last := pts[0], pts[len(pts)-1]
	out := make([][2]float64, 0, 2*len(left)+2*capSteps)
	out = append(out, left...)
	out = append(out, arc(last.X, last.Y, left[len(left)-1], right[len(right)-1])...)
	for i := len(right) - 1; i >= 0; i-- {
		out = append(out, right[i])
	}
	out = append(out, arc(first.X, first.Y, right[0], left[0])...)
	return out
}

// OutlinePath converts an outline polygon into a closed path that curves
// through the midpoints of consecutive vertices.
func OutlinePath(outline [][2]float64) element.Path {
	if len(outline) == 0 {
		return element.Path{}
	}
	var p element.Path
	p.MoveTo(outline[0][0], outline[0][1])
	for i, a := range outline {
		b := outline[(i+1)%len(outline)]
		p.QuadTo(a[0], a[1], (a[0]+b[0])/2, (a[1]+b[1])/2)
	}
	p.Close()
	return p
}

func radius(size, pressure float64) float64 {
	return size / 2 * (1 - 2*thinning*(0.5-pressure))
}

// smooth pulls each sample toward its predecessor to remove pointer jitter.
func smooth(points []element.Sample) []element.Sample {
	out := make([]element.Sample, len(points))
	out[0] = points[0]
	t := 0.15 + (1-streamline)*0.85
	for i := 1; i < len(points); i++ {
		prev, cur := out[i-1], points[i]
		out[i] = element.Sample{
			X:        prev.X + (cur.X-prev.X)*t,
			Y:        prev.Y + (cur.Y-prev.Y)*t,
			Pressure: cur.Pressure,
		}
	}
	return out
}

// arc returns the points of the half circle around (cx, cy) from a to b
// with decreasing angle, excluding both ends. Because the outline walks the
// left side first, that half always faces away from the stroke body.
func arc(cx, cy float64, a, b [2]float64) [][2]float64 {
	start := math.Atan2(a[1]-cy, a[0]-cx)
	r := math.Hypot(a[0]-cx, a[1]-cy)
	sweep := math.Atan2(b[1]-cy, b[0]-cx) - start
	for sweep > 0 {
		sweep -= 2 * math.Pi
	}
	out := make([][2]float64, 0, capSteps-1)
	for i := 1; i < capSteps; i++ {
		t := start + sweep*float64(i)/capSteps
		out = append(out, [2]float64{cx + r*math.Cos(t), cy + r*math.Sin(t)})
	}
	return out
}

func circle(cx, cy, r float64) [][2]float64 {
	out := make([][2]float64, 0, 2*capSteps)
	for i := 0; i < 2*capSteps; i++ {
		t := 2 * math.Pi * float64(i) / (2 * capSteps)
		out = append(out, [2]float64{cx + r*math.Cos(t), cy + r*math.Sin(t)})
	}
	return out
}
