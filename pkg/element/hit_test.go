package element

import "testing"

func TestHitTest(t *testing.T) {
	line := Element{Type: Line, X1: 0, Y1: 0, X2: 100, Y2: 0}
	rect := Element{Type: Rectangle, X1: 0, Y1: 0, X2: 100, Y2: 50}
	circle := Element{Type: Circle, X1: 0, Y1: 0, X2: 100, Y2: 100}
	brush := Element{Type: Brush, Size: 4, Points: []Sample{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 0}}}
	text := Element{Type: Text, X1: 10, Y1: 10, Size: 20, Text: "hello"}

	tests := []struct {
		name string
		e    Element
		x, y float64
		want bool
	}{
		{"line on", line, 50, 2, true},
		{"line off", line, 50, 20, false},
		{"line beyond end", line, 110, 0, false},
		{"rect edge", rect, 100, 25, true},
		{"rect interior", rect, 50, 25, false},
		{"circle outline", circle, 50, 1, true},
		{"circle center", circle, 50, 50, false},
		{"brush stroke", brush, 5, 6, true},
		{"brush far", brush, 10, 40, false},
		{"text box", text, 30, 20, true},
		{"text outside", text, 200, 20, false},
		{"empty brush", Element{Type: Brush}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HitTest(tt.e, tt.x, tt.y, 5); got != tt.want {
				t.Errorf("HitTest(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}
