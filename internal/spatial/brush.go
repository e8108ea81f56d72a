package spatial

import "math"

// BrushRect is a drag rectangle in pixel coordinates; the corners may come in any order
type BrushRect struct {
	StartX   float64 `json:"startX"`
	StartY   float64 `json:"startY"`
	CurrentX float64 `json:"currentX"`
	CurrentY float64 `json:"currentY"`
}

// Normalize returns the rectangle's min and max corners
func (b BrushRect) Normalize() (minX, minY, maxX, maxY float64) {
	return math.Min(b.StartX, b.CurrentX), math.Min(b.StartY, b.CurrentY),
		math.Max(b.StartX, b.CurrentX), math.Max(b.StartY, b.CurrentY)
}

// BrushSelect returns the ids of the circles touching the rectangle, radius included
func BrushSelect(circles []Circle, b BrushRect) []string {
	minX, minY, maxX, maxY := b.Normalize()
	ids := make([]string, 0)
	for _, c := range circles {
		if c.X+c.R >= minX && c.X-c.R <= maxX && c.Y+c.R >= minY && c.Y-c.R <= maxY {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// HitTest returns the topmost circle under (x, y). Later circles are drawn on top.
func HitTest(circles []Circle, x, y float64) (Circle, bool) {
	for i := len(circles) - 1; i >= 0; i-- {
		c := circles[i]
		dx, dy := x-c.X, y-c.Y
		if dx*dx+dy*dy <= c.R*c.R {
			return c, true
		}
	}
	return Circle{}, false
}
