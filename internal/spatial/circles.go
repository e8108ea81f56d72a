package spatial

import (
	"math"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

// Magnitude colours
const (
	ColorLarge  = "#f44336"
	ColorMedium = "#ff9800"
	ColorSmall  = "#4caf50"
)

// Circle is one plotted event
type Circle struct {
	ID     string        `json:"id"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	R      float64       `json:"r"`
	Color  string        `json:"color"`
	Mag    float64       `json:"mag"`
	Record models.Record `json:"-"`
}

// MagnitudeColor returns the fill colour for a magnitude
func MagnitudeColor(mag float64) string {
	switch {
	case mag >= 5:
		return ColorLarge
	case mag >= 3:
		return ColorMedium
	}
	return ColorSmall
}

// Radius returns the circle radius for a magnitude, never below 2px
func Radius(mag float64) float64 {
	return math.Max(2, mag*2)
}

// Circles projects the records that fall inside the viewport. Records
// without coordinates are skipped; a missing magnitude counts as 0.
func Circles(records []models.Record, v Viewport, idField string) []Circle {
	circles := make([]Circle, 0, len(records))
	for _, r := range records {
		p, ok := RecordPoint(r)
		if !ok || !v.Contains(p.Lon, p.Lat) {
			continue
		}
		mag, _ := r.Number("mag")
		x, y := v.Project(p.Lon, p.Lat)
		circles = append(circles, Circle{
			ID:     r.ID(idField),
			X:      x,
			Y:      y,
			R:      Radius(mag),
			Color:  MagnitudeColor(mag),
			Mag:    mag,
			Record: r,
		})
	}
	return circles
}
