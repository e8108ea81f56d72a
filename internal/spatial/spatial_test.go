package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

func TestNewViewport_CosineCorrectedHeight(t *testing.T) {
	v := DefaultViewport()

	aspect := 59 * math.Cos(37*math.Pi/180) / 26
	assert.Equal(t, 800.0, v.Width)
	assert.InDelta(t, 800/aspect, v.Height, 1e-9)

	lonMin, lonMax, latMin, latMax := v.Edges()
	assert.Equal(t, []float64{-125, -66, 24, 50}, []float64{lonMin, lonMax, latMin, latMax})
}

func TestViewport_ProjectCorners(t *testing.T) {
	v := NewViewport(-125, -66, 24, 50, 590)

	x, y := v.Project(-125, 50)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)

	x, y = v.Project(-66, 24)
	assert.InDelta(t, 590, x, 1e-9)
	assert.InDelta(t, v.Height, y, 1e-9)

	lon, lat := v.Unproject(v.Project(-100, 40))
	assert.InDelta(t, -100, lon, 1e-9)
	assert.InDelta(t, 40, lat, 1e-9)
}

func TestViewport_Contains(t *testing.T) {
	v := DefaultViewport()
	assert.True(t, v.Contains(-120, 37))
	assert.True(t, v.Contains(-125, 24), "edges are inside")
	assert.False(t, v.Contains(-150, 61), "Alaska is outside the contiguous US")
	assert.False(t, v.Contains(-100, 10))
}

func TestMagnitudeStyling(t *testing.T) {
	assert.Equal(t, ColorSmall, MagnitudeColor(2.9))
	assert.Equal(t, ColorMedium, MagnitudeColor(3))
	assert.Equal(t, ColorMedium, MagnitudeColor(4.99))
	assert.Equal(t, ColorLarge, MagnitudeColor(5))

	assert.Equal(t, 2.0, Radius(0))
	assert.Equal(t, 2.0, Radius(0.5))
	assert.Equal(t, 9.0, Radius(4.5))
}

func TestCircles_SkipsOutOfBoundsAndMissingCoordinates(t *testing.T) {
	records := []models.Record{
		{"id": "ca", "longitude": -118.0, "latitude": 34.0, "mag": 4.0},
		{"id": "ak", "longitude": -150.0, "latitude": 61.0, "mag": 6.0},
		{"id": "nocoords", "mag": 2.0},
		{"id": "nomag", "longitude": -100.0, "latitude": 40.0},
	}

	circles := Circles(records, DefaultViewport(), "id")

	require.Len(t, circles, 2)
	assert.Equal(t, "ca", circles[0].ID)
	assert.Equal(t, 8.0, circles[0].R)
	assert.Equal(t, ColorMedium, circles[0].Color)
	assert.Equal(t, "nomag", circles[1].ID)
	assert.Equal(t, 2.0, circles[1].R)
}

func TestBrushSelect_IncludesRadius(t *testing.T) {
	circles := []Circle{
		{ID: "inside", X: 50, Y: 50, R: 2},
		{ID: "edge", X: 105, Y: 50, R: 6},
		{ID: "outside", X: 200, Y: 200, R: 2},
	}

	// dragged from bottom-right to top-left
	got := BrushSelect(circles, BrushRect{StartX: 100, StartY: 100, CurrentX: 0, CurrentY: 0})

	assert.Equal(t, []string{"inside", "edge"}, got)
	assert.Empty(t, BrushSelect(circles, BrushRect{StartX: 300, StartY: 300, CurrentX: 400, CurrentY: 400}))
}

func TestHitTest_TopmostWins(t *testing.T) {
	circles := []Circle{
		{ID: "below", X: 10, Y: 10, R: 5},
		{ID: "above", X: 12, Y: 10, R: 5},
	}

	c, ok := HitTest(circles, 11, 10)
	require.True(t, ok)
	assert.Equal(t, "above", c.ID)

	c, ok = HitTest(circles, 6, 10)
	require.True(t, ok)
	assert.Equal(t, "below", c.ID)

	_, ok = HitTest(circles, 50, 50)
	assert.False(t, ok)
}

func TestRenderFrame(t *testing.T) {
	v := DefaultViewport()
	circles := []Circle{{ID: "a", X: 1, Y: 1, R: 2}, {ID: "b", X: 5, Y: 5, R: 2}}
	brush := &BrushRect{StartX: 0, StartY: 0, CurrentX: 3, CurrentY: 3}

	f := RenderFrame(v, circles, map[string]bool{"a": true}, "b", brush)

	require.Len(t, f.Circles, 2)
	assert.True(t, f.Circles[0].Selected)
	assert.False(t, f.Circles[0].Hovered)
	assert.False(t, f.Circles[1].Selected)
	assert.True(t, f.Circles[1].Hovered)
	assert.Equal(t, "Magnitude", f.LegendTitle)
	assert.Equal(t, []string{"< 3.0", "3.0 - 5.0", "> 5.0"},
		[]string{f.Legend[0].Label, f.Legend[1].Label, f.Legend[2].Label})
	assert.Equal(t, brush, f.Brush)
	assert.Equal(t, [4]float64{-125, -66, 24, 50}, f.Bounds)
}

func TestDistanceKm(t *testing.T) {
	la := Point{Lat: 34.0522, Lon: -118.2437}
	sf := Point{Lat: 37.7749, Lon: -122.4194}

	assert.InDelta(t, 559, DistanceKm(la, sf), 2)
	assert.Zero(t, DistanceKm(la, la))
}

func TestExtentOf(t *testing.T) {
	assert.Nil(t, ExtentOf([]models.Record{{"id": "a"}}))

	e := ExtentOf([]models.Record{
		{"id": "a", "latitude": 10.0, "longitude": 20.0},
		{"id": "b", "latitude": 12.0, "longitude": 24.0},
		{"id": "c"},
	})
	require.NotNil(t, e)
	assert.Equal(t, 2, e.Count)
	assert.Equal(t, Point{Lat: 11, Lon: 22}, e.Centroid)
	assert.Equal(t, 10.0, e.MinLat)
	assert.Equal(t, 24.0, e.MaxLon)
	assert.InDelta(t, DistanceKm(e.Centroid, Point{Lat: 10, Lon: 20}), e.RadiusKm, 2)
}
