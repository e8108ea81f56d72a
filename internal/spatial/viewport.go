// Package spatial turns records into map geometry: an equirectangular
// projection of a bounded region, magnitude-scaled circles, brush and hover
// hit-testing, and a declarative frame a map widget can draw.
package spatial

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Contiguous United States, approximately
const (
	DefaultLonMin = -125.0
	DefaultLonMax = -66.0
	DefaultLatMin = 24.0
	DefaultLatMax = 50.0
	DefaultWidth  = 800.0
)

// Viewport maps a lat/lng rectangle onto a width x height pixel canvas
type Viewport struct {
	Bounds s2.Rect
	Width  float64
	Height float64

	lonMin, lonMax, latMin, latMax float64
}

// NewViewport builds a viewport whose height keeps the map's proportions at
// the bounds' centre latitude: aspect = lonRange*cos(centerLat) / latRange.
func NewViewport(lonMin, lonMax, latMin, latMax, width float64) Viewport {
	if width <= 0 {
		width = DefaultWidth
	}
	bounds := RectFromDegrees(lonMin, lonMax, latMin, latMax)

	lonRange := lonMax - lonMin
	latRange := latMax - latMin
	centerLat := (latMin + latMax) / 2
	height := width
	if lonRange > 0 && latRange > 0 {
		aspect := lonRange * math.Cos(centerLat*math.Pi/180) / latRange
		height = width / aspect
	}
	return Viewport{
		Bounds: bounds,
		Width:  width,
		Height: height,
		lonMin: lonMin,
		lonMax: lonMax,
		latMin: latMin,
		latMax: latMax,
	}
}

// DefaultViewport is the contiguous US at the default width
func DefaultViewport() Viewport {
	return NewViewport(DefaultLonMin, DefaultLonMax, DefaultLatMin, DefaultLatMax, DefaultWidth)
}

// RectFromDegrees builds an s2.Rect from degree bounds
func RectFromDegrees(lonMin, lonMax, latMin, latMax float64) s2.Rect {
	rad := func(deg float64) float64 { return (s1.Angle(deg) * s1.Degree).Radians() }
	return s2.Rect{
		Lat: r1.Interval{Lo: rad(latMin), Hi: rad(latMax)},
		Lng: s1.IntervalFromEndpoints(rad(lonMin), rad(lonMax)),
	}
}

// Edges returns the bounds in degrees: lonMin, lonMax, latMin, latMax
func (v Viewport) Edges() (lonMin, lonMax, latMin, latMax float64) {
	return v.lonMin, v.lonMax, v.latMin, v.latMax
}

// Contains reports whether the point lies inside the bounds, edges included
func (v Viewport) Contains(lon, lat float64) bool {
	return v.Bounds.ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

// Project converts lon/lat to pixel coordinates, y growing downwards
func (v Viewport) Project(lon, lat float64) (x, y float64) {
	lonMin, lonMax, latMin, latMax := v.Edges()
	x = (lon - lonMin) / (lonMax - lonMin) * v.Width
	y = v.Height - (lat-latMin)/(latMax-latMin)*v.Height
	return x, y
}

// Unproject converts pixel coordinates back to lon/lat
func (v Viewport) Unproject(x, y float64) (lon, lat float64) {
	lonMin, lonMax, latMin, latMax := v.Edges()
	lon = lonMin + x/v.Width*(lonMax-lonMin)
	lat = latMin + (v.Height-y)/v.Height*(latMax-latMin)
	return lon, lat
}
