package spatial

import (
	"github.com/jengzang/quake-explorer-go/internal/models"
)

// Point is a latitude/longitude pair in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Extent describes where a set of events lies
type Extent struct {
	Count    int     `json:"count"`
	Centroid Point   `json:"centroid"`
	MinLat   float64 `json:"minLat"`
	MinLon   float64 `json:"minLon"`
	MaxLat   float64 `json:"maxLat"`
	MaxLon   float64 `json:"maxLon"`
	// RadiusKm is the distance from the centroid to the farthest event
	RadiusKm float64 `json:"radiusKm"`
}

// RecordPoint returns a record's coordinates
func RecordPoint(r models.Record) (Point, bool) {
	lon, okLon := r.Number("longitude")
	lat, okLat := r.Number("latitude")
	if !okLon || !okLat {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

// Centroid calculates the mean position of a set of points
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}

	return Point{
		Lat: sumLat / float64(len(points)),
		Lon: sumLon / float64(len(points)),
	}
}

// ExtentOf computes the extent of the records that carry coordinates.
// It returns nil when none do.
func ExtentOf(records []models.Record) *Extent {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		if p, ok := RecordPoint(r); ok {
			points = append(points, p)
		}
	}
	if len(points) == 0 {
		return nil
	}

	e := &Extent{
		Count:    len(points),
		Centroid: Centroid(points),
		MinLat:   points[0].Lat,
		MaxLat:   points[0].Lat,
		MinLon:   points[0].Lon,
		MaxLon:   points[0].Lon,
	}
	for _, p := range points {
		if p.Lat < e.MinLat {
			e.MinLat = p.Lat
		}
		if p.Lat > e.MaxLat {
			e.MaxLat = p.Lat
		}
		if p.Lon < e.MinLon {
			e.MinLon = p.Lon
		}
		if p.Lon > e.MaxLon {
			e.MaxLon = p.Lon
		}
		if d := DistanceKm(e.Centroid, p); d > e.RadiusKm {
			e.RadiusKm = d
		}
	}
	return e
}
