package usgs

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

// Decode parses a GeoJSON FeatureCollection or a single Feature into flat records
func Decode(body []byte) ([]models.Record, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode geojson: %w", err)
	}

	switch envelope.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(body, &fc); err != nil {
			return nil, fmt.Errorf("failed to decode feature collection: %w", err)
		}
		records := make([]models.Record, 0, len(fc.Features))
		for _, f := range fc.Features {
			if f == nil {
				continue
			}
			records = append(records, Flatten(f))
		}
		return records, nil
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(body, &f); err != nil {
			return nil, fmt.Errorf("failed to decode feature: %w", err)
		}
		return []models.Record{Flatten(&f)}, nil
	}
	return nil, fmt.Errorf("unsupported geojson type %q", envelope.Type)
}

// Flatten merges a feature's properties with its id and point coordinates.
// Coordinates follow GeoJSON order: longitude, latitude, depth in km.
func Flatten(f *geojson.Feature) models.Record {
	r := make(models.Record, len(f.Properties)+4)
	for k, v := range f.Properties {
		r[k] = v
	}
	r["id"] = f.ID

	if p, ok := f.Geometry.(*geom.Point); ok && p != nil && !p.Empty() {
		coords := p.Coords()
		if len(coords) > 0 {
			r["longitude"] = coords[0]
		}
		if len(coords) > 1 {
			r["latitude"] = coords[1]
		}
		if len(coords) > 2 {
			r["depth"] = coords[2]
		}
	}
	return r
}
