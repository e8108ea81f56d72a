package present

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

func value(t *testing.T, doc Document, section, label string) string {
	t.Helper()
	for _, s := range doc.Sections {
		if s.Title != section {
			continue
		}
		for _, r := range s.Rows {
			if r.Label == label {
				return r.Value
			}
		}
	}
	require.Failf(t, "row not found", "%s / %s", section, label)
	return ""
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "N/A", FormatValue(nil))
	assert.Equal(t, "4.50", FormatValue(4.5))
	assert.Equal(t, "3.00", FormatValue(3))
	assert.Equal(t, "green", FormatValue("green"))
	assert.Equal(t, "true", FormatValue(true))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "N/A", FormatTimestamp(nil))
	assert.Equal(t, "N/A", FormatTimestamp(0.0))
	assert.Equal(t, "2023-11-14 22:13:20 UTC", FormatTimestamp(1700000000000.0))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "M 5.6 - Fiji", Title(models.Record{"title": "M 5.6 - Fiji", "place": "Fiji"}))
	assert.Equal(t, "Fiji", Title(models.Record{"place": "Fiji"}))
	assert.Equal(t, "Earthquake Event", Title(models.Record{}))
}

func TestDetail_RendersNAForMissingValues(t *testing.T) {
	doc := Detail(models.Record{"id": "ak1"})

	require.Len(t, doc.Sections, 5)
	assert.Equal(t, "Earthquake Event", doc.Title)
	for _, s := range doc.Sections {
		for _, r := range s.Rows {
			if r.Label == "Tsunami Warning" {
				assert.Equal(t, "No", r.Value)
				continue
			}
			if r.Label == "Event ID" {
				assert.Equal(t, "ak1", r.Value)
				continue
			}
			assert.Equal(t, "N/A", r.Value, "%s / %s", s.Title, r.Label)
		}
	}
}

func TestDetail_FormatsValues(t *testing.T) {
	doc := Detail(models.Record{
		"id":      "us7000",
		"mag":     5.6,
		"depth":   550.0,
		"tsunami": 1.0,
		"time":    1700000000000.0,
		"alert":   "green",
		"felt":    nil,
		"url":     "https://earthquake.usgs.gov/earthquakes/eventpage/us7000",
	})

	assert.Equal(t, "5.60", value(t, doc, "Basic Information", "Magnitude"))
	assert.Equal(t, "550.00 km", value(t, doc, "Location Information", "Depth"))
	assert.Equal(t, "Yes", value(t, doc, "Alerts and Impact", "Tsunami Warning"))
	assert.Equal(t, "green", value(t, doc, "Alerts and Impact", "Alert Level"))
	assert.Equal(t, "N/A", value(t, doc, "Alerts and Impact", "Felt Reports"))
	assert.Equal(t, "2023-11-14 22:13:20 UTC", value(t, doc, "Basic Information", "Time"))
	assert.NotEmpty(t, doc.URL)
}

func TestPreview(t *testing.T) {
	doc := Preview(models.Record{"mag": 2.0})

	assert.Equal(t, "Location not available", doc.Subtitle)
	assert.Equal(t, "N/A km", value(t, doc, "Location Details", "Depth"))
	assert.Equal(t, "2.00", value(t, doc, "Basic Information", "Magnitude"))
	assert.Len(t, doc.Sections, 5)
}

func TestTooltip(t *testing.T) {
	rows := Tooltip(models.Record{"mag": 3.25, "depth": 10.26, "latitude": 34.05, "longitude": -118.25})

	assert.Equal(t, []Row{
		{"Place", "Unknown Location"},
		{"Magnitude", "3.25"},
		{"Depth", "10.3 km"},
		{"Location", "34.0500, -118.2500"},
	}, rows)
}

func TestCell(t *testing.T) {
	r := models.Record{"mag": 4.0, "time": 1700000000000.0, "place": "Alaska", "alert": nil}

	assert.Equal(t, "4", Cell(models.Column{Field: "mag"}, r))
	assert.Equal(t, "2023-11-14 22:13:20 UTC", Cell(models.Column{Field: "time", Format: "datetime"}, r))
	assert.Equal(t, "Alaska", Cell(models.Column{Field: "place"}, r))
	assert.Equal(t, "", Cell(models.Column{Field: "alert"}, r))
}
