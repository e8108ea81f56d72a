// Package present formats records for the detail page, the preview panel,
// the map tooltip and table cells. Absent values render as "N/A".
package present

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

// NA is shown for absent values
const NA = "N/A"

// TimeLayout is how event timestamps are rendered
const TimeLayout = "2006-01-02 15:04:05 MST"

// Row is one label/value line
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section is a titled group of rows
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Document is a rendered detail page or preview panel
type Document struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	URL      string    `json:"url,omitempty"`
	Sections []Section `json:"sections"`
}

// FormatValue renders numbers with two decimals and nulls as N/A
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return NA
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 2, 32)
	case int:
		return strconv.FormatFloat(float64(x), 'f', 2, 64)
	case int64:
		return strconv.FormatFloat(float64(x), 'f', 2, 64)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// FormatTimestamp renders epoch milliseconds in UTC; zero or absent is N/A
func FormatTimestamp(v interface{}) string {
	ms, ok := models.Record{"t": v}.Number("t")
	if !ok || ms == 0 {
		return NA
	}
	return time.UnixMilli(int64(ms)).UTC().Format(TimeLayout)
}

// textOr returns the attribute's text, or N/A when absent or empty
func textOr(r models.Record, field string) string {
	s, ok := r.Text(field)
	if !ok || s == "" {
		return NA
	}
	return s
}

func yesNo(r models.Record, field string) string {
	switch v := r[field].(type) {
	case bool:
		if v {
			return "Yes"
		}
	case float64:
		if v != 0 {
			return "Yes"
		}
	case string:
		if v != "" && v != "0" {
			return "Yes"
		}
	}
	return "No"
}

func depth(r models.Record) string {
	if r["depth"] == nil {
		return NA
	}
	return FormatValue(r["depth"]) + " km"
}

// Title falls back from title to place to a generic label
func Title(r models.Record) string {
	for _, f := range []string{"title", "place"} {
		if s, ok := r.Text(f); ok && s != "" {
			return s
		}
	}
	return "Earthquake Event"
}

// Detail renders the full detail page of one event
func Detail(r models.Record) Document {
	url, _ := r.Text("url")
	return Document{
		Title: Title(r),
		URL:   url,
		Sections: []Section{
			{Title: "Basic Information", Rows: []Row{
				{"Magnitude", FormatValue(r["mag"])},
				{"Magnitude Type", textOr(r, "magType")},
				{"Event Type", textOr(r, "type")},
				{"Status", textOr(r, "status")},
				{"Time", FormatTimestamp(r["time"])},
				{"Updated", FormatTimestamp(r["updated"])},
				{"Time Zone", textOr(r, "tz")},
				{"Title", textOr(r, "title")},
			}},
			{Title: "Location Information", Rows: []Row{
				{"Place", textOr(r, "place")},
				{"Longitude", FormatValue(r["longitude"])},
				{"Latitude", FormatValue(r["latitude"])},
				{"Depth", depth(r)},
				{"Horizontal Error", FormatValue(r["horizontalError"])},
				{"Depth Error", FormatValue(r["depthError"])},
				{"Mag Error", FormatValue(r["magError"])},
				{"Mag Stations", FormatValue(r["magNst"])},
			}},
			{Title: "Alerts and Impact", Rows: []Row{
				{"Alert Level", textOr(r, "alert")},
				{"Tsunami Warning", yesNo(r, "tsunami")},
				{"Significance", FormatValue(r["sig"])},
				{"Felt Reports", FormatValue(r["felt"])},
				{"CDI (Intensity)", FormatValue(r["cdi"])},
				{"MMI (Intensity)", FormatValue(r["mmi"])},
			}},
			{Title: "Seismic Measurements", Rows: []Row{
				{"Number of Stations", FormatValue(r["nst"])},
				{"Azimuthal Gap", FormatValue(r["gap"])},
				{"Min Distance", FormatValue(r["dmin"])},
				{"RMS", FormatValue(r["rms"])},
				{"Network", textOr(r, "net")},
				{"Code", textOr(r, "code")},
				{"Event ID", textOr(r, "id")},
			}},
			{Title: "Additional Information", Rows: []Row{
				{"IDs", textOr(r, "ids")},
				{"Sources", textOr(r, "sources")},
				{"Types", textOr(r, "types")},
				{"Detail URL", textOr(r, "detail")},
			}},
		},
	}
}

// Preview renders the side panel shown for a table row
func Preview(r models.Record) Document {
	place, ok := r.Text("place")
	if !ok || place == "" {
		place = "Location not available"
	}
	return Document{
		Title:    Title(r),
		Subtitle: place,
		Sections: []Section{
			{Title: "Basic Information", Rows: []Row{
				{"Magnitude", FormatValue(r["mag"])},
				{"Magnitude Type", textOr(r, "magType")},
				{"Time", FormatTimestamp(r["time"])},
				{"Updated", FormatTimestamp(r["updated"])},
				{"Type", textOr(r, "type")},
				{"Status", textOr(r, "status")},
			}},
			{Title: "Location Details", Rows: []Row{
				{"Longitude", FormatValue(r["longitude"])},
				{"Latitude", FormatValue(r["latitude"])},
				{"Depth", FormatValue(r["depth"]) + " km"},
				{"Place", textOr(r, "place")},
			}},
			{Title: "Status & Alerts", Rows: []Row{
				{"Review Status", textOr(r, "status")},
				{"Tsunami Warning", yesNo(r, "tsunami")},
				{"Alert Level", textOr(r, "alert")},
				{"Significance", FormatValue(r["sig"])},
			}},
			{Title: "Seismic Metrics", Rows: []Row{
				{"Felt Reports", FormatValue(r["felt"])},
				{"CDI", FormatValue(r["cdi"])},
				{"MMI", FormatValue(r["mmi"])},
				{"Number of Stations", FormatValue(r["nst"])},
				{"Azimuthal Gap", FormatValue(r["gap"])},
				{"Min Distance", FormatValue(r["dmin"])},
				{"RMS", FormatValue(r["rms"])},
			}},
			{Title: "Network Information", Rows: []Row{
				{"Network", textOr(r, "net")},
				{"Code", textOr(r, "code")},
				{"IDs", textOr(r, "ids")},
				{"Sources", textOr(r, "sources")},
				{"Types", textOr(r, "types")},
			}},
		},
	}
}

// Tooltip renders the map hover card
func Tooltip(r models.Record) []Row {
	place, ok := r.Text("place")
	if !ok || place == "" {
		place = "Unknown Location"
	}
	rows := []Row{
		{"Place", place},
		{"Magnitude", FormatValue(r["mag"])},
		{"Depth", fixed(r, "depth", 1) + " km"},
		{"Location", fixed(r, "latitude", 4) + ", " + fixed(r, "longitude", 4)},
	}
	if t := FormatTimestamp(r["time"]); t != NA {
		rows = append(rows, Row{"Time", t})
	}
	if s, ok := r.Text("type"); ok && s != "" {
		rows = append(rows, Row{"Type", s})
	}
	return rows
}

func fixed(r models.Record, field string, decimals int) string {
	v, ok := r.Number(field)
	if !ok {
		return NA
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// Cell renders a table cell for a column. Empty cells stay empty.
func Cell(col models.Column, r models.Record) string {
	v := r[col.Field]
	if v == nil {
		return ""
	}
	if col.Format == "datetime" {
		if s := FormatTimestamp(v); s != NA {
			return s
		}
		return ""
	}
	if f, ok := v.(float64); ok {
		return models.FormatNumber(f)
	}
	s, _ := r.Text(col.Field)
	return s
}
