package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/quake-explorer-go/internal/config"
	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/present"
	"github.com/jengzang/quake-explorer-go/internal/stats"
)

func explorePage(t *testing.T) models.PageDefinition {
	t.Helper()
	pages, err := config.LoadPages("")
	require.NoError(t, err)
	def, ok := config.FindPage(pages, "explore-data")
	require.True(t, ok)
	return def
}

func TestParseFilter(t *testing.T) {
	def := explorePage(t)

	tests := []struct {
		name  string
		expr  string
		field string
		want  interface{}
	}{
		{"range", "mag=4.5:7", "mag", []float64{4.5, 7}},
		{"open max", "mag=4.5:", "mag", []float64{4.5, 10}},
		{"open min", "depth=:100", "depth", []float64{0, 100}},
		{"set", "type=earthquake, explosion", "type", []string{"earthquake", "explosion"}},
		{"empty set", "alert=", "alert", []string(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, raw, err := parseFilter(def, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.field, field)
			assert.Equal(t, tt.want, raw)
		})
	}
}

func TestParseFilter_Errors(t *testing.T) {
	def := explorePage(t)

	_, _, err := parseFilter(def, "mag")
	assert.ErrorContains(t, err, "expected field=value")

	_, _, err = parseFilter(def, "nope=1")
	assert.ErrorIs(t, err, models.ErrUnknownField)

	_, _, err = parseFilter(def, "mag=abc:5")
	assert.ErrorContains(t, err, "invalid minimum for mag")
}

func TestParseFilter_TextPattern(t *testing.T) {
	def := models.PageDefinition{Filters: []models.FilterConfig{
		{Field: "place", Operator: models.OpContains},
	}}
	field, raw, err := parseFilter(def, "place=Alaska=North")
	require.NoError(t, err)
	assert.Equal(t, "place", field)
	assert.Equal(t, "Alaska=North", raw)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]format{"": formatTable, "JSON": formatJSON, "yml": formatYAML} {
		got, err := parseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := parseFormat("xml")
	assert.Error(t, err)
}

func TestPrinter(t *testing.T) {
	doc := present.Document{
		Title: "M 4.5 - Somewhere",
		Sections: []present.Section{
			{Title: "Basic Information", Rows: []present.Row{{Label: "Magnitude", Value: "4.50"}}},
		},
	}
	tbl := documentTable(doc)

	var buf bytes.Buffer
	p := &printer{format: formatTable, w: &buf}
	require.NoError(t, p.print(tbl))
	out := buf.String()
	assert.Contains(t, out, "SECTION")
	assert.Contains(t, out, "M 4.5 - Somewhere")
	assert.Contains(t, out, "Magnitude")

	buf.Reset()
	p = &printer{format: formatTable, noHeaders: true, w: &buf}
	require.NoError(t, p.print(tbl))
	assert.NotContains(t, buf.String(), "SECTION")

	buf.Reset()
	p = &printer{format: formatJSON, w: &buf}
	require.NoError(t, p.print(tbl))
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"title": "M 4.5 - Somewhere"`)

	buf.Reset()
	p = &printer{format: formatYAML, w: &buf}
	require.NoError(t, p.print(tbl))
	assert.Contains(t, buf.String(), "title: M 4.5 - Somewhere")
}

func TestSummaryTable(t *testing.T) {
	sum := stats.Summarize([]models.Record{
		{"id": "a", "mag": 2.0, "type": "earthquake", "latitude": 35.0, "longitude": -118.0},
		{"id": "b", "mag": 4.0, "type": "earthquake", "latitude": 35.0, "longitude": -118.0},
	})
	tbl := summaryTable(sum)

	rows := make(map[string]string, len(tbl.rows))
	for _, r := range tbl.rows {
		rows[r[0]] = r[1]
	}
	assert.Equal(t, "2", rows["events"])
	assert.Equal(t, "2.00 / 3.00 / 4.00", rows["magnitude min/median/max"])
	assert.Equal(t, present.NA, rows["depth"])
	assert.Equal(t, "2", rows["type earthquake"])
	assert.Equal(t, "2", rows["alert unknown"])
	assert.Equal(t, "35.0000, -118.0000", rows["centroid"])
	assert.Equal(t, "0.0 km", rows["radius"])
}
