package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	assert.Equal(t, 1.0, Quantile(sorted, 0))
	assert.Equal(t, 4.0, Quantile(sorted, 1))
	assert.Equal(t, 2.5, Quantile(sorted, 0.5))
	assert.InDelta(t, 1.75, Quantile(sorted, 0.25), 1e-9)
	assert.Equal(t, 4.0, Quantile(sorted, 2), "q is clamped")
	assert.Zero(t, Quantile(nil, 0.5))
}

func TestDescribe(t *testing.T) {
	assert.Nil(t, Describe(nil))

	values := []float64{5, 1, 3}
	d := Describe(values)
	require.NotNil(t, d)
	assert.Equal(t, 3, d.Count)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 3.0, d.Median)
	assert.Equal(t, 5.0, d.Max)
	assert.Equal(t, 3.0, d.Mean)
	assert.Equal(t, 2.0, d.StdDev)
	assert.Equal(t, []float64{5, 1, 3}, values, "input is not reordered")

	single := Describe([]float64{4.2})
	assert.Equal(t, 4.2, single.P90)
	assert.Zero(t, single.StdDev)
}

func TestSummarize(t *testing.T) {
	records := []models.Record{
		{"id": "a", "mag": 4.0, "depth": 10.0, "type": "earthquake", "alert": "green", "latitude": 35.0, "longitude": -118.0},
		{"id": "b", "mag": 2.0, "depth": 30.0, "type": "quarry blast", "latitude": 36.0, "longitude": -117.0},
		{"id": "c", "mag": nil, "type": "earthquake"},
	}

	s := Summarize(records)
	assert.Equal(t, 3, s.Count)
	require.NotNil(t, s.Magnitude)
	assert.Equal(t, 2, s.Magnitude.Count)
	assert.Equal(t, 3.0, s.Magnitude.Mean)
	assert.Equal(t, 20.0, s.Depth.Median)

	want := []Bucket{{Value: "earthquake", Count: 2}, {Value: "quarry blast", Count: 1}}
	if diff := cmp.Diff(want, s.ByType); diff != "" {
		t.Errorf("ByType mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []Bucket{{Value: Unknown, Count: 2}, {Value: "green", Count: 1}}, s.ByAlert)

	require.NotNil(t, s.Extent)
	assert.Equal(t, 2, s.Extent.Count)
	assert.Equal(t, 35.5, s.Extent.Centroid.Lat)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Count)
	assert.Nil(t, s.Magnitude)
	assert.Nil(t, s.Extent)
	assert.Empty(t, s.ByType)
}
