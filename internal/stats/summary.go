// Package stats summarizes the events an explorer view currently shows.
package stats

import (
	"sort"

	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/spatial"
)

// Unknown labels a missing category value
const Unknown = "unknown"

// Bucket is one category and how many events fall in it
type Bucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summary describes a set of events
type Summary struct {
	Count     int             `json:"count"`
	Magnitude *Distribution   `json:"magnitude"`
	Depth     *Distribution   `json:"depth"`
	ByType    []Bucket        `json:"byType"`
	ByAlert   []Bucket        `json:"byAlert"`
	Extent    *spatial.Extent `json:"extent"`
}

// Summarize computes distributions, category counts and the geographic
// extent of records
func Summarize(records []models.Record) Summary {
	var mags, depths []float64
	for _, r := range records {
		if v, ok := r.Number("mag"); ok {
			mags = append(mags, v)
		}
		if v, ok := r.Number("depth"); ok {
			depths = append(depths, v)
		}
	}

	return Summary{
		Count:     len(records),
		Magnitude: Describe(mags),
		Depth:     Describe(depths),
		ByType:    CountBy(records, "type"),
		ByAlert:   CountBy(records, "alert"),
		Extent:    spatial.ExtentOf(records),
	}
}

// CountBy groups records by the text of field, largest group first and
// ties by value. Missing values are counted under Unknown.
func CountBy(records []models.Record, field string) []Bucket {
	counts := make(map[string]int)
	for _, r := range records {
		v, ok := r.Text(field)
		if !ok || v == "" {
			v = Unknown
		}
		counts[v]++
	}

	buckets := make([]Bucket, 0, len(counts))
	for v, n := range counts {
		buckets = append(buckets, Bucket{Value: v, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Value < buckets[j].Value
	})
	return buckets
}
