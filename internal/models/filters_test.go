package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(f float64) *float64 { return &f }

func magConfig() FilterConfig {
	return FilterConfig{
		Field:       "mag",
		Label:       "Magnitude",
		Operator:    OpBetweenInclusive,
		FilterProps: FilterProps{Min: float(0), Max: float(10), Step: float(0.1)},
		ParamType:   ParamTypeMinMax,
		ParamTypeOptions: &ParamTypeOptions{
			MinParam: "minmagnitude",
			MaxParam: "maxmagnitude",
		},
	}
}

func typeConfig() FilterConfig {
	return FilterConfig{
		Field:    "type",
		Label:    "Event Type",
		Operator: OpContainsOneOf,
		FilterProps: FilterProps{Options: []FilterOption{
			{Label: "Earthquake", Value: "earthquake"},
			{Label: "Quarry Blast", Value: "quarry blast"},
		}},
	}
}

func TestOperator_IsValid(t *testing.T) {
	tests := []struct {
		name string
		op   Operator
		want bool
	}{
		{"between", OpBetweenInclusive, true},
		{"one of", OpContainsOneOf, true},
		{"contains", OpContains, true},
		{"unknown", Operator("regex"), false},
		{"empty", Operator(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.IsValid())
		})
	}
	assert.Len(t, ValidOperators(), 3)
}

func TestValidateFilterConfigs(t *testing.T) {
	tests := []struct {
		name    string
		configs []FilterConfig
		wantErr []string
	}{
		{
			name:    "valid set",
			configs: []FilterConfig{magConfig(), typeConfig()},
		},
		{
			name:    "empty set",
			configs: nil,
		},
		{
			name:    "missing field",
			configs: []FilterConfig{{Operator: OpContains}},
			wantErr: []string{"field is required"},
		},
		{
			name:    "duplicate field",
			configs: []FilterConfig{magConfig(), magConfig()},
			wantErr: []string{"duplicate field"},
		},
		{
			name:    "unknown operator",
			configs: []FilterConfig{{Field: "mag", Operator: "near"}},
			wantErr: []string{`unsupported operator "near"`},
		},
		{
			name: "minmax without params",
			configs: []FilterConfig{{
				Field:     "depth",
				Operator:  OpBetweenInclusive,
				ParamType: ParamTypeMinMax,
			}},
			wantErr: []string{"require minParam and maxParam"},
		},
		{
			name: "minmax on set operator",
			configs: []FilterConfig{{
				Field:            "type",
				Operator:         OpContainsOneOf,
				ParamType:        ParamTypeMinMax,
				ParamTypeOptions: &ParamTypeOptions{MinParam: "a", MaxParam: "b"},
			}},
			wantErr: []string{"between-inclusive"},
		},
		{
			name: "inverted bounds",
			configs: []FilterConfig{{
				Field:       "depth",
				Operator:    OpBetweenInclusive,
				FilterProps: FilterProps{Min: float(700), Max: float(0)},
			}},
			wantErr: []string{"greater than max"},
		},
		{
			name: "problems are aggregated",
			configs: []FilterConfig{
				{Operator: OpContains},
				{Field: "x", Operator: "bogus"},
			},
			wantErr: []string{"field is required", `unsupported operator "bogus"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilterConfigs(tt.configs)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFilterConfig))
			for _, msg := range tt.wantErr {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestNewFilterValue(t *testing.T) {
	t.Run("range from decoded json", func(t *testing.T) {
		v, err := NewFilterValue(magConfig(), []interface{}{3.0, 5.0})
		require.NoError(t, err)
		assert.Equal(t, RangeValue{Min: 3, Max: 5}, v)
	})

	t.Run("range from object", func(t *testing.T) {
		v, err := NewFilterValue(magConfig(), map[string]interface{}{"min": 1.0, "max": 2.0})
		require.NoError(t, err)
		assert.Equal(t, RangeValue{Min: 1, Max: 2}, v)
	})

	t.Run("range rejects inverted bounds", func(t *testing.T) {
		_, err := NewFilterValue(magConfig(), []float64{5, 3})
		assert.ErrorIs(t, err, ErrFilterValueMismatch)
	})

	t.Run("range rejects strings", func(t *testing.T) {
		_, err := NewFilterValue(magConfig(), []interface{}{"earthquake"})
		assert.ErrorIs(t, err, ErrFilterValueMismatch)
	})

	t.Run("set deduplicates", func(t *testing.T) {
		v, err := NewFilterValue(typeConfig(), []interface{}{"earthquake", "earthquake", "explosion"})
		require.NoError(t, err)
		assert.Equal(t, SetValue{Values: []string{"earthquake", "explosion"}}, v)
	})

	t.Run("set rejects a range", func(t *testing.T) {
		_, err := NewFilterValue(typeConfig(), RangeValue{Min: 1, Max: 2})
		assert.ErrorIs(t, err, ErrFilterValueMismatch)
	})

	t.Run("text", func(t *testing.T) {
		v, err := NewFilterValue(FilterConfig{Field: "place", Operator: OpContains}, "alaska")
		require.NoError(t, err)
		assert.Equal(t, TextValue{Pattern: "alaska"}, v)
	})
}

func TestFilterValue_Active(t *testing.T) {
	assert.False(t, RangeValue{Min: 0, Max: 10}.Active(magConfig()))
	assert.True(t, RangeValue{Min: 0, Max: 9.9}.Active(magConfig()))
	assert.True(t, RangeValue{Min: 0, Max: 10}.Active(FilterConfig{Field: "x", Operator: OpBetweenInclusive}))
	assert.False(t, SetValue{}.Active(typeConfig()))
	assert.True(t, SetValue{Values: []string{"earthquake"}}.Active(typeConfig()))
	assert.False(t, TextValue{Pattern: "  "}.Active(FilterConfig{}))
}

func TestActiveFilterSet(t *testing.T) {
	s := NewActiveFilterSet()
	assert.Equal(t, uint64(0), s.Revision())

	require.NoError(t, s.Set(magConfig(), RangeValue{Min: 2, Max: 4}))
	require.NoError(t, s.Set(typeConfig(), SetValue{Values: []string{"earthquake"}}))
	assert.Equal(t, []string{"mag", "type"}, s.Fields())
	assert.Equal(t, uint64(2), s.Revision())

	err := s.Set(typeConfig(), RangeValue{Min: 1, Max: 2})
	assert.ErrorIs(t, err, ErrFilterValueMismatch)
	assert.Equal(t, uint64(2), s.Revision(), "rejected values do not mutate")

	clone := s.Clone()
	assert.True(t, s.Clear("mag"))
	assert.False(t, s.Clear("mag"))
	_, ok := clone.Get("mag")
	assert.True(t, ok, "clone is independent")

	s.ClearAll()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, uint64(4), s.Revision())

	var nilSet *ActiveFilterSet
	_, ok = nilSet.Get("mag")
	assert.False(t, ok)
	assert.Equal(t, 0, nilSet.Len())
}

func TestPaginationState(t *testing.T) {
	p := PaginationState{Page: 2, PageSize: 25}
	assert.Equal(t, 50, p.Offset())

	start, end := p.Bounds(60)
	assert.Equal(t, 50, start)
	assert.Equal(t, 60, end)
	assert.Equal(t, 3, p.TotalPages(60))

	next := p.Apply(3, 25)
	assert.Equal(t, PaginationState{Page: 3, PageSize: 25}, next)

	resized := p.Apply(3, 50)
	assert.Equal(t, PaginationState{Page: 0, PageSize: 50}, resized, "page size change resets the page")

	all := PaginationState{PageSize: PageSizeAll}
	start, end = all.Bounds(7)
	assert.Equal(t, 0, start)
	assert.Equal(t, 7, end)
	assert.Equal(t, 0, all.Offset())

	assert.True(t, ValidPageSize(100))
	assert.False(t, ValidPageSize(10))
}

func TestRecordAccessors(t *testing.T) {
	r := Record{"id": "ak1", "mag": 2.0, "felt": nil, "tsunami": 0.0, "depth": "12.5", "ok": true}

	assert.Equal(t, "ak1", r.ID("id"))

	mag, ok := r.Number("mag")
	assert.True(t, ok)
	assert.Equal(t, 2.0, mag)

	_, ok = r.Number("felt")
	assert.False(t, ok)

	depth, ok := r.Number("depth")
	assert.True(t, ok)
	assert.Equal(t, 12.5, depth)

	s, ok := r.Text("mag")
	assert.True(t, ok)
	assert.Equal(t, "2", s)

	s, _ = r.Text("ok")
	assert.Equal(t, "true", s)

	_, ok = r.Text("missing")
	assert.False(t, ok)
}
