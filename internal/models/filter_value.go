package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrFilterValueMismatch = errors.New("filter value does not match operator")

// FilterValue is the user-supplied value of one active filter.
// The concrete type is one of RangeValue, SetValue or TextValue.
type FilterValue interface {
	Operator() Operator
	// Active reports whether the value constrains anything for the given config
	Active(cfg FilterConfig) bool
	isFilterValue()
}

// RangeValue is an inclusive numeric range
type RangeValue struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (RangeValue) Operator() Operator { return OpBetweenInclusive }
func (RangeValue) isFilterValue()     {}

// Active is false when the range equals the configured full range
func (v RangeValue) Active(cfg FilterConfig) bool {
	p := cfg.FilterProps
	if p.Min != nil && p.Max != nil && v.Min == *p.Min && v.Max == *p.Max {
		return false
	}
	return true
}

// Contains checks if x lies within [Min, Max]
func (v RangeValue) Contains(x float64) bool {
	return x >= v.Min && x <= v.Max
}

// SetValue is a set of allowed values
type SetValue struct {
	Values []string `json:"values"`
}

func (SetValue) Operator() Operator { return OpContainsOneOf }
func (SetValue) isFilterValue()     {}

func (v SetValue) Active(FilterConfig) bool { return len(v.Values) > 0 }

// Has reports exact membership
func (v SetValue) Has(s string) bool {
	for _, x := range v.Values {
		if x == s {
			return true
		}
	}
	return false
}

// TextValue is a free-form pattern
type TextValue struct {
	Pattern string `json:"pattern"`
}

func (TextValue) Operator() Operator { return OpContains }
func (TextValue) isFilterValue()     {}

func (v TextValue) Active(FilterConfig) bool { return strings.TrimSpace(v.Pattern) != "" }

// NewFilterValue builds the value variant for cfg's operator from a decoded
// JSON value (or a Go value of the matching shape)
func NewFilterValue(cfg FilterConfig, raw interface{}) (FilterValue, error) {
	switch cfg.Operator {
	case OpBetweenInclusive:
		return newRangeValue(cfg, raw)
	case OpContainsOneOf:
		return newSetValue(cfg, raw)
	case OpContains:
		switch v := raw.(type) {
		case string:
			return TextValue{Pattern: v}, nil
		case TextValue:
			return v, nil
		}
		return nil, fmt.Errorf("%w: %s expects a string", ErrFilterValueMismatch, cfg.Field)
	}
	return nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidFilterConfig, cfg.Operator)
}

func newRangeValue(cfg FilterConfig, raw interface{}) (FilterValue, error) {
	var bounds []float64
	switch v := raw.(type) {
	case RangeValue:
		bounds = []float64{v.Min, v.Max}
	case []float64:
		bounds = v
	case []interface{}:
		for _, x := range v {
			f, ok := x.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects numbers", ErrFilterValueMismatch, cfg.Field)
			}
			bounds = append(bounds, f)
		}
	case map[string]interface{}:
		lo, okLo := v["min"].(float64)
		hi, okHi := v["max"].(float64)
		if !okLo || !okHi {
			return nil, fmt.Errorf("%w: %s expects min and max", ErrFilterValueMismatch, cfg.Field)
		}
		bounds = []float64{lo, hi}
	default:
		return nil, fmt.Errorf("%w: %s expects a [min, max] range", ErrFilterValueMismatch, cfg.Field)
	}

	if len(bounds) != 2 {
		return nil, fmt.Errorf("%w: %s expects exactly two bounds", ErrFilterValueMismatch, cfg.Field)
	}
	if bounds[0] > bounds[1] {
		return nil, fmt.Errorf("%w: %s min %v is greater than max %v", ErrFilterValueMismatch, cfg.Field, bounds[0], bounds[1])
	}
	return RangeValue{Min: bounds[0], Max: bounds[1]}, nil
}

func newSetValue(cfg FilterConfig, raw interface{}) (FilterValue, error) {
	var values []string
	switch v := raw.(type) {
	case SetValue:
		values = v.Values
	case []string:
		values = v
	case []interface{}:
		for _, x := range v {
			switch s := x.(type) {
			case string:
				values = append(values, s)
			case float64:
				values = append(values, FormatNumber(s))
			default:
				return nil, fmt.Errorf("%w: %s expects a list of strings", ErrFilterValueMismatch, cfg.Field)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s expects a list of values", ErrFilterValueMismatch, cfg.Field)
	}

	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, s := range values {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return SetValue{Values: out}, nil
}

// ActiveFilterSet maps field names to their current filter values.
// It is only mutated through Set, Clear and ClearAll.
type ActiveFilterSet struct {
	values   map[string]FilterValue
	revision uint64
}

// NewActiveFilterSet creates an empty filter set
func NewActiveFilterSet() *ActiveFilterSet {
	return &ActiveFilterSet{values: make(map[string]FilterValue)}
}

// Set stores v for cfg.Field after checking it matches cfg's operator
func (s *ActiveFilterSet) Set(cfg FilterConfig, v FilterValue) error {
	if v == nil {
		return fmt.Errorf("%w: %s has no value", ErrFilterValueMismatch, cfg.Field)
	}
	if v.Operator() != cfg.Operator {
		return fmt.Errorf("%w: %s is %s, got %s value", ErrFilterValueMismatch, cfg.Field, cfg.Operator, v.Operator())
	}
	s.values[cfg.Field] = v
	s.revision++
	return nil
}

// Clear removes the filter for field. Returns false if it was not set.
func (s *ActiveFilterSet) Clear(field string) bool {
	if _, ok := s.values[field]; !ok {
		return false
	}
	delete(s.values, field)
	s.revision++
	return true
}

// ClearAll removes every filter
func (s *ActiveFilterSet) ClearAll() {
	if len(s.values) == 0 {
		return
	}
	s.values = make(map[string]FilterValue)
	s.revision++
}

// Get returns the value for field. Safe on a nil set.
func (s *ActiveFilterSet) Get(field string) (FilterValue, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[field]
	return v, ok
}

// Len returns the number of stored filters
func (s *ActiveFilterSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Fields returns the filtered field names in sorted order
func (s *ActiveFilterSet) Fields() []string {
	if s == nil {
		return nil
	}
	fields := make([]string, 0, len(s.values))
	for f := range s.values {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Revision increases on every mutation
func (s *ActiveFilterSet) Revision() uint64 {
	if s == nil {
		return 0
	}
	return s.revision
}

// Clone returns an independent copy
func (s *ActiveFilterSet) Clone() *ActiveFilterSet {
	c := NewActiveFilterSet()
	if s == nil {
		return c
	}
	for k, v := range s.values {
		c.values[k] = v
	}
	c.revision = s.revision
	return c
}

// Snapshot returns the values keyed by field, for serialization
func (s *ActiveFilterSet) Snapshot() map[string]FilterValue {
	out := make(map[string]FilterValue)
	if s == nil {
		return out
	}
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
