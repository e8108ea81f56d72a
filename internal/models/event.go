package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrRecordNotFound = errors.New("record not found")

// Record is one flattened earthquake event: the feature properties plus
// id, longitude, latitude and depth taken from the feature itself.
// Records are shared between caches and views and must be treated as read-only.
type Record map[string]interface{}

// ID returns the identifier stored under idField as a string
func (r Record) ID(idField string) string {
	s, _ := r.Text(idField)
	return s
}

// Number returns a numeric attribute. Missing, null, NaN and
// non-numeric values report false.
func (r Record) Number(field string) (float64, bool) {
	var f float64
	switch v := r[field].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Text returns the string form of an attribute. Missing and null values report false.
func (r Record) Text(field string) (string, bool) {
	switch v := r[field].(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return FormatNumber(v), true
	case float32:
		return FormatNumber(float64(v)), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// FormatNumber renders a number in its shortest form without exponent (2.0 -> "2")
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
