// Package filter evaluates active filters and free-text search against records.
package filter

import (
	"strings"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

// check reports whether a record satisfies one active filter
type check func(models.Record) bool

// FilterData returns the records that satisfy every active filter and match
// the search term, in their original order. The input is never modified and
// the result never aliases it.
func FilterData(
	records []models.Record,
	active *models.ActiveFilterSet,
	configs []models.FilterConfig,
	search string,
	searchFields []string,
) []models.Record {
	keep := Predicate(active, configs, search, searchFields)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Predicate compiles the active filters of configs plus the search term into
// one keep-predicate. Filters set on fields missing from configs are ignored,
// so passing a subset of configs evaluates only that subset.
func Predicate(
	active *models.ActiveFilterSet,
	configs []models.FilterConfig,
	search string,
	searchFields []string,
) func(models.Record) bool {
	checks := compile(active, configs)
	term := strings.ToLower(strings.TrimSpace(search))
	fields := append([]string(nil), searchFields...)

	return func(r models.Record) bool {
		for _, c := range checks {
			if !c(r) {
				return false
			}
		}
		if term == "" {
			return true
		}
		return matchesSearch(r, term, fields)
	}
}

func compile(active *models.ActiveFilterSet, configs []models.FilterConfig) []check {
	var checks []check
	for _, cfg := range configs {
		value, ok := active.Get(cfg.Field)
		if !ok || value.Operator() != cfg.Operator || !value.Active(cfg) {
			continue
		}

		field := cfg.Field
		switch v := value.(type) {
		case models.RangeValue:
			checks = append(checks, func(r models.Record) bool {
				x, ok := r.Number(field)
				return ok && v.Contains(x)
			})
		case models.SetValue:
			checks = append(checks, func(r models.Record) bool {
				s, ok := r.Text(field)
				return ok && v.Has(s)
			})
		case models.TextValue:
			pattern := strings.ToLower(strings.TrimSpace(v.Pattern))
			checks = append(checks, func(r models.Record) bool {
				s, ok := r.Text(field)
				return ok && strings.Contains(strings.ToLower(s), pattern)
			})
		}
	}
	return checks
}

// matchesSearch is an OR across the searchable attributes. With no explicit
// search fields every string-valued attribute is searched.
func matchesSearch(r models.Record, term string, fields []string) bool {
	if len(fields) > 0 {
		for _, f := range fields {
			if s, ok := r.Text(f); ok && strings.Contains(strings.ToLower(s), term) {
				return true
			}
		}
		return false
	}

	for _, v := range r {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

// Residual returns the configs that are not translated into remote parameters
func Residual(configs []models.FilterConfig) []models.FilterConfig {
	var out []models.FilterConfig
	for _, c := range configs {
		if !c.Remote() {
			out = append(out, c)
		}
	}
	return out
}
