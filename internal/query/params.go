// Package query translates active filters and pagination into remote query
// parameters and local predicates, depending on the page's query mode.
package query

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

// BuildParams maps active filters onto remote query parameters.
// Static parameters are always included and win on key collisions.
// Filters without a param type are left for local evaluation.
func BuildParams(
	active *models.ActiveFilterSet,
	configs []models.FilterConfig,
	static map[string]string,
) map[string]string {
	params := make(map[string]string, len(static)+len(configs)*2)

	for _, cfg := range configs {
		value, ok := active.Get(cfg.Field)
		if !ok || value.Operator() != cfg.Operator || !value.Active(cfg) {
			continue
		}

		switch cfg.ParamType {
		case models.ParamTypeMinMax:
			rv, ok := value.(models.RangeValue)
			if !ok || cfg.ParamTypeOptions == nil {
				continue
			}
			props := cfg.FilterProps
			if props.Min == nil || rv.Min != *props.Min {
				params[cfg.ParamTypeOptions.MinParam] = models.FormatNumber(rv.Min)
			}
			if props.Max == nil || rv.Max != *props.Max {
				params[cfg.ParamTypeOptions.MaxParam] = models.FormatNumber(rv.Max)
			}
		case models.ParamTypeSingle:
			if tv, ok := value.(models.TextValue); ok {
				params[cfg.SingleParam()] = tv.Pattern
			}
		}
	}

	for k, v := range static {
		params[k] = v
	}
	return params
}

// PaginationParams returns the limit/offset parameters for p.
// The "All" page size adds nothing, leaving any static limit in place.
func PaginationParams(p models.PaginationState, names models.PaginationParams) map[string]string {
	if p.PageSize <= 0 {
		return map[string]string{}
	}
	names = withDefaultNames(names)
	return map[string]string{
		names.LimitParam:  strconv.Itoa(p.PageSize),
		names.OffsetParam: strconv.Itoa(p.Offset() + names.OffsetBase),
	}
}

func withDefaultNames(names models.PaginationParams) models.PaginationParams {
	if names.LimitParam == "" {
		names.LimitParam = "limit"
	}
	if names.OffsetParam == "" {
		names.OffsetParam = "offset"
	}
	return names
}

// Cache key kinds
const (
	KindList   = "list"
	KindDetail = "detail"
)

// CacheKey is the canonical, order-independent key of a request.
// Identical parameter sets always produce the same key.
func CacheKey(dataSource, kind string, params map[string]string) string {
	values := url.Values{}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		values.Set(k, params[k])
	}
	return kind + " " + dataSource + "?" + values.Encode()
}

// Merge returns a new map with the entries of every map, later maps winning
func Merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
