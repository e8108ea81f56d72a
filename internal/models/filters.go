package models

import (
	"errors"
	"fmt"
	"strings"
)

// Operator names how a filter constrains a record field
type Operator string

const (
	OpBetweenInclusive Operator = "between-inclusive" // numeric value within [min, max]
	OpContainsOneOf    Operator = "contains-one-of"   // value equals one of the selected options
	OpContains         Operator = "contains"          // case-insensitive substring
)

// ValidOperators returns every operator the predicate evaluator understands
func ValidOperators() []Operator {
	return []Operator{OpBetweenInclusive, OpContainsOneOf, OpContains}
}

// IsValid checks if the operator is recognized
func (op Operator) IsValid() bool {
	switch op {
	case OpBetweenInclusive, OpContainsOneOf, OpContains:
		return true
	}
	return false
}

// ParamType describes how a filter maps onto remote query parameters
type ParamType string

const (
	ParamTypeNone   ParamType = ""       // evaluated locally after the fetch
	ParamTypeMinMax ParamType = "minmax" // range split into two named parameters
	ParamTypeSingle ParamType = "single" // text value sent as one parameter
)

// IsValid checks if the param type is recognized
func (p ParamType) IsValid() bool {
	switch p {
	case ParamTypeNone, ParamTypeMinMax, ParamTypeSingle:
		return true
	}
	return false
}

var (
	ErrInvalidFilterConfig = errors.New("invalid filter config")
	ErrUnknownField        = errors.New("unknown filter field")
)

// FilterOption is one choice of a checkbox-style filter
type FilterOption struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// FilterProps configures the widget that renders a filter
type FilterProps struct {
	Min     *float64       `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64       `yaml:"max,omitempty" json:"max,omitempty"`
	Step    *float64       `yaml:"step,omitempty" json:"step,omitempty"`
	Options []FilterOption `yaml:"options,omitempty" json:"options,omitempty"`
}

// ParamTypeOptions names the remote parameters a filter maps onto
type ParamTypeOptions struct {
	MinParam string `yaml:"minParam,omitempty" json:"minParam,omitempty"`
	MaxParam string `yaml:"maxParam,omitempty" json:"maxParam,omitempty"`
	Param    string `yaml:"param,omitempty" json:"param,omitempty"`
}

// FilterConfig declares one filterable field
type FilterConfig struct {
	Field            string            `yaml:"field" json:"field"`
	Label            string            `yaml:"label" json:"label"`
	Operator         Operator          `yaml:"operator" json:"operator"`
	FilterComponent  string            `yaml:"filterComponent" json:"filterComponent"` // RangeSlider, CheckboxList, TextInput
	FilterProps      FilterProps       `yaml:"filterProps" json:"filterProps"`
	ParamType        ParamType         `yaml:"paramType,omitempty" json:"paramType,omitempty"`
	ParamTypeOptions *ParamTypeOptions `yaml:"paramTypeOptions,omitempty" json:"paramTypeOptions,omitempty"`
}

// Remote reports whether the filter is translated into remote query parameters
func (c FilterConfig) Remote() bool {
	return c.ParamType != ParamTypeNone
}

// SingleParam returns the parameter name used by a single-param filter
func (c FilterConfig) SingleParam() string {
	if c.ParamTypeOptions != nil && c.ParamTypeOptions.Param != "" {
		return c.ParamTypeOptions.Param
	}
	return c.Field
}

// ValidateFilterConfigs checks a configuration set and reports every problem at once
func ValidateFilterConfigs(configs []FilterConfig) error {
	var problems []string
	seen := make(map[string]bool, len(configs))

	for i, c := range configs {
		where := fmt.Sprintf("filter[%d]", i)
		if c.Field != "" {
			where = fmt.Sprintf("filter %q", c.Field)
		}

		if strings.TrimSpace(c.Field) == "" {
			problems = append(problems, where+": field is required")
		} else if seen[c.Field] {
			problems = append(problems, where+": duplicate field")
		}
		seen[c.Field] = true

		if !c.Operator.IsValid() {
			problems = append(problems, fmt.Sprintf("%s: unsupported operator %q", where, c.Operator))
		}
		if !c.ParamType.IsValid() {
			problems = append(problems, fmt.Sprintf("%s: unsupported paramType %q", where, c.ParamType))
		}

		switch c.ParamType {
		case ParamTypeMinMax:
			if c.Operator != OpBetweenInclusive {
				problems = append(problems, where+": minmax params require the between-inclusive operator")
			}
			if c.ParamTypeOptions == nil || c.ParamTypeOptions.MinParam == "" || c.ParamTypeOptions.MaxParam == "" {
				problems = append(problems, where+": minmax params require minParam and maxParam")
			}
		case ParamTypeSingle:
			if c.Operator != OpContains {
				problems = append(problems, where+": single param requires the contains operator")
			}
		}

		p := c.FilterProps
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			problems = append(problems, fmt.Sprintf("%s: min %v is greater than max %v", where, *p.Min, *p.Max))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidFilterConfig, strings.Join(problems, "; "))
	}
	return nil
}

// FindFilterConfig looks up the config for a field
func FindFilterConfig(configs []FilterConfig, field string) (FilterConfig, bool) {
	for _, c := range configs {
		if c.Field == field {
			return c, true
		}
	}
	return FilterConfig{}, false
}
