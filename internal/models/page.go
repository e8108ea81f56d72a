package models

// Column describes one table column
type Column struct {
	Field      string `yaml:"field" json:"field"`
	HeaderName string `yaml:"headerName" json:"headerName"`
	Type       string `yaml:"type,omitempty" json:"type,omitempty"`     // string, number
	Units      string `yaml:"units,omitempty" json:"units,omitempty"`   // e.g. km
	Format     string `yaml:"format,omitempty" json:"format,omitempty"` // datetime
	Width      int    `yaml:"width,omitempty" json:"width,omitempty"`
}

// PaginationParams names the remote limit/offset parameters
type PaginationParams struct {
	LimitParam  string `yaml:"limitParam" json:"limitParam"`
	OffsetParam string `yaml:"offsetParam" json:"offsetParam"`
	OffsetBase  int    `yaml:"offsetBase" json:"offsetBase"` // 1 when the remote offset is 1-based
}

// MapSettings configures the scatter map of a page
type MapSettings struct {
	Enabled bool       `yaml:"enabled" json:"enabled"`
	Width   float64    `yaml:"width,omitempty" json:"width,omitempty"`
	Bounds  *MapBounds `yaml:"bounds,omitempty" json:"bounds,omitempty"`
}

// MapBounds is the visible longitude/latitude window
type MapBounds struct {
	LonMin float64 `yaml:"lonMin" json:"lonMin"`
	LonMax float64 `yaml:"lonMax" json:"lonMax"`
	LatMin float64 `yaml:"latMin" json:"latMin"`
	LatMax float64 `yaml:"latMax" json:"latMax"`
}

// PageDefinition configures one explorer page
type PageDefinition struct {
	Name           string            `yaml:"name" json:"name"`
	Title          string            `yaml:"title" json:"title"`
	Description    string            `yaml:"description" json:"description"`
	DataSource     string            `yaml:"dataSource" json:"dataSource"`
	IDField        string            `yaml:"idField" json:"idField"`
	IDParam        string            `yaml:"idParam" json:"idParam"` // remote by-id parameter (server mode detail)
	QueryMode      string            `yaml:"queryMode" json:"queryMode"`
	StaticParams   map[string]string `yaml:"staticParams" json:"staticParams"`
	SearchFields   []string          `yaml:"searchFields,omitempty" json:"searchFields,omitempty"`
	PageSize       int               `yaml:"pageSize" json:"pageSize"`
	Pagination     PaginationParams  `yaml:"pagination" json:"pagination"`
	Filters        []FilterConfig    `yaml:"filters" json:"filters"`
	Columns        []Column          `yaml:"columns" json:"columns"`
	ExportColumns  []string          `yaml:"exportColumns,omitempty" json:"exportColumns,omitempty"`
	ExportFilename string            `yaml:"exportFilename,omitempty" json:"exportFilename,omitempty"`
	Map            MapSettings       `yaml:"map" json:"map"`
}

// ExportFields returns the CSV column list: ExportColumns when set,
// otherwise the id field followed by the table columns.
func (d PageDefinition) ExportFields() []string {
	if len(d.ExportColumns) > 0 {
		return append([]string(nil), d.ExportColumns...)
	}
	fields := []string{d.IDField}
	for _, c := range d.Columns {
		if c.Field != d.IDField {
			fields = append(fields, c.Field)
		}
	}
	return fields
}
