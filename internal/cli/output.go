package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

type format string

const (
	formatTable format = "table"
	formatJSON  format = "json"
	formatYAML  format = "yaml"
)

func parseFormat(s string) (format, error) {
	switch strings.ToLower(s) {
	case "table", "":
		return formatTable, nil
	case "json":
		return formatJSON, nil
	case "yaml", "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (valid: table, json, yaml)", s)
	}
}

// table is tabular output; data is what json and yaml print instead
type table struct {
	headers []string
	rows    [][]string
	data    interface{}
}

type printer struct {
	format    format
	noHeaders bool
	w         io.Writer
}

func newPrinter(w io.Writer) (*printer, error) {
	f, err := parseFormat(outputFmt)
	if err != nil {
		return nil, err
	}
	return &printer{format: f, noHeaders: noHeaders, w: w}, nil
}

func (p *printer) print(t table) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(t.data)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(t.data)
	}

	tw := tablewriter.NewWriter(p.w)
	if !p.noHeaders && len(t.headers) > 0 {
		tw.SetHeader(t.headers)
	}
	tw.SetBorder(false)
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetCenterSeparator("")
	tw.SetColumnSeparator("")
	tw.SetRowSeparator("")
	tw.SetHeaderLine(false)
	tw.SetTablePadding("\t")
	tw.SetNoWhiteSpace(true)
	tw.AppendBulk(t.rows)
	tw.Render()
	return nil
}
