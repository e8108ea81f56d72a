// Package export renders composed rows as CSV.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

// DefaultFilenamePrefix is used when a page does not name its export file
const DefaultFilenamePrefix = "earthquake-data"

// CSV renders rows with the given column order. Without columns the keys of
// the first row are used, sorted. Rows are joined by "\n" with no trailing
// newline, and no rows yield an empty document.
func CSV(rows []models.Record, columns []string) string {
	var b strings.Builder
	WriteCSV(&b, rows, columns)
	return b.String()
}

// WriteCSV streams the CSV document to w
func WriteCSV(w io.Writer, rows []models.Record, columns []string) error {
	if len(rows) == 0 {
		return nil
	}
	if len(columns) == 0 {
		columns = make([]string, 0, len(rows[0]))
		for k := range rows[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}

	line := make([]string, len(columns))
	for i, c := range columns {
		line[i] = Escape(c)
	}
	if _, err := io.WriteString(w, strings.Join(line, ",")); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range rows {
		for i, c := range columns {
			line[i] = Escape(r[c])
		}
		if _, err := io.WriteString(w, "\n"+strings.Join(line, ",")); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	return nil
}

// Escape formats one value. Only values containing a comma, a double quote
// or a newline are quoted, with embedded quotes doubled. Null is empty.
func Escape(v interface{}) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	case float64:
		s = models.FormatNumber(x)
	case float32:
		s = models.FormatNumber(float64(x))
	default:
		s = fmt.Sprint(x)
	}

	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// Filename returns "<prefix>-YYYY-MM-DD.csv" for the UTC date of now
func Filename(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultFilenamePrefix
	}
	return fmt.Sprintf("%s-%s.csv", prefix, now.UTC().Format("2006-01-02"))
}
