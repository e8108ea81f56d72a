package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/present"
	"github.com/jengzang/quake-explorer-go/internal/service"
	"github.com/jengzang/quake-explorer-go/internal/stats"
)

var (
	queryFilters  []string
	querySearch   string
	queryPage     int
	queryPageSize int
	queryTimeout  time.Duration
	exportFile    string
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the configured explorer pages",
	Args:  cobra.NoArgs,
	RunE:  runPages,
}

var queryCmd = &cobra.Command{
	Use:   "query [page]",
	Short: "Fetch and print one page of events",
	Long: `Fetch events for an explorer page, apply filters and print one table page.

Range filters take min:max (either side may be empty), checkbox filters take
a comma separated list and text filters take the raw pattern.

Examples:
  quake-explorer query explore-data
  quake-explorer query explore-data --filter mag=4.5:10 --filter type=earthquake
  quake-explorer query explore-data-2 --search california --page 2 --page-size 50`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var exportCmd = &cobra.Command{
	Use:   "export [page]",
	Short: "Export the filtered events as CSV",
	Long: `Export every event matching the filters as CSV.

Examples:
  quake-explorer export explore-data-2 --filter alert=red,orange
  quake-explorer export explore-data-2 --file quakes.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var summaryCmd = &cobra.Command{
	Use:   "summary [page]",
	Short: "Summarize the filtered events",
	Long: `Print magnitude and depth distributions, type and alert counts and the
geographic extent of every event matching the filters.

Examples:
  quake-explorer summary explore-data-2 --filter mag=5:
  quake-explorer summary explore-data-2 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

var detailCmd = &cobra.Command{
	Use:   "detail [page] [event-id]",
	Short: "Show one event",
	Args:  cobra.ExactArgs(2),
	RunE:  runDetail,
}

func init() {
	for _, c := range []*cobra.Command{queryCmd, exportCmd, summaryCmd} {
		c.Flags().StringArrayVarP(&queryFilters, "filter", "f", nil, "filter as field=value (repeatable)")
		c.Flags().StringVarP(&querySearch, "search", "s", "", "free-text search term")
		c.Flags().DurationVar(&queryTimeout, "timeout", time.Minute, "how long to wait for the upstream service")
	}
	queryCmd.Flags().IntVar(&queryPage, "page", 1, "page number, starting at 1")
	queryCmd.Flags().IntVar(&queryPageSize, "page-size", 0, "rows per page: 25, 50, 100 or -1 for all (default is the page's)")
	exportCmd.Flags().StringVar(&exportFile, "file", "", "output file (default is stdout)")

	detailCmd.Flags().DurationVar(&queryTimeout, "timeout", time.Minute, "how long to wait for the upstream service")
}

func runPages(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	p, err := newPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	pages := a.service.Pages()
	t := table{
		headers: []string{"NAME", "TITLE", "MODE", "PAGE SIZE", "FILTERS", "MAP"},
		data:    pages,
	}
	for _, pg := range pages {
		t.rows = append(t.rows, []string{
			pg.Name,
			pg.Title,
			pg.QueryMode,
			strconv.Itoa(pg.PageSize),
			strconv.Itoa(len(pg.Filters)),
			strconv.FormatBool(pg.Map.Enabled),
		})
	}
	return p.print(t)
}

// parseFilter turns field=value into the raw value shape the filter's
// operator accepts
func parseFilter(def models.PageDefinition, expr string) (string, interface{}, error) {
	field, value, ok := strings.Cut(expr, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return "", nil, fmt.Errorf("invalid filter %q: expected field=value", expr)
	}

	var cfg *models.FilterConfig
	for i := range def.Filters {
		if def.Filters[i].Field == field {
			cfg = &def.Filters[i]
			break
		}
	}
	if cfg == nil {
		return "", nil, fmt.Errorf("%w: %s", models.ErrUnknownField, field)
	}

	switch cfg.Operator {
	case models.OpBetweenInclusive:
		loRaw, hiRaw, _ := strings.Cut(value, ":")
		lo, err := bound(loRaw, cfg.FilterProps.Min)
		if err != nil {
			return "", nil, fmt.Errorf("invalid minimum for %s: %w", field, err)
		}
		hi, err := bound(hiRaw, cfg.FilterProps.Max)
		if err != nil {
			return "", nil, fmt.Errorf("invalid maximum for %s: %w", field, err)
		}
		return field, []float64{lo, hi}, nil
	case models.OpContainsOneOf:
		var values []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		return field, values, nil
	default:
		return field, value, nil
	}
}

// bound parses one side of a range; an empty side takes the configured limit
func bound(s string, configured *float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if configured == nil {
			return 0, fmt.Errorf("no configured limit to default to")
		}
		return *configured, nil
	}
	return strconv.ParseFloat(s, 64)
}

// mountQuery opens a session on pageName with the command's filters and
// search term applied
func mountQuery(a *app, pageName string) (*service.Session, error) {
	def, err := a.service.Page(pageName)
	if err != nil {
		return nil, err
	}
	sess, err := a.service.Mount(pageName)
	if err != nil {
		return nil, err
	}

	for _, expr := range queryFilters {
		field, raw, err := parseFilter(def, expr)
		if err == nil {
			err = sess.SetFilter(field, raw)
		}
		if err != nil {
			_ = a.service.Unmount(sess.ID)
			return nil, err
		}
	}
	sess.SetSearch(querySearch)
	return sess, nil
}

// settle waits for the session's data and fails on an upstream error
func settle(sess *service.Session) (*service.View, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	view, err := sess.View(ctx, true)
	if err != nil {
		return nil, err
	}
	if view.Status.IsError {
		return nil, fmt.Errorf("failed to fetch events: %s", view.Status.Error)
	}
	return view, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	p, err := newPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	sess, err := mountQuery(a, args[0])
	if err != nil {
		return err
	}
	defer a.service.Unmount(sess.ID)

	def, _ := a.service.Page(args[0])
	size := queryPageSize
	if size == 0 {
		size = def.PageSize
	}
	if queryPage < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	// a size change resets to the first page, so resize before paging
	if size != def.PageSize {
		if err := sess.SetPagination(0, size); err != nil {
			return err
		}
	}
	if err := sess.SetPagination(queryPage-1, size); err != nil {
		return err
	}

	view, err := settle(sess)
	if err != nil {
		return err
	}

	t := table{data: view}
	for _, col := range def.Columns {
		t.headers = append(t.headers, strings.ToUpper(col.HeaderName))
	}
	for _, rec := range view.Rows {
		row := make([]string, 0, len(def.Columns))
		for _, col := range def.Columns {
			row = append(row, present.Cell(col, rec))
		}
		t.rows = append(t.rows, row)
	}
	if err := p.print(t); err != nil {
		return err
	}

	if p.format == formatTable {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nPage %d of %d (%d events)\n",
			view.Pagination.Page+1, max(view.TotalPages, 1), view.Total)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sess, err := mountQuery(a, args[0])
	if err != nil {
		return err
	}
	defer a.service.Unmount(sess.ID)

	if _, err := settle(sess); err != nil {
		return err
	}
	exp, err := sess.Export()
	if err != nil {
		return err
	}

	if exportFile == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), exp.Body)
		return err
	}
	if err := os.WriteFile(exportFile, []byte(exp.Body), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportFile, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d events to %s\n", exp.Rows, exportFile)
	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	p, err := newPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	sess, err := mountQuery(a, args[0])
	if err != nil {
		return err
	}
	defer a.service.Unmount(sess.ID)

	if _, err := settle(sess); err != nil {
		return err
	}
	return p.print(summaryTable(sess.Summary()))
}

func summaryTable(sum stats.Summary) table {
	t := table{headers: []string{"METRIC", "VALUE"}, data: sum}
	t.rows = append(t.rows, []string{"events", strconv.Itoa(sum.Count)})

	dist := func(name string, d *stats.Distribution) {
		if d == nil {
			t.rows = append(t.rows, []string{name, present.NA})
			return
		}
		t.rows = append(t.rows,
			[]string{name + " min/median/max", fmt.Sprintf("%.2f / %.2f / %.2f", d.Min, d.Median, d.Max)},
			[]string{name + " mean", fmt.Sprintf("%.2f (sd %.2f)", d.Mean, d.StdDev)},
			[]string{name + " p90", fmt.Sprintf("%.2f", d.P90)},
		)
	}
	dist("magnitude", sum.Magnitude)
	dist("depth", sum.Depth)

	for _, b := range sum.ByType {
		t.rows = append(t.rows, []string{"type " + b.Value, strconv.Itoa(b.Count)})
	}
	for _, b := range sum.ByAlert {
		t.rows = append(t.rows, []string{"alert " + b.Value, strconv.Itoa(b.Count)})
	}
	if e := sum.Extent; e != nil {
		t.rows = append(t.rows,
			[]string{"centroid", fmt.Sprintf("%.4f, %.4f", e.Centroid.Lat, e.Centroid.Lon)},
			[]string{"radius", fmt.Sprintf("%.1f km", e.RadiusKm)},
		)
	}
	return t
}

func runDetail(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	p, err := newPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	res, err := a.service.Detail(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if res.NotFound {
		return fmt.Errorf("event %s not found", args[1])
	}
	if res.IsError {
		return fmt.Errorf("failed to fetch event %s: %s", args[1], res.Error)
	}

	doc := present.Detail(res.Data)
	return p.print(documentTable(doc))
}

func documentTable(doc present.Document) table {
	t := table{headers: []string{"SECTION", "FIELD", "VALUE"}, data: doc}
	t.rows = append(t.rows, []string{"", "Title", doc.Title})
	for _, s := range doc.Sections {
		for _, r := range s.Rows {
			t.rows = append(t.rows, []string{s.Title, r.Label, r.Value})
		}
	}
	return t
}
