package query

import (
	"fmt"

	"github.com/jengzang/quake-explorer-go/internal/filter"
	"github.com/jengzang/quake-explorer-go/internal/models"
)

// Mode selects where filtering and pagination happen
type Mode string

const (
	ModeServer Mode = "server"
	ModeClient Mode = "client"
)

// ParseMode validates a query mode string
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeServer, ModeClient:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unsupported query mode %q (valid: server, client)", s)
}

// Resolution is what a page needs to fetch and display data for the current state
type Resolution struct {
	// Params are the remote query parameters
	Params map[string]string
	// Predicate keeps the records that pass the locally evaluated filters and search
	Predicate func(models.Record) bool
	// Paginated is true when the remote already returned a single page
	Paginated bool
}

// Resolver turns filter, search and pagination state into a Resolution.
// A page picks its resolver once, so call sites never branch on the mode.
type Resolver interface {
	Mode() Mode
	Resolve(active *models.ActiveFilterSet, search string, p models.PaginationState) Resolution
}

// Options shared by both resolvers
type Options struct {
	Filters      []models.FilterConfig
	StaticParams map[string]string
	SearchFields []string
	Pagination   models.PaginationParams
}

// NewResolver returns the resolver for mode
func NewResolver(mode Mode, opts Options) (Resolver, error) {
	switch mode {
	case ModeServer:
		return &ServerQuery{opts: opts, residual: filter.Residual(opts.Filters)}, nil
	case ModeClient:
		return &ClientQuery{opts: opts}, nil
	}
	return nil, fmt.Errorf("unsupported query mode %q", mode)
}

// ServerQuery sends translatable filters and pagination to the remote source
// and evaluates only the remaining filters and the search term locally.
type ServerQuery struct {
	opts     Options
	residual []models.FilterConfig
}

func (q *ServerQuery) Mode() Mode { return ModeServer }

func (q *ServerQuery) Resolve(active *models.ActiveFilterSet, search string, p models.PaginationState) Resolution {
	params := Merge(
		BuildParams(active, q.opts.Filters, q.opts.StaticParams),
		PaginationParams(p, q.opts.Pagination),
	)
	return Resolution{
		Params:    params,
		Predicate: filter.Predicate(active, q.residual, search, q.opts.SearchFields),
		Paginated: p.PageSize > 0,
	}
}

// ClientQuery fetches the static superset once and evaluates every filter locally
type ClientQuery struct {
	opts Options
}

func (q *ClientQuery) Mode() Mode { return ModeClient }

func (q *ClientQuery) Resolve(active *models.ActiveFilterSet, search string, _ models.PaginationState) Resolution {
	return Resolution{
		Params:    Merge(q.opts.StaticParams),
		Predicate: filter.Predicate(active, q.opts.Filters, search, q.opts.SearchFields),
		Paginated: false,
	}
}
