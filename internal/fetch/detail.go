package fetch

import (
	"context"
	"errors"

	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/query"
)

// DetailOptions describes where a single record is looked up
type DetailOptions struct {
	DataSource string
	Mode       query.Mode
	IDField    string
	// IDParam is the remote parameter carrying the id in server mode
	IDParam string
	Static  map[string]string
}

// Detail looks up one record by id. In client mode the record is taken from
// the cached list for the static parameters, fetching that list when it is
// not cached yet. In server mode a dedicated request is made. An id that
// does not exist yields NotFound, never an error.
func (c *Client) Detail(ctx context.Context, opts DetailOptions, id string) models.DetailResult {
	if opts.IDField == "" {
		opts.IDField = "id"
	}

	var (
		records []models.Record
		err     error
	)
	switch opts.Mode {
	case query.ModeClient:
		key := query.CacheKey(opts.DataSource, query.KindList, opts.Static)
		cached, _, _, ok := c.Cached(key)
		if ok {
			records = cached
		} else {
			records, _, err = c.Fetch(ctx, opts.DataSource, query.KindList, opts.Static)
		}
	default:
		idParam := opts.IDParam
		if idParam == "" {
			idParam = opts.IDField
		}
		params := query.Merge(opts.Static, map[string]string{idParam: id})
		records, _, err = c.Fetch(ctx, opts.DataSource, query.KindDetail, params)
	}

	if errors.Is(err, models.ErrRecordNotFound) {
		return models.DetailResult{NotFound: true}
	}
	if err != nil {
		return models.DetailResult{IsError: true, Error: err.Error()}
	}

	for _, r := range records {
		if r.ID(opts.IDField) == id {
			return models.DetailResult{Data: r}
		}
	}
	// an alternate id resolves to the preferred event
	if opts.Mode != query.ModeClient && len(records) == 1 {
		return models.DetailResult{Data: records[0]}
	}
	return models.DetailResult{NotFound: true}
}
