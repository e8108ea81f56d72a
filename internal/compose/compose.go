// Package compose builds the rows a page renders from fetched data, the
// current predicate, the brush selection and the pagination state. The map,
// the table and CSV export all read the same View.
package compose

import (
	"github.com/cespare/xxhash/v2"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

// Selection is a brush selection bound to the filtered set it was made against
type Selection struct {
	IDs         []string `json:"ids"`
	Fingerprint uint64   `json:"fingerprint"`

	set map[string]bool
}

// NewSelection selects ids out of filtered. Ids not present in filtered are
// dropped; selecting nothing yields nil, which means "no brush".
func NewSelection(ids []string, filtered []models.Record, idField string) *Selection {
	present := make(map[string]bool, len(filtered))
	for _, r := range filtered {
		present[r.ID(idField)] = true
	}

	set := make(map[string]bool, len(ids))
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if present[id] && !set[id] {
			set[id] = true
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &Selection{
		IDs:         kept,
		Fingerprint: Fingerprint(filtered, idField),
		set:         set,
	}
}

// Has reports whether id is selected
func (s *Selection) Has(id string) bool {
	if s == nil {
		return false
	}
	if s.set != nil {
		return s.set[id]
	}
	for _, x := range s.IDs {
		if x == id {
			return true
		}
	}
	return false
}

// Set returns the selected ids as a lookup map
func (s *Selection) Set() map[string]bool {
	if s == nil {
		return nil
	}
	out := make(map[string]bool, len(s.IDs))
	for _, id := range s.IDs {
		out[id] = true
	}
	return out
}

// Fingerprint hashes the ordered identifiers of records
func Fingerprint(records []models.Record, idField string) uint64 {
	d := xxhash.New()
	for _, r := range records {
		d.WriteString(r.ID(idField))
		d.Write([]byte{0})
	}
	return d.Sum64()
}

// Input is the explicit state one composition pass depends on
type Input struct {
	Data      []models.Record
	Predicate func(models.Record) bool
	IDField   string
	Selection *Selection
	// Pagination is applied locally unless Paginated is set
	Pagination models.PaginationState
	// Paginated means Data is already the requested page
	Paginated bool
}

// View is the composed result
type View struct {
	// Filtered feeds the map
	Filtered []models.Record
	// Composed is Filtered narrowed by the brush; the table and export read it
	Composed []models.Record
	// Rows is the page of Composed the table shows
	Rows        []models.Record
	Selection   *Selection
	Invalidated bool
	Total       int
	Pagination  models.PaginationState
	TotalPages  int
}

// SelectedCount is the number of rows the brush and filters leave
func (v View) SelectedCount() int {
	return len(v.Composed)
}

// Compose runs fetched data through filters, brush and pagination.
// A selection made against a different filtered set is cleared.
func Compose(in Input) View {
	filtered := make([]models.Record, 0, len(in.Data))
	for _, r := range in.Data {
		if in.Predicate == nil || in.Predicate(r) {
			filtered = append(filtered, r)
		}
	}

	v := View{Filtered: filtered, Composed: filtered}

	sel := in.Selection
	if sel != nil && sel.Fingerprint != Fingerprint(filtered, in.IDField) {
		sel = nil
		v.Invalidated = true
	}
	if sel != nil {
		selected := sel.Set()
		composed := make([]models.Record, 0, len(sel.IDs))
		for _, r := range filtered {
			if selected[r.ID(in.IDField)] {
				composed = append(composed, r)
			}
		}
		v.Composed = composed
	}
	v.Selection = sel
	v.Total = len(v.Composed)

	p := in.Pagination
	if p.PageSize == 0 {
		p.PageSize = models.PageSizeAll
	}
	if in.Paginated {
		v.Rows = v.Composed
		v.Pagination = p
		return v
	}

	if tp := p.TotalPages(v.Total); p.Page >= tp && tp > 0 {
		p.Page = tp - 1
	}
	start, end := p.Bounds(v.Total)
	v.Rows = v.Composed[start:end]
	v.Pagination = p
	v.TotalPages = p.TotalPages(v.Total)
	return v
}
