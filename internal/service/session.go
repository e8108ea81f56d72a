package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jengzang/quake-explorer-go/internal/compose"
	"github.com/jengzang/quake-explorer-go/internal/export"
	"github.com/jengzang/quake-explorer-go/internal/fetch"
	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/present"
	"github.com/jengzang/quake-explorer-go/internal/query"
	"github.com/jengzang/quake-explorer-go/internal/spatial"
	"github.com/jengzang/quake-explorer-go/internal/stats"
)

// Session is one mounted explorer page. All state changes go through its
// methods, which are serialized by mu.
type Session struct {
	ID string

	page *page
	now  func() time.Time

	mu         sync.Mutex
	filters    *models.ActiveFilterSet
	search     string
	pagination models.PaginationState
	selection  *compose.Selection
	hovered    string
	query      *fetch.ListQuery
	createdAt  time.Time
	lastSeen   time.Time
}

// View is the serializable state of a session after composition
type View struct {
	SessionID            string                        `json:"sessionId"`
	Page                 string                        `json:"page"`
	Mode                 query.Mode                    `json:"mode"`
	Status               models.ListResult             `json:"status"`
	Filters              map[string]models.FilterValue `json:"filters"`
	Search               string                        `json:"search"`
	Params               map[string]string             `json:"params"`
	Pagination           models.PaginationState        `json:"pagination"`
	Total                int                           `json:"total"`
	TotalPages           int                           `json:"totalPages"`
	Rows                 []models.Record               `json:"rows"`
	SelectedIDs          []string                      `json:"selectedIds"`
	SelectedCount        int                           `json:"selectedCount"`
	SelectionInvalidated bool                          `json:"selectionInvalidated"`
	Hovered              string                        `json:"hovered,omitempty"`
}

// Hover is the record under the cursor with its tooltip
type Hover struct {
	ID      string         `json:"id"`
	Record  models.Record  `json:"record"`
	Tooltip []present.Row  `json:"tooltip"`
	Circle  spatial.Circle `json:"circle"`
}

// Export is a rendered CSV download
type Export struct {
	Filename string
	Rows     int
	Body     string
}

// refresh resolves the current state and points the list query at it.
// The caller holds s.mu.
func (s *Session) refresh() query.Resolution {
	res := s.page.resolver.Resolve(s.filters, s.search, s.pagination)
	s.query.Update(res.Params)
	return res
}

// compose runs the fetched data through the current state. A selection the
// composition invalidates is dropped from the session. The caller holds s.mu.
func (s *Session) compose() (compose.View, query.Resolution, models.ListResult) {
	res := s.page.resolver.Resolve(s.filters, s.search, s.pagination)
	status := s.query.Result()
	v := compose.Compose(compose.Input{
		Data:       status.Data,
		Predicate:  res.Predicate,
		IDField:    s.page.def.IDField,
		Selection:  s.selection,
		Pagination: s.pagination,
		Paginated:  res.Paginated,
	})
	if v.Invalidated {
		log.Debug().Str("session", s.ID).Msg("Brush selection invalidated by data change")
		s.selection = nil
	}
	return v, res, status
}

// clearSelection drops the brush after a filter or search change
func (s *Session) clearSelection() {
	s.selection = nil
	s.hovered = ""
}

// View composes the current state. With wait set it first blocks until the
// in-flight request settles or ctx is done.
func (s *Session) View(ctx context.Context, wait bool) (*View, error) {
	if wait {
		if _, err := s.query.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for data: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, res, status := s.compose()
	view := &View{
		SessionID:            s.ID,
		Page:                 s.page.def.Name,
		Mode:                 s.page.mode,
		Status:               status,
		Filters:              s.filters.Snapshot(),
		Search:               s.search,
		Params:               res.Params,
		Pagination:           v.Pagination,
		Total:                v.Total,
		TotalPages:           v.TotalPages,
		Rows:                 v.Rows,
		SelectedIDs:          []string{},
		SelectedCount:        v.SelectedCount(),
		SelectionInvalidated: v.Invalidated,
		Hovered:              s.hovered,
	}
	if v.Selection != nil {
		view.SelectedIDs = v.Selection.IDs
	}
	return view, nil
}

// SetFilter validates raw against the field's operator and applies it.
// A value that does not constrain anything clears the filter.
func (s *Session) SetFilter(field string, raw interface{}) error {
	cfg, ok := models.FindFilterConfig(s.page.def.Filters, field)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownField, field)
	}
	value, err := models.NewFilterValue(cfg, raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if value.Active(cfg) {
		if err := s.filters.Set(cfg, value); err != nil {
			return err
		}
	} else {
		s.filters.Clear(field)
	}
	s.pagination.Page = 0
	s.clearSelection()
	s.refresh()
	return nil
}

// ClearFilter removes one filter
func (s *Session) ClearFilter(field string) error {
	if _, ok := models.FindFilterConfig(s.page.def.Filters, field); !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownField, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filters.Clear(field) {
		s.pagination.Page = 0
		s.clearSelection()
		s.refresh()
	}
	return nil
}

// ClearFilters removes every filter
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters.ClearAll()
	s.pagination.Page = 0
	s.clearSelection()
	s.refresh()
}

// SetSearch replaces the free-text search term
func (s *Session) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term = strings.TrimSpace(term)
	if term == s.search {
		return
	}
	s.search = term
	s.pagination.Page = 0
	s.clearSelection()
	s.refresh()
}

// SetPagination applies a table pagination change
func (s *Session) SetPagination(page, pageSize int) error {
	if !models.ValidPageSize(pageSize) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pagination = s.pagination.Apply(page, pageSize)
	s.refresh()
	return nil
}

// circles projects the filtered records onto the page's map. The caller holds s.mu.
func (s *Session) circles(filtered []models.Record) ([]spatial.Circle, error) {
	if !s.page.def.Map.Enabled {
		return nil, ErrMapDisabled
	}
	return spatial.Circles(filtered, s.page.viewport, s.page.def.IDField), nil
}

// Brush selects the events whose circles touch the rectangle and returns
// how many were selected. An empty brush clears the selection.
func (s *Session) Brush(rect spatial.BrushRect) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, _, _ := s.compose()
	circles, err := s.circles(v.Filtered)
	if err != nil {
		return 0, err
	}

	ids := spatial.BrushSelect(circles, rect)
	s.selection = compose.NewSelection(ids, v.Filtered, s.page.def.IDField)
	if s.selection == nil {
		return 0, nil
	}
	log.Debug().Str("session", s.ID).Int("selected", len(s.selection.IDs)).Msg("Brush selection applied")
	return len(s.selection.IDs), nil
}

// ClearBrush drops the selection
func (s *Session) ClearBrush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

// Hover hit-tests the map at (x, y) and remembers the hovered event
func (s *Session) Hover(x, y float64) (*Hover, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, _, _ := s.compose()
	circles, err := s.circles(v.Filtered)
	if err != nil {
		return nil, err
	}

	c, ok := spatial.HitTest(circles, x, y)
	if !ok {
		s.hovered = ""
		return nil, nil
	}
	s.hovered = c.ID
	return &Hover{
		ID:      c.ID,
		Record:  c.Record,
		Tooltip: present.Tooltip(c.Record),
		Circle:  c,
	}, nil
}

// Map renders the map frame. brush is an in-progress drag rectangle, or nil.
func (s *Session) Map(brush *spatial.BrushRect) (spatial.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, _, _ := s.compose()
	circles, err := s.circles(v.Filtered)
	if err != nil {
		return spatial.Frame{}, err
	}
	return spatial.RenderFrame(s.page.viewport, circles, v.Selection.Set(), s.hovered, brush), nil
}

// Export renders every composed row, not just the current page, with the
// page's export columns
func (s *Session) Export() (*Export, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, _, _ := s.compose()
	var b strings.Builder
	if err := export.WriteCSV(&b, v.Composed, s.page.def.ExportFields()); err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}
	return &Export{
		Filename: export.Filename(s.page.def.ExportFilename, s.now()),
		Rows:     len(v.Composed),
		Body:     b.String(),
	}, nil
}

// Summary describes the composed rows. In server mode that is the
// fetched page only.
func (s *Session) Summary() stats.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, _, _ := s.compose()
	return stats.Summarize(v.Composed)
}

// Preview renders the side panel for a row the session currently shows
func (s *Session) Preview(eventID string) (present.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, _, _ := s.compose()
	for _, r := range v.Composed {
		if r.ID(s.page.def.IDField) == eventID {
			return present.Preview(r), nil
		}
	}
	return present.Document{}, fmt.Errorf("%w: %s", models.ErrRecordNotFound, eventID)
}
