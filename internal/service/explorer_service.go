package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jengzang/quake-explorer-go/internal/fetch"
	"github.com/jengzang/quake-explorer-go/internal/metrics"
	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/query"
	"github.com/jengzang/quake-explorer-go/internal/spatial"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPageNotFound    = errors.New("page not found")
	ErrMapDisabled     = errors.New("map is not enabled for this page")
	ErrInvalidPageSize = errors.New("invalid page size")
)

// Purger removes persisted responses fetched before cutoff
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// Options configures an ExplorerService
type Options struct {
	// SessionTTL is how long an untouched session lives
	SessionTTL time.Duration
	// CacheMaxAge bounds in-memory cache entries during cleanup; 0 keeps them
	CacheMaxAge time.Duration
	// Store and PersistTTL enable purging of the persistent cache during cleanup
	Store      Purger
	PersistTTL time.Duration
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

// page is a validated page definition with its resolver and map viewport
type page struct {
	def      models.PageDefinition
	mode     query.Mode
	resolver query.Resolver
	viewport spatial.Viewport
}

// ExplorerService owns the explorer page sessions
type ExplorerService struct {
	client *fetch.Client
	pages  map[string]*page
	order  []string
	opts   Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewExplorerService prepares a resolver for every page definition
func NewExplorerService(client *fetch.Client, defs []models.PageDefinition, opts Options) (*ExplorerService, error) {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &ExplorerService{
		client:   client,
		pages:    make(map[string]*page, len(defs)),
		opts:     opts,
		sessions: make(map[string]*Session),
	}
	for _, def := range defs {
		mode, err := query.ParseMode(def.QueryMode)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare page %s: %w", def.Name, err)
		}
		resolver, err := query.NewResolver(mode, query.Options{
			Filters:      def.Filters,
			StaticParams: def.StaticParams,
			SearchFields: def.SearchFields,
			Pagination:   def.Pagination,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to prepare page %s: %w", def.Name, err)
		}
		if _, dup := s.pages[def.Name]; dup {
			return nil, fmt.Errorf("failed to prepare page %s: duplicate name", def.Name)
		}
		s.pages[def.Name] = &page{
			def:      def,
			mode:     mode,
			resolver: resolver,
			viewport: viewportFor(def.Map),
		}
		s.order = append(s.order, def.Name)
	}
	return s, nil
}

func viewportFor(m models.MapSettings) spatial.Viewport {
	if m.Bounds == nil {
		return spatial.NewViewport(spatial.DefaultLonMin, spatial.DefaultLonMax,
			spatial.DefaultLatMin, spatial.DefaultLatMax, m.Width)
	}
	b := m.Bounds
	return spatial.NewViewport(b.LonMin, b.LonMax, b.LatMin, b.LatMax, m.Width)
}

// Pages returns the page definitions in configuration order
func (s *ExplorerService) Pages() []models.PageDefinition {
	out := make([]models.PageDefinition, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.pages[name].def)
	}
	return out
}

// Page returns one page definition
func (s *ExplorerService) Page(name string) (models.PageDefinition, error) {
	p, ok := s.pages[name]
	if !ok {
		return models.PageDefinition{}, fmt.Errorf("%w: %s", ErrPageNotFound, name)
	}
	return p.def, nil
}

// Mount opens a session on a page and starts its first fetch
func (s *ExplorerService) Mount(pageName string) (*Session, error) {
	p, ok := s.pages[pageName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageName)
	}

	now := s.opts.Now()
	sess := &Session{
		ID:         uuid.NewString(),
		page:       p,
		now:        s.opts.Now,
		filters:    models.NewActiveFilterSet(),
		pagination: models.PaginationState{PageSize: p.def.PageSize},
		query:      s.client.NewListQuery(p.def.DataSource),
		createdAt:  now,
		lastSeen:   now,
	}

	sess.mu.Lock()
	sess.refresh()
	sess.mu.Unlock()

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.opts.Metrics.SetActiveSessions(n)
	log.Info().
		Str("session", sess.ID).
		Str("page", pageName).
		Str("mode", string(p.mode)).
		Msg("Session mounted")
	return sess, nil
}

// Unmount closes a session; a response still in flight is discarded
func (s *ExplorerService) Unmount(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.query.Close()
	s.opts.Metrics.SetActiveSessions(n)
	log.Info().Str("session", id).Msg("Session unmounted")
	return nil
}

// Session returns a live session and marks it as used
func (s *ExplorerService) Session(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	sess.mu.Lock()
	sess.lastSeen = s.opts.Now()
	sess.mu.Unlock()
	return sess, nil
}

// SessionCount returns the number of live sessions
func (s *ExplorerService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Detail looks up one event for a page outside of any session
func (s *ExplorerService) Detail(ctx context.Context, pageName, eventID string) (models.DetailResult, error) {
	p, ok := s.pages[pageName]
	if !ok {
		return models.DetailResult{}, fmt.Errorf("%w: %s", ErrPageNotFound, pageName)
	}
	res := s.client.Detail(ctx, fetch.DetailOptions{
		DataSource: p.def.DataSource,
		Mode:       p.mode,
		IDField:    p.def.IDField,
		IDParam:    p.def.IDParam,
		Static:     p.def.StaticParams,
	}, eventID)
	return res, nil
}

// ExpireIdle closes sessions unused for longer than the session TTL and
// prunes expired cache entries. It returns the number of closed sessions.
func (s *ExplorerService) ExpireIdle(ctx context.Context) int {
	cutoff := s.opts.Now().Add(-s.opts.SessionTTL)

	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.query.Close()
		log.Debug().Str("session", sess.ID).Msg("Session expired")
	}
	if len(expired) > 0 {
		s.opts.Metrics.SetActiveSessions(n)
	}

	if s.opts.CacheMaxAge > 0 {
		if pruned := s.client.Prune(s.opts.CacheMaxAge); pruned > 0 {
			log.Debug().Int("entries", pruned).Msg("Pruned response cache")
		}
	}
	if s.opts.Store != nil && s.opts.PersistTTL > 0 {
		purged, err := s.opts.Store.Purge(ctx, s.opts.Now().Add(-s.opts.PersistTTL))
		if err != nil {
			log.Warn().Err(err).Msg("Failed to purge persisted responses")
		} else if purged > 0 {
			log.Debug().Int64("entries", purged).Msg("Purged persisted responses")
		}
	}
	return len(expired)
}

// StartCleanup expires idle sessions every interval until ctx is done
func (s *ExplorerService) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.ExpireIdle(ctx); n > 0 {
					log.Info().Int("sessions", n).Msg("Expired idle sessions")
				}
			}
		}
	}()
}

// Close unmounts every session
func (s *ExplorerService) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.query.Close()
	}
	s.opts.Metrics.SetActiveSessions(0)
}
