package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

// ResponseCacheRepository persists fetched responses keyed by canonical request key
type ResponseCacheRepository struct {
	db *sql.DB
}

// NewResponseCacheRepository creates a new response cache repository
func NewResponseCacheRepository(db *sql.DB) *ResponseCacheRepository {
	return &ResponseCacheRepository{db: db}
}

// CacheEntrySummary describes one persisted response without its payload
type CacheEntrySummary struct {
	Key       string    `json:"key"`
	Source    string    `json:"source"`
	Kind      string    `json:"kind"`
	Records   int       `json:"records"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Load returns the persisted records for key
func (r *ResponseCacheRepository) Load(ctx context.Context, key string) ([]models.Record, time.Time, bool, error) {
	var payload string
	var fetchedAt int64
	err := r.db.QueryRowContext(ctx,
		"SELECT payload, fetched_at FROM response_cache WHERE cache_key = ?", key,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to load cached response: %w", err)
	}

	var records []models.Record
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to decode cached response: %w", err)
	}
	return records, time.UnixMilli(fetchedAt), true, nil
}

// Save inserts or replaces the persisted records for key
func (r *ResponseCacheRepository) Save(ctx context.Context, key string, records []models.Record, fetchedAt time.Time) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	kind, source := splitKey(key)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO response_cache (cache_key, source, kind, payload, records, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload,
			records = excluded.records,
			fetched_at = excluded.fetched_at`,
		key, source, kind, string(payload), len(records), fetchedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save cached response: %w", err)
	}
	return nil
}

// Purge deletes entries fetched before cutoff
func (r *ResponseCacheRepository) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM response_cache WHERE fetched_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cached responses: %w", err)
	}
	return result.RowsAffected()
}

// List returns summaries of all persisted entries, newest first
func (r *ResponseCacheRepository) List(ctx context.Context) ([]CacheEntrySummary, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT cache_key, source, kind, records, fetched_at FROM response_cache ORDER BY fetched_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query cached responses: %w", err)
	}
	defer rows.Close()

	var entries []CacheEntrySummary
	for rows.Next() {
		var e CacheEntrySummary
		var fetchedAt int64
		if err := rows.Scan(&e.Key, &e.Source, &e.Kind, &e.Records, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cached response: %w", err)
		}
		e.FetchedAt = time.UnixMilli(fetchedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// splitKey extracts kind and source from "kind source?params"
func splitKey(key string) (kind, source string) {
	kind, rest, ok := strings.Cut(key, " ")
	if !ok {
		return "", key
	}
	source, _, _ = strings.Cut(rest, "?")
	return kind, source
}
