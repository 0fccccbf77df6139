// Package storage persists events and the geocode cache in a single SQLite
// database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/incident-radar/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	link TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	event_time TIMESTAMP NOT NULL,
	lat REAL,
	lon REAL,
	geo_accuracy REAL,
	category TEXT NOT NULL DEFAULT '',
	fingerprint INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_event_time ON events(event_time);

CREATE TABLE IF NOT EXISTS geocache (
	query TEXT PRIMARY KEY,
	lat REAL,
	lon REAL,
	accuracy REAL,
	resolved_at TIMESTAMP NOT NULL
);
`

// GeocacheEntry is one row of the durable geocode cache. Nil coordinates
// record a lookup that found nothing, so repeated misses never re-hit the
// external service.
type GeocacheEntry struct {
	Query      string
	Lat        *float64
	Lon        *float64
	Accuracy   *float64
	ResolvedAt time.Time
}

// Store wraps the SQLite database holding events and the geocode cache.
type Store struct {
	db *sql.DB

	insertEvent *sql.Stmt
	getCache    *sql.Stmt
	putCache    *sql.Stmt
}

// Open opens (creating if necessary) the database at path and applies the
// schema. An unreadable or corrupt database fails here, before any pipeline
// work begins.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return s, nil
}

func (s *Store) prepareStatements() error {
	var err error

	s.insertEvent, err = s.db.Prepare(`
		INSERT INTO events (source, title, link, summary, event_time, lat, lon, geo_accuracy, category, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getCache, err = s.db.Prepare(`
		SELECT lat, lon, accuracy, resolved_at FROM geocache WHERE query = ?
	`)
	if err != nil {
		return err
	}

	s.putCache, err = s.db.Prepare(`
		INSERT OR REPLACE INTO geocache (query, lat, lon, accuracy, resolved_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	return err
}

// InsertEvents persists a batch in one transaction and returns the events
// with their assigned identifiers. AUTOINCREMENT keeps ids unique and
// monotonically increasing within the store.
func (s *Store) InsertEvents(ctx context.Context, events []domain.Event) ([]domain.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt := tx.StmtContext(ctx, s.insertEvent)
	out := make([]domain.Event, len(events))
	for i, e := range events {
		res, err := stmt.ExecContext(ctx,
			e.Source, e.Title, e.Link, e.Summary, e.EventTime.UTC(),
			nullableFloat(e.Lat), nullableFloat(e.Lon), nullableFloat(e.GeoAccuracy),
			e.Category, int64(e.Fingerprint),
		)
		if err != nil {
			return nil, fmt.Errorf("insert event: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("read inserted id: %w", err)
		}
		e.ID = id
		out[i] = e
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert tx: %w", err)
	}
	return out, nil
}

// AllEvents returns the full persisted event set, oldest id first. The
// flagging engine treats the result as a consistent read snapshot.
func (s *Store) AllEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, title, link, summary, event_time, lat, lon, geo_accuracy, category, fingerprint
		FROM events ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			e             domain.Event
			lat, lon, acc sql.NullFloat64
			fp            int64
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Title, &e.Link, &e.Summary,
			&e.EventTime, &lat, &lon, &acc, &e.Category, &fp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Lat = floatPtr(lat)
		e.Lon = floatPtr(lon)
		e.GeoAccuracy = floatPtr(acc)
		e.Fingerprint = uint64(fp)
		e.EventTime = e.EventTime.UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEvents reports the number of persisted events.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// GetGeocache returns the cache entry for an exact query string, or nil when
// the query was never attempted.
func (s *Store) GetGeocache(ctx context.Context, query string) (*GeocacheEntry, error) {
	var (
		lat, lon, acc sql.NullFloat64
		resolvedAt    time.Time
	)
	err := s.getCache.QueryRowContext(ctx, query).Scan(&lat, &lon, &acc, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get geocache %q: %w", query, err)
	}
	return &GeocacheEntry{
		Query:      query,
		Lat:        floatPtr(lat),
		Lon:        floatPtr(lon),
		Accuracy:   floatPtr(acc),
		ResolvedAt: resolvedAt.UTC(),
	}, nil
}

// PutGeocache upserts a cache entry, last write wins.
func (s *Store) PutGeocache(ctx context.Context, e GeocacheEntry) error {
	_, err := s.putCache.ExecContext(ctx, e.Query,
		nullableFloat(e.Lat), nullableFloat(e.Lon), nullableFloat(e.Accuracy),
		e.ResolvedAt.UTC())
	if err != nil {
		return fmt.Errorf("put geocache %q: %w", e.Query, err)
	}
	return nil
}

// Close releases prepared statements and the database handle.
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{s.insertEvent, s.getCache, s.putCache} {
		if stmt != nil {
			stmt.Close() //nolint:errcheck // best effort before closing db
		}
	}
	return s.db.Close()
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
