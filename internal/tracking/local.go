//go:build cgo

package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// IsCgoEnabled indicates whether CGO is enabled for SQLite support
const IsCgoEnabled = true

/*
────────────────────────────────────────────────────────────────────────────*
│  Configuration                                                             │
*────────────────────────────────────────────────────────────────────────────
*/
const (
	defaultCacheSize  = -20000    // 20MB
	mmapSize          = 268435456 // 256MB
	busyTimeout       = 5000      // 5 seconds
	walAutoCheckpoint = 1000      // pages
	maxOpenConns      = 5
	maxIdleConns      = 2
	defaultRecent     = 20
	historyTable      = "resolution_history"
)

// LocalTracker stores resolution events in SQLite
type LocalTracker struct {
	db       *sql.DB
	squirrel sq.StatementBuilderType
}

/*
────────────────────────────────────────────────────────────────────────────*
│  Constructor                                                               │
*────────────────────────────────────────────────────────────────────────────
*/

// NewLocalTracker opens (or creates) the history database at dbPath
func NewLocalTracker(dbPath string) (*LocalTracker, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, errors.Wrap(err, "error creating data directory")
	}

	path := dbPath
	// SQLite URIs need forward slashes on Windows
	if runtime.GOOS == "windows" {
		path = strings.ReplaceAll(dbPath, "\\", "/")
	}
	dsn := fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_synchronous=NORMAL&_wal_autocheckpoint=%d&"+
			"_busy_timeout=%d&_cache_size=%d&_mmap_size=%d&mode=rwc",
		path,
		walAutoCheckpoint,
		busyTimeout,
		defaultCacheSize,
		mmapSize,
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "error opening database")
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	if err := initializeDatabase(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "error initializing database")
	}

	return &LocalTracker{
		db:       db,
		squirrel: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

func initializeDatabase(db *sql.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS resolution_history (
		id                     INTEGER PRIMARY KEY AUTOINCREMENT,
		episode_id             TEXT    NOT NULL,
		anime_slug             TEXT,
		outcome                TEXT    NOT NULL,
		sources                INTEGER NOT NULL CHECK(sources >= 0),
		has_watchanimeworld    INTEGER NOT NULL,
		has_animehindidubbed   INTEGER NOT NULL,
		duration_ms            INTEGER NOT NULL,
		created_at             INTEGER NOT NULL
	);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_history_created ON resolution_history(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_history_outcome ON resolution_history(outcome)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index creation '%s' failed: %w", idx, err)
		}
	}

	if _, err := db.Exec(`PRAGMA optimize`); err != nil {
		return fmt.Errorf("initial optimization failed: %w", err)
	}
	return nil
}

/*
────────────────────────────────────────────────────────────────────────────*
│  Operations                                                                │
*────────────────────────────────────────────────────────────────────────────
*/

// Record implements Recorder
func (t *LocalTracker) Record(ctx context.Context, e Event) error {
	if t == nil || t.db == nil {
		return ErrTrackerNotInited
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Sources < 0 {
		e.Sources = 0
	}

	query, args, err := t.squirrel.
		Insert(historyTable).
		Columns("episode_id", "anime_slug", "outcome", "sources",
			"has_watchanimeworld", "has_animehindidubbed", "duration_ms", "created_at").
		Values(e.EpisodeID, e.AnimeSlug, string(e.Outcome), e.Sources,
			e.HasWatchAnimeWorld, e.HasAnimeHindiDubbed, e.Duration.Milliseconds(), e.CreatedAt.UnixMilli()).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}
	return nil
}

// Recent returns the newest events first
func (t *LocalTracker) Recent(ctx context.Context, limit int) ([]Event, error) {
	if t == nil || t.db == nil {
		return nil, ErrTrackerNotInited
	}
	if limit <= 0 {
		limit = defaultRecent
	}

	query, args, err := t.squirrel.
		Select("id", "episode_id", "COALESCE(anime_slug, '')", "outcome", "sources",
			"has_watchanimeworld", "has_animehindidubbed", "duration_ms", "created_at").
		From(historyTable).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer func() { _ = rows.Close() }()

	list := make([]Event, 0, limit)
	for rows.Next() {
		var (
			e          Event
			outcome    string
			durationMS int64
			createdMS  int64
		)
		if err := rows.Scan(
			&e.ID,
			&e.EpisodeID,
			&e.AnimeSlug,
			&outcome,
			&e.Sources,
			&e.HasWatchAnimeWorld,
			&e.HasAnimeHindiDubbed,
			&durationMS,
			&createdMS,
		); err != nil {
			return nil, fmt.Errorf("row scan failed: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.CreatedAt = time.UnixMilli(createdMS)
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return list, nil
}

// CountByOutcome returns how many events ended in each outcome
func (t *LocalTracker) CountByOutcome(ctx context.Context) (map[Outcome]int, error) {
	if t == nil || t.db == nil {
		return nil, ErrTrackerNotInited
	}

	query, args, err := t.squirrel.
		Select("outcome", "COUNT(*)").
		From(historyTable).
		GroupBy("outcome").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[Outcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("row scan failed: %w", err)
		}
		counts[Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

// Close closes the database
func (t *LocalTracker) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	if err := t.db.Close(); err != nil {
		return fmt.Errorf("database close error: %w", err)
	}
	return nil
}
