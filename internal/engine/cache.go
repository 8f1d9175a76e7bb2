package engine

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// FileCache is a SQLite-backed record of each log file's size, modification
// time, and the timestamp range seen in its last scan. The loader skips
// re-reading a file only when it is unchanged AND its recorded range lies
// outside the requested window; an unchanged file whose range overlaps the
// window is read again. Generalized
// from teacher's TokenCache (internal/metrics/cache.go): same WAL
// connection string and retry-on-lock convention, narrowed to the one
// table (file_state) the loader actually needs — the per-call dedup set
// and the cost/P90 caches stay in-process (spec.md §9; see DESIGN.md).
type FileCache struct {
	db *sql.DB
	mu sync.Mutex
}

const (
	fileCacheMaxRetries     = 3
	fileCacheBaseRetryDelay = 50 * time.Millisecond
	fileCacheMaxRetryDelay  = 200 * time.Millisecond
)

// DefaultCachePath returns $HOME/.ccdash/filestate.db, or "" if $HOME
// cannot be resolved, matching teacher's cacheDirName convention.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".ccdash", "filestate.db")
}

// NewFileCache opens (creating if necessary) a SQLite file-state cache at
// path. A nil *FileCache with a non-nil error means the loader should fall
// back to scanning every file from the start, which is always correct,
// only slower.
func NewFileCache(path string) (*FileCache, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	connStr := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=30000&_txlock=immediate"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS file_state (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		min_ts INTEGER NOT NULL,
		max_ts INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &FileCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *FileCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// fileSummary is the cached size/mtime/timestamp-range for one log file.
type fileSummary struct {
	size         int64
	modTime      time.Time
	minTS, maxTS time.Time
}

// Lookup returns the cached summary for path, and whether it is still
// valid for the file's current size and modification time. An invalid or
// missing entry means the loader must scan the file.
func (c *FileCache) Lookup(ctx context.Context, path string, size int64, modTime time.Time) (fileSummary, bool) {
	if c == nil {
		return fileSummary{}, false
	}

	type row struct {
		size, modTime, minTS, maxTS int64
	}

	// Scan (not just QueryRowContext) is where a lock error actually
	// surfaces, so it must run inside the retried closure too.
	got, err := withRetry(ctx, func() (row, error) {
		var r row
		err := c.db.QueryRowContext(ctx,
			"SELECT size, mod_time, min_ts, max_ts FROM file_state WHERE path = ?", path).
			Scan(&r.size, &r.modTime, &r.minTS, &r.maxTS)
		return r, err
	})
	if err != nil {
		return fileSummary{}, false
	}
	if got.size != size || got.modTime != modTime.Unix() {
		return fileSummary{}, false
	}
	return fileSummary{
		size:    got.size,
		modTime: modTime,
		minTS:   time.Unix(got.minTS, 0).UTC(),
		maxTS:   time.Unix(got.maxTS, 0).UTC(),
	}, true
}

// Store records path's size, modification time, and the min/max record
// timestamp observed in its most recent full scan.
func (c *FileCache) Store(ctx context.Context, path string, size int64, modTime, minTS, maxTS time.Time) error {
	if c == nil {
		return nil
	}
	return withRetryNoResult(ctx, func() error {
		_, err := c.db.ExecContext(ctx,
			`INSERT INTO file_state (path, size, mod_time, min_ts, max_ts)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET size=excluded.size, mod_time=excluded.mod_time, min_ts=excluded.min_ts, max_ts=excluded.max_ts`,
			path, size, modTime.Unix(), minTS.Unix(), maxTS.Unix())
		return err
	})
}

// withRetry runs operation with exponential backoff on SQLite lock errors,
// matching teacher's withRetry[T] helper in internal/metrics/cache.go.
func withRetry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	var result T
	var lastErr error
	delay := fileCacheBaseRetryDelay

	for attempt := 0; attempt < fileCacheMaxRetries; attempt++ {
		result, lastErr = operation()
		if lastErr == nil || !isLockError(lastErr.Error()) {
			return result, lastErr
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > fileCacheMaxRetryDelay {
			delay = fileCacheMaxRetryDelay
		}
	}
	return result, lastErr
}

func withRetryNoResult(ctx context.Context, operation func() error) error {
	_, err := withRetry(ctx, func() (struct{}, error) {
		return struct{}{}, operation()
	})
	return err
}

func isLockError(errStr string) bool {
	for _, s := range []string{"database is locked", "busy", "SQLITE_BUSY", "SQLITE_LOCKED"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}
