// package cache implements content-addressed local storage for downloaded
// track audio.
//
// Blobs live as files under the cache directory, keyed by track token;
// bookkeeping (size, format, last access, pin state) lives in a SQLite
// database next to them. Eviction is least-recently-used against a byte
// budget, and never touches pinned entries — the currently playing and
// next-queued tracks stay pinned so playback cannot lose its source mid-song.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aria/internal/shared"
	_ "github.com/mattn/go-sqlite3"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS entries (
	key TEXT PRIMARY KEY,
	format TEXT NOT NULL,
	size INTEGER NOT NULL,
	last_access INTEGER NOT NULL,
	pinned INTEGER NOT NULL DEFAULT 0
);`

// Cache is a size-bounded blob store for track audio.
type Cache struct {
	dir      string
	maxBytes int64
	db       *sql.DB
	logger   *log.Logger

	// Serializes bookkeeping across the prefetch workers and the playback
	// engine. Blob writes are temp-file-plus-rename, so readers never see
	// partial bytes even without holding the lock during the copy.
	mu sync.Mutex
}

// Open creates or opens a cache rooted at dir with the given byte budget.
func Open(dir string, maxBytes int64, logger *log.Logger) (*Cache, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if err := os.MkdirAll(filepath.Join(dir, "tracks"), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open cache index: %v", shared.ErrCacheIO, err)
	}
	if _, err := db.Exec(createEntriesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to initialize cache index: %v", shared.ErrCacheIO, err)
	}

	return &Cache{dir: dir, maxBytes: maxBytes, db: db, logger: logger}, nil
}

// Close releases the bookkeeping database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// blobPath returns the on-disk location for a cache key.
func (c *Cache) blobPath(key string) string {
	return filepath.Join(c.dir, "tracks", key)
}

// Put stores audio bytes under key, evicting least-recently-used unpinned
// entries first so the new entry fits within the byte budget.
func (c *Cache) Put(key, format string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.evictLocked(int64(len(data))); err != nil {
		return err
	}

	// Write to a temp file and rename so concurrent readers never observe a
	// partially written blob.
	tmp, err := os.CreateTemp(filepath.Join(c.dir, "tracks"), "."+key+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}
	if err := os.Rename(tmp.Name(), c.blobPath(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}

	now := time.Now().UnixNano()
	_, err = c.db.Exec(
		`INSERT INTO entries (key, format, size, last_access, pinned) VALUES (?, ?, ?, ?, 0)
		 ON CONFLICT(key) DO UPDATE SET format = excluded.format, size = excluded.size, last_access = excluded.last_access`,
		key, format, len(data), now,
	)
	if err != nil {
		os.Remove(c.blobPath(key))
		return fmt.Errorf("%w: failed to record cache entry: %v", shared.ErrCacheIO, err)
	}
	return nil
}

// Get returns the audio bytes and format tag for key, updating its last
// access time. ok is false on a miss.
func (c *Cache) Get(key string) (data []byte, format string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := c.db.QueryRow(`SELECT format FROM entries WHERE key = ?`, key)
	if err := row.Scan(&format); err != nil {
		return nil, "", false
	}

	data, err := os.ReadFile(c.blobPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		// Blob lost out from under the index; drop the stale row.
		c.db.Exec(`DELETE FROM entries WHERE key = ?`, key)
		return nil, "", false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "err", err)
		return nil, "", false
	}

	c.db.Exec(`UPDATE entries SET last_access = ? WHERE key = ?`, time.Now().UnixNano(), key)
	return data, format, true
}

// Has reports whether key is cached, without touching its access time.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	row := c.db.QueryRow(`SELECT COUNT(*) FROM entries WHERE key = ?`, key)
	if err := row.Scan(&n); err != nil {
		return false
	}
	if n == 0 {
		return false
	}
	if _, err := os.Stat(c.blobPath(key)); err != nil {
		return false
	}
	return true
}

// Remove deletes a single entry, pinned or not.
func (c *Cache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(key)
}

func (c *Cache) removeLocked(key string) error {
	if err := os.Remove(c.blobPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}
	if _, err := c.db.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}
	return nil
}

// Pin marks exactly the given keys as ineligible for eviction, clearing any
// previous pins. Called by the playback engine with the current and
// next-queued tracks.
func (c *Cache) Pin(keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE entries SET pinned = 0 WHERE pinned = 1`); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}
	for _, key := range keys {
		if _, err := tx.Exec(`UPDATE entries SET pinned = 1 WHERE key = ?`, key); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}
	return nil
}

// Stats returns the entry count and total stored bytes.
func (c *Cache) Stats() (count int, bytes int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := c.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM entries`)
	if err := row.Scan(&count, &bytes); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}
	return count, bytes, nil
}

// Clear removes every entry, pinned or not.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`SELECT key FROM entries`)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
		}
		keys = append(keys, key)
	}
	rows.Close()

	for _, key := range keys {
		if err := c.removeLocked(key); err != nil {
			return err
		}
	}
	return nil
}

// evictLocked removes least-recently-used unpinned entries until incoming
// bytes fit within the budget. Callers must hold c.mu.
func (c *Cache) evictLocked(incoming int64) error {
	if c.maxBytes <= 0 {
		return nil
	}

	var total int64
	row := c.db.QueryRow(`SELECT COALESCE(SUM(size), 0) FROM entries`)
	if err := row.Scan(&total); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
	}

	for total+incoming > c.maxBytes {
		var key string
		var size int64
		row := c.db.QueryRow(`SELECT key, size FROM entries WHERE pinned = 0 ORDER BY last_access ASC LIMIT 1`)
		if err := row.Scan(&key, &size); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Everything left is pinned; admit the entry over budget
				// rather than starve playback.
				return nil
			}
			return fmt.Errorf("%w: %v", shared.ErrCacheIO, err)
		}

		c.logger.Debug("evicting cached track", "key", key, "size", size)
		if err := c.removeLocked(key); err != nil {
			return err
		}
		total -= size
	}
	return nil
}
