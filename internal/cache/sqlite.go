package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "embeddings.db"

// SQLiteCache persists cache entries in a SQLite database. This is the only
// engine-owned persisted artifact: it holds vectors derived from already
// normalized content, keyed by (provider_version, text_hash).
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens or creates the cache database under dir.
func NewSQLiteCache(dir string) (*SQLiteCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	path := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS embeddings (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

// Close releases the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Get retrieves a value from the cache.
func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	var value []byte
	err := c.db.QueryRow(`SELECT value FROM embeddings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			// Treat read failures as misses; the vector gets recomputed.
			return nil, false
		}
		return nil, false
	}
	return value, true
}

// Set stores a value. Concurrent writers racing on the same key converge:
// the embedding is a pure function of the text, so last-write-wins is safe.
func (c *SQLiteCache) Set(key string, value []byte) error {
	_, err := c.db.Exec(
		`INSERT INTO embeddings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Delete removes a value from the cache.
func (c *SQLiteCache) Delete(key string) error {
	_, err := c.db.Exec(`DELETE FROM embeddings WHERE key = ?`, key)
	return err
}

// Clear removes all cached entries.
func (c *SQLiteCache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM embeddings`)
	return err
}
