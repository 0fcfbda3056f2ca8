// Package cache provides the SQLite-backed render cache. A cached render
// holds the exact text a header produced on both output channels, keyed by
// header path and validated by the input hash, so an unchanged header can
// be replayed without parsing it again.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Cache manages the render cache database.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the cache database at dbPath, creating its
// directory if needed. It initializes the schema if the database is new.
func Open(dbPath string) (*Cache, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	cache := &Cache{db: db, dbPath: dbPath}

	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return cache, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Clear removes every cached render.
func (c *Cache) Clear() (int64, error) {
	res, err := c.db.Exec("DELETE FROM renders")
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// Stats describes the cache contents.
type Stats struct {
	Entries int64 `yaml:"entries" json:"entries"`
	// Bytes is the total size of the cached channel text.
	Bytes    int64  `yaml:"bytes" json:"bytes"`
	Oldest   string `yaml:"oldest,omitempty" json:"oldest,omitempty"`
	Newest   string `yaml:"newest,omitempty" json:"newest,omitempty"`
	Location string `yaml:"location" json:"location"`
}

// GetStats returns statistics about the cache contents.
func (c *Cache) GetStats() (*Stats, error) {
	stats := Stats{Location: c.dbPath}
	var oldest, newest sql.NullString

	err := c.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(LENGTH(constants) + LENGTH(declarations)), 0),
		       MIN(rendered_at), MAX(rendered_at)
		FROM renders`).Scan(&stats.Entries, &stats.Bytes, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("count renders: %w", err)
	}
	stats.Oldest = oldest.String
	stats.Newest = newest.String

	return &stats, nil
}
