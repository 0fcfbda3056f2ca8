package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RenderStats are the counters recorded with a render so that a replay can
// report them again.
type RenderStats struct {
	Rendered    int      `json:"rendered"`
	Groups      int      `json:"groups"`
	Filtered    int      `json:"filtered"`
	Skipped     int      `json:"skipped"`
	Constants   int      `json:"constants"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Entry is one cached header render.
type Entry struct {
	HeaderPath   string
	InputHash    string
	Constants    string
	Declarations string
	Stats        RenderStats
	RenderedAt   time.Time
}

// Lookup returns the render stored for path if it was produced from the
// same input hash. The boolean is false on a miss or a stale entry.
func (c *Cache) Lookup(path, inputHash string) (*Entry, bool, error) {
	entry, err := c.Get(path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if entry.InputHash != inputHash {
		return nil, false, nil
	}
	return entry, true, nil
}

// Get retrieves the render stored for path regardless of its hash.
// Returns sql.ErrNoRows if the header has never been rendered.
func (c *Cache) Get(path string) (*Entry, error) {
	var entry Entry
	var stats, renderedAt string
	err := c.db.QueryRow(`
		SELECT header_path, input_hash, constants, declarations, stats, rendered_at
		FROM renders WHERE header_path = ?`,
		path).Scan(&entry.HeaderPath, &entry.InputHash, &entry.Constants,
		&entry.Declarations, &stats, &renderedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get render %s: %w", path, err)
	}
	if err := json.Unmarshal([]byte(stats), &entry.Stats); err != nil {
		return nil, fmt.Errorf("decode stats %s: %w", path, err)
	}
	entry.RenderedAt, _ = time.Parse(time.RFC3339, renderedAt)
	return &entry, nil
}

// Store records the render of a header, replacing any earlier one.
func (c *Cache) Store(entry *Entry) error {
	stats, err := json.Marshal(entry.Stats)
	if err != nil {
		return fmt.Errorf("encode stats %s: %w", entry.HeaderPath, err)
	}
	renderedAt := entry.RenderedAt
	if renderedAt.IsZero() {
		renderedAt = time.Now()
	}
	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO renders
		    (header_path, input_hash, constants, declarations, stats, rendered_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.HeaderPath, entry.InputHash, entry.Constants, entry.Declarations,
		string(stats), renderedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store render %s: %w", entry.HeaderPath, err)
	}
	return nil
}

// Delete removes the render stored for path.
func (c *Cache) Delete(path string) error {
	_, err := c.db.Exec("DELETE FROM renders WHERE header_path = ?", path)
	if err != nil {
		return fmt.Errorf("delete render %s: %w", path, err)
	}
	return nil
}

// Paths lists the header paths with a stored render, sorted.
func (c *Cache) Paths() ([]string, error) {
	rows, err := c.db.Query("SELECT header_path FROM renders ORDER BY header_path")
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return paths, nil
}

// PruneStaleEntries removes renders of headers not in validPaths.
func (c *Cache) PruneStaleEntries(validPaths map[string]bool) (int, error) {
	paths, err := c.Paths()
	if err != nil {
		return 0, err
	}

	var pruned int
	for _, p := range paths {
		if !validPaths[p] {
			if err := c.Delete(p); err != nil {
				return pruned, err
			}
			pruned++
		}
	}

	return pruned, nil
}
