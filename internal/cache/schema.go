package cache

// schemaSQL defines the SQLite schema for the cache database.
// Tables:
//   - renders: the channel text of one header render, keyed by header path
const schemaSQL = `
CREATE TABLE IF NOT EXISTS renders (
    header_path TEXT PRIMARY KEY,
    input_hash TEXT NOT NULL,
    constants TEXT NOT NULL DEFAULT '',
    declarations TEXT NOT NULL DEFAULT '',
    stats TEXT NOT NULL DEFAULT '{}',
    rendered_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_renders_rendered_at ON renders(rendered_at);
`

// initSchema creates the database tables and indexes if they don't exist.
func (c *Cache) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}
