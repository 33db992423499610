package history

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS deliveries (
	id              TEXT PRIMARY KEY,
	notification_id INTEGER NOT NULL,
	kind            TEXT NOT NULL,
	account         TEXT NOT NULL DEFAULT '',
	summary         TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL DEFAULT '',
	sent_at         DATETIME NOT NULL,
	outcome         TEXT NOT NULL DEFAULT '',
	resolved_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_deliveries_notification
	ON deliveries (notification_id, outcome);

CREATE INDEX IF NOT EXISTS idx_deliveries_sent_at
	ON deliveries (sent_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
