// Package journal persists an audit trail of lockfile sync outcomes to a
// SQLite database. The journal is optional: the engine runs identically
// without one configured.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded sync outcome.
type Entry struct {
	ReleaseID string
	Package   string
	Action    string
	Lockfile  string
	Detail    string
	Timestamp time.Time
}

// Actions recorded by the sync engine.
const (
	ActionPatched     = "patched"
	ActionSkipped     = "skipped"
	ActionRootPatched = "root-patched"
	ActionRefreshed   = "refreshed"
	ActionNotProduced = "not-produced"
)

// Journal is a SQLite-backed release journal.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and initializes) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		release_id TEXT NOT NULL,
		package TEXT NOT NULL,
		action TEXT NOT NULL,
		lockfile TEXT,
		detail TEXT,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_release_id ON sync_events(release_id);
	CREATE INDEX IF NOT EXISTS idx_action ON sync_events(action);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends one entry. A zero Timestamp is filled with the current time.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO sync_events (release_id, package, action, lockfile, detail, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		e.ReleaseID, e.Package, e.Action, e.Lockfile, e.Detail, ts.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert sync event: %w", err)
	}
	return nil
}

// ByRelease retrieves all entries for a release in insertion order.
func (j *Journal) ByRelease(ctx context.Context, releaseID string) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT release_id, package, action, lockfile, detail, timestamp FROM sync_events WHERE release_id = ? ORDER BY id",
		releaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query sync events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ReleaseID, &e.Package, &e.Action, &e.Lockfile, &e.Detail, &ts); err != nil {
			return nil, fmt.Errorf("scan sync event: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
