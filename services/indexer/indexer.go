// Package indexer persists published ledger events into a local SQLite
// database so operators can query history without replaying state.
package indexer

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/glebarez/sqlite"

	"marketledger/core/events"
	"marketledger/core/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    type       TEXT NOT NULL,
    attributes TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type, seq);
`

// payloadEvent is implemented by every module event carrying structured
// attributes.
type payloadEvent interface {
	Event() *types.Event
}

// StoredEvent is one indexed row.
type StoredEvent struct {
	Seq        int64
	Type       string
	Attributes map[string]string
	CreatedAt  time.Time
}

// Indexer subscribes to the node's event hub and appends every published
// event to SQLite. Writes are serialized; a failed insert is logged and
// dropped rather than blocking the ledger.
type Indexer struct {
	mu  sync.Mutex
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// Open opens (or creates) the event database at path. Pass ":memory:" for an
// ephemeral store.
func Open(path string, logger *slog.Logger) (*Indexer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("indexer: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("indexer: apply schema: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{db: db, log: logger, now: time.Now}, nil
}

// Emit implements events.Emitter. Events without a structured payload are
// recorded with their type alone.
func (ix *Indexer) Emit(evt events.Event) {
	if ix == nil || evt == nil {
		return
	}
	attrs := map[string]string{}
	if carrier, ok := evt.(payloadEvent); ok {
		if payload := carrier.Event(); payload != nil && payload.Attributes != nil {
			attrs = payload.Attributes
		}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		ix.log.Error("indexer: encode attributes", "type", evt.EventType(), "err", err)
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, err = ix.db.Exec(
		`INSERT INTO events (type, attributes, created_at) VALUES (?, ?, ?)`,
		evt.EventType(), string(encoded), ix.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		ix.log.Error("indexer: insert event", "type", evt.EventType(), "err", err)
	}
}

// ByType returns up to limit events of the given type, oldest first.
func (ix *Indexer) ByType(eventType string, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	rows, err := ix.db.Query(
		`SELECT seq, type, attributes, created_at FROM events WHERE type = ? ORDER BY seq ASC LIMIT ?`,
		eventType, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Recent returns the most recent events across all types, newest first.
func (ix *Indexer) Recent(limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	rows, err := ix.db.Query(
		`SELECT seq, type, attributes, created_at FROM events ORDER BY seq DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Count returns the total number of indexed events.
func (ix *Indexer) Count() (int64, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var count int64
	err := ix.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count)
	return count, err
}

// Close releases the underlying database handle.
func (ix *Indexer) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

func scanEvents(rows *sql.Rows) ([]StoredEvent, error) {
	var out []StoredEvent
	for rows.Next() {
		var (
			stored  StoredEvent
			rawAttr string
			rawTime string
		)
		if err := rows.Scan(&stored.Seq, &stored.Type, &rawAttr, &rawTime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rawAttr), &stored.Attributes); err != nil {
			return nil, fmt.Errorf("indexer: decode attributes for seq %d: %w", stored.Seq, err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, rawTime); err == nil {
			stored.CreatedAt = ts
		}
		out = append(out, stored)
	}
	return out, rows.Err()
}
