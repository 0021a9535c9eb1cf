// Package audit keeps a durable journal of registration attempts. Every
// attempt is recorded with its terminal state and the before/after
// snapshots, so operators can reconstruct how the projects document got to
// its current shape.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/minegate/minegate/internal/registry"
)

const schema = `
CREATE TABLE IF NOT EXISTS registrations (
	id          TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	projects    TEXT NOT NULL,
	state       TEXT NOT NULL,
	error       TEXT,
	before_json TEXT,
	after_json  TEXT
);
CREATE INDEX IF NOT EXISTS idx_registrations_created_at ON registrations(created_at);
`

// Record is one journal row.
type Record struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Projects  []string          `json:"projects"`
	State     string            `json:"state"`
	Error     string            `json:"error,omitempty"`
	Before    registry.Registry `json:"before,omitempty"`
	After     registry.Registry `json:"after,omitempty"`
}

// Journal is a SQLite-backed registration log.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit db: %w", err)
	}
	// One writer at a time keeps modernc's file locking happy
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error { return j.db.Close() }

// Append writes one record, generating its id and timestamp. The returned
// id identifies the attempt in logs.
func (j *Journal) Append(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	beforeJSON, err := marshalSnapshot(rec.Before)
	if err != nil {
		return "", err
	}
	afterJSON, err := marshalSnapshot(rec.After)
	if err != nil {
		return "", err
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO registrations (id, created_at, projects, state, error, before_json, after_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.Format(time.RFC3339Nano),
		strings.Join(rec.Projects, ","),
		rec.State,
		rec.Error,
		beforeJSON,
		afterJSON,
	)
	if err != nil {
		return "", fmt.Errorf("failed to append audit record: %w", err)
	}
	return rec.ID, nil
}

// List returns the most recent records, newest first.
func (j *Journal) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, created_at, projects, state, error, before_json, after_json
		 FROM registrations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec        Record
			createdAt  string
			projects   string
			errText    sql.NullString
			beforeJSON sql.NullString
			afterJSON  sql.NullString
		)
		if err := rows.Scan(&rec.ID, &createdAt, &projects, &rec.State, &errText, &beforeJSON, &afterJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if projects != "" {
			rec.Projects = strings.Split(projects, ",")
		}
		rec.Error = errText.String
		rec.Before = unmarshalSnapshot(beforeJSON)
		rec.After = unmarshalSnapshot(afterJSON)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func marshalSnapshot(reg registry.Registry) (string, error) {
	if reg == nil {
		return "", nil
	}
	b, err := json.Marshal(reg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return string(b), nil
}

func unmarshalSnapshot(s sql.NullString) registry.Registry {
	if !s.Valid || s.String == "" {
		return nil
	}
	var reg registry.Registry
	if err := json.Unmarshal([]byte(s.String), &reg); err != nil {
		return nil
	}
	return reg
}
