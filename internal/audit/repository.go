// Package audit records security-relevant events (logins, logouts, account
// changes) in a SQLite table.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Actions.
const (
	ActionLogin         = "login"
	ActionLoginFailed   = "login_failed"
	ActionLogout        = "logout"
	ActionPermissions   = "update_permissions"
	ActionActiveStatus  = "update_active"
	ActionCreateUser    = "create_user"
	ActionUpdateProfile = "update_profile"
)

type Event struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor,omitempty"`
	Target    string         `json:"target,omitempty"`
	RemoteIP  string         `json:"remote_ip,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Recorder is what the HTTP layer writes events to.
type Recorder interface {
	Record(ctx context.Context, ev *Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	actor      TEXT,
	target     TEXT,
	remote_ip  TEXT,
	details    TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_created ON audit_events(created_at);
`

// tsLayout is fixed width so created_at sorts correctly as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

// Open opens (creating if needed) the audit database at path.
func Open(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Record inserts ev. ID and CreatedAt are generated when empty.
func (r *SQLiteRepository) Record(ctx context.Context, ev *Event) error {
	if ev.ID == "" {
		ev.ID = "aud-" + uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	var details *string
	if ev.Details != nil {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		s := string(b)
		details = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, action, actor, target, remote_ip, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Action,
		nullableString(ev.Actor), nullableString(ev.Target), nullableString(ev.RemoteIP),
		details, ev.CreatedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. limit is clamped to 1..200.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, action, actor, target, remote_ip, details, created_at
		 FROM audit_events ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev                       Event
			actor, target, ip, dtext sql.NullString
			created                  string
		)
		if err := rows.Scan(&ev.ID, &ev.Action, &actor, &target, &ip, &dtext, &created); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		ev.Actor = actor.String
		ev.Target = target.String
		ev.RemoteIP = ip.String
		if dtext.Valid {
			if err := json.Unmarshal([]byte(dtext.String), &ev.Details); err != nil {
				return nil, fmt.Errorf("decoding audit details: %w", err)
			}
		}
		if ev.CreatedAt, err = time.Parse(tsLayout, created); err != nil {
			return nil, fmt.Errorf("parsing audit timestamp: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Nop discards events. Used when auditing is disabled.
type Nop struct{}

func (Nop) Record(context.Context, *Event) error          { return nil }
func (Nop) Recent(context.Context, int) ([]Event, error) { return nil, nil }
