// Package state persists poll cursors, the global message archive and
// per-scope seen-marks in a single sqlite file.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/courierdev/courier/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS scope_state (
	scope_key   TEXT PRIMARY KEY,
	profile     TEXT NOT NULL,
	account_id  TEXT NOT NULL,
	last_cursor TIMESTAMP,
	updated_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS message_archive (
	account_id      TEXT NOT NULL,
	message_id      TEXT NOT NULL,
	conversation_id TEXT,
	sender_id       TEXT,
	sent_at         TIMESTAMP,
	payload         TEXT NOT NULL,
	first_seen_at   TIMESTAMP NOT NULL,
	last_seen_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (account_id, message_id)
);
CREATE TABLE IF NOT EXISTS scope_seen (
	scope_key  TEXT NOT NULL,
	account_id TEXT NOT NULL,
	message_id TEXT NOT NULL,
	seen_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (scope_key, account_id, message_id)
);
`

// Store is the embedded transactional state store. It is meant to be opened
// by a single CLI process at a time; concurrent invocations against the
// same scope race on cursor advancement (last-writer-wins), distinct scopes
// are isolated by key.
type Store struct {
	db *sql.DB
}

// Novelty reports the two independent dedup outcomes of persisting one
// message: whether any scope has ever archived it, and whether the current
// scope has already emitted it. Only NewForScope gates delivery.
type Novelty struct {
	NewInStore  bool
	NewForScope bool
}

// ArchivedMessage is one row of the global archive, returned for audit.
type ArchivedMessage struct {
	AccountID      string
	MessageID      string
	ConversationID string
	SenderID       string
	SentAt         *time.Time
	Payload        string
	FirstSeenAt    time.Time
	LastSeenAt     time.Time
}

// Open opens (or creates) the state database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires a Store over an existing connection (used by tests).
func NewWithDB(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// GetCursor returns the stored cursor for the scope key, or nil when the
// scope has no state yet.
func (s *Store) GetCursor(ctx context.Context, scopeKey string) (*time.Time, error) {
	row := s.db.QueryRowContext(ctx, `SELECT last_cursor FROM scope_state WHERE scope_key = ?`, scopeKey)
	var cur sql.NullTime
	if err := row.Scan(&cur); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !cur.Valid {
		return nil, nil
	}
	t := cur.Time.UTC()
	return &t, nil
}

// UpsertScopeState records the scope metadata and cursor, creating the row
// on first poll and updating it afterwards. Idempotent.
func (s *Store) UpsertScopeState(ctx context.Context, scope Scope, cursor *time.Time) error {
	var cur interface{}
	if cursor != nil {
		cur = cursor.UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scope_state (scope_key, profile, account_id, last_cursor, updated_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT(scope_key) DO UPDATE SET
			profile = excluded.profile,
			account_id = excluded.account_id,
			last_cursor = excluded.last_cursor,
			updated_at = excluded.updated_at`,
		scope.Key(), scope.Profile, scope.AccountID, cur, time.Now().UTC())
	return err
}

// ResetScope deletes the scope's cursor row and all of its seen-marks so a
// subsequent poll replays from scratch. The global archive is untouched:
// replayed messages keep their original first_seen_at.
func (s *Store) ResetScope(ctx context.Context, scopeKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scope_state WHERE scope_key = ?`, scopeKey); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scope_seen WHERE scope_key = ?`, scopeKey); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// PersistMessage records m in the global archive and marks it seen for the
// scope, in one transaction. Re-observing an archived message updates its
// payload and last_seen_at in place, preserving first_seen_at.
func (s *Store) PersistMessage(ctx context.Context, scopeKey string, m model.Message) (Novelty, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return Novelty{}, err
	}
	now := time.Now().UTC()
	var sentAt interface{}
	if m.SentAt != nil {
		sentAt = m.SentAt.UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Novelty{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO message_archive
			(account_id, message_id, conversation_id, sender_id, sent_at, payload, first_seen_at, last_seen_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(account_id, message_id) DO NOTHING`,
		m.AccountID, m.ID, m.ConversationID, m.SenderID, sentAt, string(payload), now, now)
	if err != nil {
		return Novelty{}, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return Novelty{}, err
	}
	nov := Novelty{NewInStore: inserted > 0}
	if !nov.NewInStore {
		if _, err = tx.ExecContext(ctx, `
			UPDATE message_archive SET payload = ?, last_seen_at = ?
			WHERE account_id = ? AND message_id = ?`,
			string(payload), now, m.AccountID, m.ID); err != nil {
			return Novelty{}, err
		}
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO scope_seen (scope_key, account_id, message_id, seen_at)
		VALUES (?,?,?,?)
		ON CONFLICT(scope_key, account_id, message_id) DO NOTHING`,
		scopeKey, m.AccountID, m.ID, now)
	if err != nil {
		return Novelty{}, err
	}
	marked, err := res.RowsAffected()
	if err != nil {
		return Novelty{}, err
	}
	nov.NewForScope = marked > 0

	if err = tx.Commit(); err != nil {
		return Novelty{}, err
	}
	return nov, nil
}

// GetArchivedMessage returns one archive row, or model.ErrNotFound.
func (s *Store) GetArchivedMessage(ctx context.Context, accountID, messageID string) (*ArchivedMessage, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT conversation_id, sender_id, sent_at, payload, first_seen_at, last_seen_at
		FROM message_archive WHERE account_id = ? AND message_id = ?`, accountID, messageID)
	a := ArchivedMessage{AccountID: accountID, MessageID: messageID}
	var conv, sender sql.NullString
	var sentAt sql.NullTime
	if err := row.Scan(&conv, &sender, &sentAt, &a.Payload, &a.FirstSeenAt, &a.LastSeenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	a.ConversationID = conv.String
	a.SenderID = sender.String
	if sentAt.Valid {
		t := sentAt.Time.UTC()
		a.SentAt = &t
	}
	return &a, nil
}
