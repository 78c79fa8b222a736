// Package sqlite implements [codey.Persister] on a SQLite key-value table
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fwojciec/codey"
	codeyjson "github.com/fwojciec/codey/json"
	_ "modernc.org/sqlite"
)

// Keys under which the snapshot parts are stored.
const (
	keySessions     = "chatSessions"
	keyActive       = "activeChatSessionId"
	keyTheme        = "appTheme"
	keyCustomThemes = "customThemes"
	keyMode         = "chatMode"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Interface compliance check.
var _ codey.Persister = (*DB)(nil)

// DB is a SQLite-backed persister.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Load reads every key. Missing keys leave the corresponding snapshot
// fields at their zero values.
func (d *DB) Load(ctx context.Context) (codey.Snapshot, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT key, value FROM kv")
	if err != nil {
		return codey.Snapshot{}, fmt.Errorf("sqlite: query failed: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return codey.Snapshot{}, fmt.Errorf("sqlite: scan failed: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return codey.Snapshot{}, fmt.Errorf("sqlite: rows iteration error: %w", err)
	}

	var snap codey.Snapshot
	if v, ok := values[keySessions]; ok {
		snap.Sessions, err = codeyjson.UnmarshalSessions([]byte(v))
		if err != nil {
			return codey.Snapshot{}, fmt.Errorf("sqlite: %s: %w", keySessions, err)
		}
	}
	if v, ok := values[keyCustomThemes]; ok {
		if err := json.Unmarshal([]byte(v), &snap.UI.CustomThemes); err != nil {
			return codey.Snapshot{}, fmt.Errorf("sqlite: %s: %w", keyCustomThemes, err)
		}
	}
	snap.ActiveSessionID = values[keyActive]
	snap.UI.Theme = values[keyTheme]
	snap.UI.Mode = codey.Mode(values[keyMode])
	return snap, nil
}

// Save upserts every key in one transaction.
func (d *DB) Save(ctx context.Context, s codey.Snapshot) (err error) {
	sessions, err := codeyjson.MarshalSessions(s.Sessions)
	if err != nil {
		return fmt.Errorf("sqlite: %s: %w", keySessions, err)
	}
	themes, err := json.Marshal(s.UI.CustomThemes)
	if err != nil {
		return fmt.Errorf("sqlite: %s: %w", keyCustomThemes, err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for _, kv := range [][2]string{
		{keySessions, string(sessions)},
		{keyActive, s.ActiveSessionID},
		{keyTheme, s.UI.Theme},
		{keyCustomThemes, string(themes)},
		{keyMode, string(s.UI.Mode)},
	} {
		if _, err := stmt.ExecContext(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("sqlite: upsert %s: %w", kv[0], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}
