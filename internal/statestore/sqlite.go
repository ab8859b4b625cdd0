//go:build sqlite
// +build sqlite

package statestore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"livenotify/internal/policy"
	logx "livenotify/pkg/logx"
)

//go:embed migrations.sql
var migrations string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), migrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) LoadState(ctx context.Context) (policy.State, bool, error) {
	if s == nil || s.db == nil {
		return policy.State{}, false, ErrDisabled
	}
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM policy_state WHERE id = 1`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return policy.State{}, false, nil
	}
	if err != nil {
		return policy.State{}, false, err
	}
	var st policy.State
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		return policy.State{}, false, err
	}
	return st, true, nil
}

func (s *sqliteStore) SaveState(ctx context.Context, st policy.State) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO policy_state(id, state) VALUES(1, ?)
		 ON CONFLICT(id) DO UPDATE SET state=excluded.state`,
		string(b),
	)
	return err
}

func (s *sqliteStore) AppendSession(ctx context.Context, sess Session) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(started_at, ended_at, game, title, peak_viewers) VALUES(?,?,?,?,?)`,
		sess.StartedAt.Format(time.RFC3339Nano),
		sess.EndedAt.Format(time.RFC3339Nano),
		sess.Game, sess.Title, sess.PeakViewers,
	)
	return err
}

func (s *sqliteStore) SessionsSince(ctx context.Context, since time.Time) ([]Session, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT started_at, ended_at, game, title, peak_viewers
		 FROM sessions WHERE ended_at >= ? ORDER BY ended_at`,
		since.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var started, ended string
		var sess Session
		if err := rows.Scan(&started, &ended, &sess.Game, &sess.Title, &sess.PeakViewers); err != nil {
			return nil, err
		}
		sess.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		sess.EndedAt, _ = time.Parse(time.RFC3339Nano, ended)
		out = append(out, sess)
	}
	return out, rows.Err()
}
