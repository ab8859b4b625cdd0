package statestore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"livenotify/internal/policy"
	logx "livenotify/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.state.json     (full snapshot, atomically replaced each tick)
//   - <prefix>.sessions.jsonl (append-only JSON Lines)
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	statePath    string
	sessionsPath string
	sessionsFile *os.File
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "./livenotify_state"
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(filepath.Base(path)))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	sessionsPath := prefix + ".sessions.jsonl"
	sf, err := os.OpenFile(sessionsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{
		log:          log,
		statePath:    prefix + ".state.json",
		sessionsPath: sessionsPath,
		sessionsFile: sf,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionsFile != nil {
		err := s.sessionsFile.Close()
		s.sessionsFile = nil
		return err
	}
	return nil
}

func (s *fileStore) LoadState(ctx context.Context) (policy.State, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.statePath)
	if errors.Is(err, os.ErrNotExist) {
		return policy.State{}, false, nil
	}
	if err != nil {
		return policy.State{}, false, err
	}
	var st policy.State
	if err := json.Unmarshal(b, &st); err != nil {
		return policy.State{}, false, err
	}
	return st, true, nil
}

func (s *fileStore) SaveState(ctx context.Context, st policy.State) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	// Atomic replace so a crash mid-write never leaves a torn state file.
	tmp := s.statePath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.statePath)
}

func (s *fileStore) AppendSession(ctx context.Context, sess Session) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionsFile == nil {
		return errors.New("sessions file closed")
	}
	return json.NewEncoder(s.sessionsFile).Encode(sess)
}

func (s *fileStore) SessionsSince(ctx context.Context, since time.Time) ([]Session, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.sessionsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Session
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var sess Session
		if err := json.Unmarshal(sc.Bytes(), &sess); err != nil {
			// Skip torn lines (e.g. crash mid-append) rather than failing the read.
			s.log.Debug("skipping malformed session record", logx.Err(err))
			continue
		}
		if sess.EndedAt.Before(since) {
			continue
		}
		out = append(out, sess)
	}
	return out, sc.Err()
}
