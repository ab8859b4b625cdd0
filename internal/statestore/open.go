package statestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"livenotify/internal/policy"
	logx "livenotify/pkg/logx"
)

// Store is the persistence API used by the polling loop.
type Store interface {
	// LoadState returns the persisted policy state. ok is false when no
	// state has been saved yet (first run); that is not an error.
	LoadState(ctx context.Context) (st policy.State, ok bool, err error)
	SaveState(ctx context.Context, st policy.State) error

	AppendSession(ctx context.Context, s Session) error
	SessionsSince(ctx context.Context, since time.Time) ([]Session, error)

	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if persistence is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "file"
	}
	if driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown statestore driver: " + driver)
	}
}
