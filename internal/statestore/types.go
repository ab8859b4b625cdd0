package statestore

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("statestore disabled")

// Config configures persistence.
//
// Driver values:
//   - "file": dependency-free file backend (json snapshot + jsonl sessions)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", persistence is disabled and the caller runs
// on in-memory state only.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Session records one finished online session. Appended on the
// online -> offline edge; consumed by the digest.
type Session struct {
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	Game        string    `json:"game,omitempty"`
	Title       string    `json:"title,omitempty"`
	PeakViewers int       `json:"peak_viewers"`
}
