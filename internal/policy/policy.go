package policy

import (
	"slices"
	"time"
)

// Snapshot is one poll's observation of the channel. A nil *Snapshot means
// the channel was observed offline (the status API returned no stream).
type Snapshot struct {
	Game      string    `json:"game"`
	Title     string    `json:"title"`
	Viewers   int       `json:"viewers"`
	StartedAt time.Time `json:"started_at"`
}

// State is the persisted policy state. It is owned by the policy: callers
// load/store it but mutate it only through Evaluate and Commit.
type State struct {
	LastOnline     bool      `json:"last_online"`
	LastGame       string    `json:"last_game,omitempty"`
	LastTitle      string    `json:"last_title,omitempty"`
	LastNotifiedAt time.Time `json:"last_notified_at,omitempty"`

	// Milestones holds the viewer thresholds already announced this session,
	// ascending. Cleared on the online -> offline edge.
	Milestones []int `json:"milestones,omitempty"`
}

// Config are the knobs that gate notification eligibility.
type Config struct {
	// Cooldown is the minimum elapsed time between two "live" notifications.
	// It does not gate milestone notifications.
	Cooldown time.Duration

	// NotifyOnGameChange fires a "live" notification when the category
	// changes while the stream stays online.
	NotifyOnGameChange bool

	// Milestones are viewer-count thresholds announced once per session.
	Milestones []int
}

type Kind int

const (
	// KindLive covers both the offline -> online edge and a game change
	// while online; both render with the live template.
	KindLive Kind = iota
	KindMilestone
)

func (k Kind) String() string {
	if k == KindMilestone {
		return "milestone"
	}
	return "live"
}

// Intent is a decision to notify. Threshold is set for milestone intents.
type Intent struct {
	Kind      Kind
	Threshold int
}

// Evaluate applies the notification rules to one snapshot and returns the
// intents to act on this tick, in emit order. It updates the cooldown
// timestamp and milestone marks on st; the caller must still Commit st
// afterwards to record the observed online/game state.
//
// The rules, checked independently against the same snapshot:
//
//  1. Go-live: offline -> online edge, gated by cooldown.
//  2. Game change: online -> online with a different category, if enabled,
//     gated by the same cooldown. Exclusive with rule 1 on a given tick
//     since rule 1 requires lastOnline=false.
//  3. Milestones: every not-yet-announced threshold at or below the observed
//     viewer count fires, ascending. A viewer jump past several thresholds
//     between polls fires them all in one tick. Not gated by cooldown.
func Evaluate(st *State, snap *Snapshot, now time.Time, cfg Config) []Intent {
	if snap == nil {
		return nil
	}

	var intents []Intent

	cooled := now.Sub(st.LastNotifiedAt) > cfg.Cooldown

	if !st.LastOnline {
		if cooled {
			st.LastNotifiedAt = now
			intents = append(intents, Intent{Kind: KindLive})
		}
	} else if cfg.NotifyOnGameChange && snap.Game != st.LastGame && cooled {
		st.LastNotifiedAt = now
		intents = append(intents, Intent{Kind: KindLive})
	}

	thresholds := append([]int(nil), cfg.Milestones...)
	slices.Sort(thresholds)
	for _, th := range thresholds {
		if snap.Viewers >= th && !slices.Contains(st.Milestones, th) {
			st.Milestones = append(st.Milestones, th)
			slices.Sort(st.Milestones)
			intents = append(intents, Intent{Kind: KindMilestone, Threshold: th})
		}
	}

	return intents
}

// Commit records the observed snapshot into st. It runs every tick whether or
// not anything fired, and is idempotent for a given snapshot. Going offline
// clears the announced milestones so the next session starts fresh.
func Commit(st *State, snap *Snapshot) {
	st.LastOnline = snap != nil
	if snap != nil {
		st.LastGame = snap.Game
		st.LastTitle = snap.Title
	} else {
		st.Milestones = nil
	}
}
