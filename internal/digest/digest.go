package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"livenotify/internal/notify"
	"livenotify/internal/statestore"
	logx "livenotify/pkg/logx"
)

// Config controls the scheduled session digest.
type Config struct {
	Enabled  bool
	Schedule string // standard 5-field cron spec
	Timezone string // optional IANA zone, e.g. "Europe/Berlin"
	Channel  string // display name for the summary header
}

// Service periodically summarizes finished stream sessions and sends the
// summary through the notification dispatcher.
type Service struct {
	cfg   Config
	sched cron.Schedule
	store statestore.Store
	disp  *notify.Dispatcher
	log   logx.Logger
}

func New(cfg Config, store statestore.Store, disp *notify.Dispatcher, log logx.Logger) (*Service, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	spec := strings.TrimSpace(cfg.Schedule)
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		spec = "CRON_TZ=" + tz + " " + spec
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("digest schedule: %w", err)
	}
	return &Service{cfg: cfg, sched: sched, store: store, disp: disp, log: log}, nil
}

// Run blocks until ctx is done, firing a digest at every scheduled time.
// The first digest covers the window back to service start.
func (s *Service) Run(ctx context.Context) {
	if s.store == nil {
		s.log.Warn("digest enabled but persistence is disabled; no session history to summarize")
		return
	}

	last := time.Now()
	for {
		next := s.sched.Next(time.Now())
		s.log.Debug("digest scheduled", logx.Time("next", next))

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		sessions, err := s.store.SessionsSince(ctx, last)
		if err != nil {
			s.log.Error("digest: loading sessions failed", logx.Err(err))
			last = next
			continue
		}
		last = next

		if len(sessions) == 0 {
			s.log.Debug("digest: no sessions in window; skipping")
			continue
		}
		s.disp.Dispatch(ctx, notify.Event{
			Kind:    "digest",
			Content: Summarize(s.cfg.Channel, sessions),
		})
	}
}

// Summarize renders the digest text for a batch of sessions.
func Summarize(channel string, sessions []statestore.Session) string {
	var (
		total time.Duration
		peak  int
		games = map[string]struct{}{}
	)
	for _, sess := range sessions {
		if d := sess.EndedAt.Sub(sess.StartedAt); d > 0 {
			total += d
		}
		if sess.PeakViewers > peak {
			peak = sess.PeakViewers
		}
		if sess.Game != "" {
			games[sess.Game] = struct{}{}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Stream digest for %s**\n", channel)
	fmt.Fprintf(&b, "Sessions: %d\n", len(sessions))
	fmt.Fprintf(&b, "Airtime: %s\n", formatAirtime(total))
	fmt.Fprintf(&b, "Peak viewers: %d", peak)
	if len(games) > 0 {
		names := make([]string, 0, len(games))
		for _, sess := range sessions {
			if _, ok := games[sess.Game]; ok {
				names = append(names, sess.Game)
				delete(games, sess.Game)
			}
		}
		fmt.Fprintf(&b, "\nGames: %s", strings.Join(names, ", "))
	}
	return b.String()
}

func formatAirtime(d time.Duration) string {
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
