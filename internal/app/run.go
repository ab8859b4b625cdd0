package app

import (
	"context"
	"errors"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"livenotify/internal/notify"
	"livenotify/internal/policy"
	"livenotify/internal/statestore"
	"livenotify/internal/twitch"
	logx "livenotify/pkg/logx"
)

var errTestSendFailed = errors.New("test notification was not accepted by any sink")

// Run executes the polling loop until ctx is canceled. No tick error is
// fatal: provider failures skip the tick, sink failures are logged by the
// dispatcher, and state I/O failures degrade to in-memory state.
func (a *App) Run(ctx context.Context) error {
	a.loadState(ctx)

	go func() {
		_ = a.cfgm.Watch(ctx)
	}()
	sub := a.cfgm.Subscribe(1)
	defer a.cfgm.Unsubscribe(sub)
	go func() {
		for cfg := range sub {
			a.applyConfig(cfg)
		}
	}()

	if a.digest != nil {
		go a.digest.Run(ctx)
	}

	// Under systemd Type=notify these are real signals; elsewhere no-ops.
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	defer daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.startWatchdog(ctx)

	a.log.Info("starting monitor", logx.String("channel", a.settings().channel))

	for {
		online, err := a.tick(ctx)

		var wait time.Duration
		set := a.settings()
		if err != nil {
			// Short fixed delay so a broken API doesn't spin the loop.
			a.log.Error("tick failed", logx.Err(err))
			wait = set.retryDelay
		} else {
			wait = set.interval
			if !online {
				wait *= time.Duration(set.offlineMult)
			}
		}

		a.log.Debug("sleeping", logx.Duration("wait", wait), logx.Bool("online", online))
		select {
		case <-ctx.Done():
			a.log.Info("monitor stopped")
			return nil
		case <-time.After(wait):
		}
	}
}

// tick runs one poll -> evaluate -> dispatch -> commit -> save cycle.
func (a *App) tick(ctx context.Context) (online bool, err error) {
	set := a.settings()
	now := time.Now()

	info, err := a.provider.Stream(ctx, set.channel)
	if err != nil {
		return a.st.LastOnline, err
	}

	var snap *policy.Snapshot
	if info != nil {
		snap = &policy.Snapshot{
			Game:      info.GameName,
			Title:     info.Title,
			Viewers:   info.ViewerCount,
			StartedAt: info.Started(),
		}
		a.log.Debug("stream online",
			logx.String("game", info.GameName),
			logx.Int("viewers", info.ViewerCount),
		)
	} else {
		a.log.Debug("stream offline", logx.String("channel", set.channel))
	}

	for _, intent := range policy.Evaluate(&a.st, snap, now, set.policy) {
		var ev notify.Event
		switch intent.Kind {
		case policy.KindMilestone:
			ev = notify.Milestone(set.render, info, intent.Threshold, now)
		default:
			ev = notify.Live(set.render, info, now)
		}
		a.disp.Dispatch(ctx, ev)
	}

	a.trackSession(ctx, snap, now)
	policy.Commit(&a.st, snap)
	a.saveState(ctx)

	return snap != nil, nil
}

// trackSession maintains the per-session peak and appends a session record
// on the online -> offline edge. Must run before Commit so the edge is
// still observable.
func (a *App) trackSession(ctx context.Context, snap *policy.Snapshot, now time.Time) {
	switch {
	case snap != nil && !a.st.LastOnline:
		a.sessionStart = snap.StartedAt
		if a.sessionStart.IsZero() {
			a.sessionStart = now
		}
		a.peakViewers = snap.Viewers
	case snap != nil:
		if snap.Viewers > a.peakViewers {
			a.peakViewers = snap.Viewers
		}
	case a.st.LastOnline:
		if a.store != nil {
			err := a.store.AppendSession(ctx, statestore.Session{
				StartedAt:   a.sessionStart,
				EndedAt:     now,
				Game:        a.st.LastGame,
				Title:       a.st.LastTitle,
				PeakViewers: a.peakViewers,
			})
			if err != nil {
				a.log.Warn("recording session failed", logx.Err(err))
			}
		}
		a.sessionStart = time.Time{}
		a.peakViewers = 0
	}
}

func (a *App) loadState(ctx context.Context) {
	if a.store == nil {
		return
	}
	st, ok, err := a.store.LoadState(ctx)
	if err != nil {
		a.log.Warn("loading state failed; starting from defaults", logx.Err(err))
		return
	}
	if ok {
		a.st = st
		a.log.Info("loaded previous stream state",
			logx.Bool("last_online", st.LastOnline),
			logx.Int("milestones", len(st.Milestones)),
		)
	}
}

func (a *App) saveState(ctx context.Context) {
	if a.store == nil {
		return
	}
	if err := a.store.SaveState(ctx, a.st); err != nil {
		a.log.Warn("saving state failed", logx.Err(err))
	}
}

func (a *App) startWatchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	a.log.Debug("systemd watchdog enabled", logx.Duration("interval", interval))
	go func() {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	}()
}

// SendTest dispatches a fabricated go-live notification without touching the
// provider or persisted state (the --test flag).
func (a *App) SendTest(ctx context.Context) error {
	set := a.settings()
	now := time.Now()
	info := &twitch.StreamInfo{
		ID:           "12345",
		UserID:       "67890",
		UserLogin:    set.channel,
		UserName:     set.channel,
		GameName:     "Test Game",
		Title:        "Test Stream Title",
		ViewerCount:  42,
		StartedAt:    now.UTC().Format(time.RFC3339),
		ThumbnailURL: "https://static-cdn.jtvnw.net/previews-ttv/live_user_" + set.channel + "-{width}x{height}.jpg",
		Language:     "en",
	}

	a.log.Info("sending test notification", logx.String("channel", set.channel))
	// A dry run is pointless for --test; bypass silent mode.
	a.disp.Apply(notify.DispatchConfig{})
	if ok := a.disp.Dispatch(ctx, notify.Live(set.render, info, now)); ok == 0 {
		return errTestSendFailed
	}
	return nil
}
