package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"livenotify/internal/notify"
	"livenotify/internal/policy"
	"livenotify/internal/statestore"
	"livenotify/internal/twitch"
	logx "livenotify/pkg/logx"
)

type scriptedProvider struct {
	ticks []*twitch.StreamInfo
	errs  []error
	i     int
}

func (p *scriptedProvider) Stream(_ context.Context, _ string) (*twitch.StreamInfo, error) {
	if p.i >= len(p.ticks) {
		return nil, nil
	}
	info := p.ticks[p.i]
	var err error
	if p.i < len(p.errs) {
		err = p.errs[p.i]
	}
	p.i++
	return info, err
}

type captureSink struct {
	events []notify.Event
}

func (c *captureSink) Name() string { return "capture" }
func (c *captureSink) Send(_ context.Context, ev notify.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func onlineInfo(game string, viewers int) *twitch.StreamInfo {
	return &twitch.StreamInfo{
		UserLogin:   "somechannel",
		UserName:    "SomeChannel",
		GameName:    game,
		Title:       "t",
		ViewerCount: viewers,
		StartedAt:   "2026-03-01T18:00:00Z",
	}
}

func testApp(t *testing.T, prov StreamProvider, sink notify.Sink) *App {
	t.Helper()
	store, err := statestore.Open(statestore.Config{
		Driver: "file",
		Path:   filepath.Join(t.TempDir(), "state"),
	}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return &App{
		log:      logx.Nop(),
		provider: prov,
		disp:     notify.NewDispatcher(notify.DispatchConfig{RatePerSec: 1000}, logx.Nop(), sink),
		store:    store,
		set: settings{
			channel:     "somechannel",
			interval:    time.Minute,
			offlineMult: 3,
			retryDelay:  10 * time.Second,
			policy: policy.Config{
				Cooldown:   15 * time.Minute,
				Milestones: []int{50, 100},
			},
			render: notify.RenderConfig{IncludeGame: true, IncludeViewerCount: true},
		},
	}
}

func TestTickGoLiveAndMilestones(t *testing.T) {
	ctx := context.Background()
	sink := &captureSink{}
	prov := &scriptedProvider{ticks: []*twitch.StreamInfo{onlineInfo("Tetris", 60)}}
	a := testApp(t, prov, sink)

	online, err := a.tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !online {
		t.Fatal("expected online")
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected live + milestone(50), got %d events", len(sink.events))
	}
	if sink.events[0].Kind != "live" || sink.events[1].Kind != "milestone" {
		t.Fatalf("event kinds: %q %q", sink.events[0].Kind, sink.events[1].Kind)
	}
	if !a.st.LastOnline || a.st.LastGame != "Tetris" {
		t.Fatalf("state not committed: %+v", a.st)
	}
}

func TestTickProviderErrorSkipsTick(t *testing.T) {
	ctx := context.Background()
	sink := &captureSink{}
	prov := &scriptedProvider{
		ticks: []*twitch.StreamInfo{nil},
		errs:  []error{errors.New("helix down")},
	}
	a := testApp(t, prov, sink)

	if _, err := a.tick(ctx); err == nil {
		t.Fatal("expected tick error")
	}
	if len(sink.events) != 0 {
		t.Fatal("no notification may fire on a failed tick")
	}
	if a.st.LastOnline {
		t.Fatal("state must not change on a failed tick")
	}
}

func TestSessionRecordedOnOfflineEdge(t *testing.T) {
	ctx := context.Background()
	sink := &captureSink{}
	prov := &scriptedProvider{ticks: []*twitch.StreamInfo{
		onlineInfo("Tetris", 60),
		onlineInfo("Tetris", 200),
		onlineInfo("Tetris", 90),
		nil,
	}}
	a := testApp(t, prov, sink)

	for i := 0; i < 4; i++ {
		if _, err := a.tick(ctx); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	sessions, err := a.store.SessionsSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.PeakViewers != 200 || s.Game != "Tetris" {
		t.Fatalf("session: %+v", s)
	}
	if !s.StartedAt.Equal(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("session start: %v", s.StartedAt)
	}
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	open := func() statestore.Store {
		st, err := statestore.Open(statestore.Config{Driver: "file", Path: filepath.Join(dir, "state")}, logx.Nop())
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		return st
	}

	sink := &captureSink{}
	a := testApp(t, &scriptedProvider{ticks: []*twitch.StreamInfo{onlineInfo("Tetris", 60)}}, sink)
	_ = a.store.Close()
	a.store = open()
	if _, err := a.tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	_ = a.store.Close()

	// "Restart": a fresh app over the same store, channel still online.
	sink2 := &captureSink{}
	b := testApp(t, &scriptedProvider{ticks: []*twitch.StreamInfo{onlineInfo("Tetris", 70)}}, sink2)
	_ = b.store.Close()
	b.store = open()
	defer b.store.Close()
	b.loadState(ctx)

	if !b.st.LastOnline {
		t.Fatal("restart should reload online state")
	}
	if _, err := b.tick(ctx); err != nil {
		t.Fatalf("tick after restart: %v", err)
	}
	// Still online, milestone 50 already fired before the restart: nothing new.
	if len(sink2.events) != 0 {
		t.Fatalf("expected no duplicate notifications after restart, got %+v", sink2.events)
	}
}

func TestSendTestBypassesSilent(t *testing.T) {
	sink := &captureSink{}
	a := testApp(t, &scriptedProvider{}, sink)
	a.disp.Apply(notify.DispatchConfig{Silent: true})

	if err := a.SendTest(context.Background()); err != nil {
		t.Fatalf("send test: %v", err)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != "live" {
		t.Fatalf("expected one live event, got %+v", sink.events)
	}
}
