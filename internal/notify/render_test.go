package notify

import (
	"strings"
	"testing"
	"time"

	"livenotify/internal/twitch"
)

func testStream() *twitch.StreamInfo {
	return &twitch.StreamInfo{
		UserLogin:    "somechannel",
		UserName:     "SomeChannel",
		GameName:     "Tetris",
		Title:        "chill blocks",
		ViewerCount:  123,
		StartedAt:    "2026-03-01T18:00:00Z",
		ThumbnailURL: "https://cdn.example/{width}x{height}.jpg",
	}
}

func allOn() RenderConfig {
	return RenderConfig{
		IncludeTitle:       true,
		IncludeGame:        true,
		IncludeViewerCount: true,
		IncludeThumbnail:   true,
	}
}

func TestRenderTemplate(t *testing.T) {
	got := RenderTemplate("{streamer} plays {game} ({viewers}) {url}", testStream())
	want := "SomeChannel plays Tetris (123) https://twitch.tv/somechannel"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUptime(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	if got := Uptime(start, start.Add(3*time.Hour+25*time.Minute)); got != "3h 25m" {
		t.Fatalf("uptime: %q", got)
	}
	if got := Uptime(time.Time{}, start); got != "0h 0m" {
		t.Fatalf("zero start: %q", got)
	}
}

func TestLiveEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 21, 25, 0, 0, time.UTC)
	cfg := allOn()
	cfg.ContentText = "ping! {streamer} is up"
	ev := Live(cfg, testStream(), now)

	if ev.Kind != "live" {
		t.Fatalf("kind: %q", ev.Kind)
	}
	if ev.Content != "ping! SomeChannel is up" {
		t.Fatalf("content: %q", ev.Content)
	}
	e := ev.Embed
	if e == nil {
		t.Fatal("missing embed")
	}
	if e.Title != "chill blocks" {
		t.Fatalf("title should be stream title, got %q", e.Title)
	}
	if !strings.Contains(e.Description, "LIVE NOW!") {
		t.Fatalf("default template not applied: %q", e.Description)
	}
	if e.Color != 0xFF0000 {
		t.Fatalf("default color: %#x", e.Color)
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "Game,Viewers,Uptime" {
		t.Fatalf("fields: %v", names)
	}
	if e.ImageURL == "" {
		t.Fatal("thumbnail missing")
	}
}

func TestLiveEventToggles(t *testing.T) {
	ev := Live(RenderConfig{EmbedColor: "00FF00"}, testStream(), time.Now())
	e := ev.Embed
	if e.Title != "SomeChannel is live on Twitch!" {
		t.Fatalf("fallback title: %q", e.Title)
	}
	if e.Color != 0x00FF00 {
		t.Fatalf("color: %#x", e.Color)
	}
	if len(e.Fields) != 1 || e.Fields[0].Name != "Uptime" {
		t.Fatalf("only uptime expected, got %+v", e.Fields)
	}
	if e.ImageURL != "" {
		t.Fatal("thumbnail should be off")
	}
}

func TestMilestoneEvent(t *testing.T) {
	ev := Milestone(allOn(), testStream(), 100, time.Now())
	if ev.Kind != "milestone" {
		t.Fatalf("kind: %q", ev.Kind)
	}
	if !strings.Contains(ev.Embed.Description, "Milestone reached!") {
		t.Fatalf("description: %q", ev.Embed.Description)
	}
	if ev.Embed.Fields[0].Name != "Milestone" || ev.Embed.Fields[0].Value != "100 viewers" {
		t.Fatalf("threshold field: %+v", ev.Embed.Fields[0])
	}
}

func TestEventText(t *testing.T) {
	ev := Live(allOn(), testStream(), time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC))
	text := ev.Text()
	if strings.Contains(text, "**") {
		t.Fatalf("markdown not stripped: %q", text)
	}
	for _, want := range []string{"Game: Tetris", "Viewers: 123", "https://twitch.tv/somechannel"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
}
