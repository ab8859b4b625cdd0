package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const validJSON = `{
  "twitch": {"client_id": "id", "client_secret": "secret", "channel": "somechannel"},
  "discord": {"webhook_url": "https://discord.com/api/webhooks/1/x"},
  "notification": {"notify_on_game_change": true, "include_title": false},
  "polling": {"interval": "30s", "cooldown": "10m"},
  "advanced": {"milestones": [50, 100]},
  "logging": {"console": true}
}`

func TestParseJSON(t *testing.T) {
	m := NewManager(writeTemp(t, "config.json", validJSON))
	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Twitch.Channel != "somechannel" {
		t.Fatalf("channel: %q", cfg.Twitch.Channel)
	}
	if !cfg.Notification.NotifyOnGameChange {
		t.Fatal("notify_on_game_change not set")
	}
	if BoolOr(cfg.Notification.IncludeTitle, true) {
		t.Fatal("include_title=false should override the default")
	}
	if BoolOr(cfg.Notification.IncludeGame, true) != true {
		t.Fatal("omitted include_game should default to true")
	}
	ms := MilestonesOr(cfg.Advanced.Milestones, []int{1000})
	if len(ms) != 2 || ms[0] != 50 {
		t.Fatalf("milestones: %v", ms)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestParseYAML(t *testing.T) {
	yml := `
twitch:
  client_id: id
  client_secret: secret
  channel: somechannel
discord:
  webhook_url: https://discord.com/api/webhooks/1/x
logging:
  console: true
`
	m := NewManager(writeTemp(t, "config.yaml", yml))
	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if cfg.Discord.WebhookURL == "" {
		t.Fatal("webhook url not parsed from yaml")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	m := NewManager(writeTemp(t, "config.json", `{"twich": {}}`))
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestEnvOverlayWins(t *testing.T) {
	t.Setenv("TWITCH_CHANNEL_NAME", "override")
	t.Setenv("ADVANCED_VIEWER_MILESTONES", "10, 20,30")
	t.Setenv("NOTIFICATION_INCLUDE_THUMBNAIL", "false")

	m := NewManager(writeTemp(t, "config.json", validJSON))
	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Twitch.Channel != "override" {
		t.Fatalf("env should win, got %q", cfg.Twitch.Channel)
	}
	ms := MilestonesOr(cfg.Advanced.Milestones, nil)
	if len(ms) != 3 || ms[2] != 30 {
		t.Fatalf("milestones from env: %v", ms)
	}
	if BoolOr(cfg.Notification.IncludeThumbnail, true) {
		t.Fatal("include_thumbnail should be false via env")
	}
}

func TestValidateRejections(t *testing.T) {
	base := func() *Config {
		return &Config{
			Twitch:  TwitchConfig{ClientID: "id", ClientSecret: "sec", Channel: "c"},
			Discord: DiscordConfig{WebhookURL: "https://example.com/hook"},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing credentials", func(c *Config) { c.Twitch.ClientSecret = "" }},
		{"missing channel", func(c *Config) { c.Twitch.Channel = "" }},
		{"no sink", func(c *Config) { c.Discord.WebhookURL = "" }},
		{"telegram without chat", func(c *Config) {
			c.Discord.WebhookURL = ""
			c.Telegram = &TelegramConfig{Token: "tok"}
		}},
		{"bad color", func(c *Config) { c.Notification.EmbedColor = "red" }},
		{"bad interval", func(c *Config) { c.Polling.Interval = "fast" }},
		{"negative milestone", func(c *Config) { ms := []int{-1}; c.Advanced.Milestones = &ms }},
		{"unknown storage driver", func(c *Config) { c.Storage = &StorageConfig{Driver: "etcd"} }},
		{"digest without schedule", func(c *Config) { c.Digest = &DigestConfig{Enabled: true} }},
		{"digest bad cron", func(c *Config) { c.Digest = &DigestConfig{Enabled: true, Schedule: "often"} }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}

	if err := Validate(base()); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}
}
