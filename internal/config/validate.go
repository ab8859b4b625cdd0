package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks the merged (file + env) configuration. It is also installed
// as the hot-reload validator so a bad edit never reaches the running app.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Twitch.ClientID) == "" || strings.TrimSpace(cfg.Twitch.ClientSecret) == "" {
		return errors.New("twitch.client_id and twitch.client_secret are required")
	}
	if strings.TrimSpace(cfg.Twitch.Channel) == "" {
		return errors.New("twitch.channel is required")
	}

	discordSet := strings.TrimSpace(cfg.Discord.WebhookURL) != ""
	telegramSet := cfg.Telegram != nil && strings.TrimSpace(cfg.Telegram.Token) != ""
	if !discordSet && !telegramSet {
		return errors.New("at least one sink is required (discord.webhook_url or telegram.token)")
	}
	if telegramSet && cfg.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required when telegram.token is set")
	}

	if c := strings.TrimSpace(cfg.Notification.EmbedColor); c != "" {
		if _, err := strconv.ParseUint(strings.TrimPrefix(c, "#"), 16, 32); err != nil {
			return fmt.Errorf("notification.embed_color: invalid hex color %q", c)
		}
	}

	for path, raw := range map[string]string{
		"polling.interval":    cfg.Polling.Interval,
		"polling.cooldown":    cfg.Polling.Cooldown,
		"polling.retry_delay": cfg.Polling.RetryDelay,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			return err
		}
	}
	if cfg.Polling.OfflineMultiplier < 0 {
		return errors.New("polling.offline_multiplier must be >= 0")
	}

	if cfg.Advanced.Milestones != nil {
		for _, th := range *cfg.Advanced.Milestones {
			if th <= 0 {
				return fmt.Errorf("advanced.milestones: threshold must be > 0, got %d", th)
			}
		}
	}

	if cfg.Storage != nil {
		switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver)
		}
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}

	if cfg.Digest != nil && cfg.Digest.Enabled {
		spec := strings.TrimSpace(cfg.Digest.Schedule)
		if spec == "" {
			return errors.New("digest.schedule is required when digest is enabled")
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("digest.schedule: %w", err)
		}
	}

	return nil
}
