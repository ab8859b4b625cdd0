package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotenv loads a .env file from the working directory if present.
// Missing files are not an error; secrets may come from the real environment.
func LoadDotenv() error {
	err := godotenv.Load()
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// applyEnv overlays environment variables onto cfg. Environment values win
// over file values so deployments can keep secrets out of the config file.
func applyEnv(cfg *Config) error {
	setStr(&cfg.Twitch.ClientID, "TWITCH_CLIENT_ID")
	setStr(&cfg.Twitch.ClientSecret, "TWITCH_CLIENT_SECRET")
	setStr(&cfg.Twitch.Channel, "TWITCH_CHANNEL_NAME")
	setStr(&cfg.Discord.WebhookURL, "DISCORD_WEBHOOK_URL")

	if tok, ok := lookup("TELEGRAM_BOT_TOKEN"); ok {
		if cfg.Telegram == nil {
			cfg.Telegram = &TelegramConfig{}
		}
		cfg.Telegram.Token = tok
	}
	if raw, ok := lookup("TELEGRAM_CHAT_ID"); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		if cfg.Telegram == nil {
			cfg.Telegram = &TelegramConfig{}
		}
		cfg.Telegram.ChatID = id
	}

	setStr(&cfg.Notification.MessageTemplate, "NOTIFICATION_MESSAGE_TEMPLATE")
	setStr(&cfg.Notification.ContentText, "NOTIFICATION_CONTENT_TEXT")
	setStr(&cfg.Notification.EmbedColor, "NOTIFICATION_EMBED_COLOR")
	if err := setBoolPtr(&cfg.Notification.IncludeTitle, "NOTIFICATION_INCLUDE_TITLE"); err != nil {
		return err
	}
	if err := setBoolPtr(&cfg.Notification.IncludeGame, "NOTIFICATION_INCLUDE_GAME"); err != nil {
		return err
	}
	if err := setBoolPtr(&cfg.Notification.IncludeViewerCount, "NOTIFICATION_INCLUDE_VIEWER_COUNT"); err != nil {
		return err
	}
	if err := setBoolPtr(&cfg.Notification.IncludeThumbnail, "NOTIFICATION_INCLUDE_THUMBNAIL"); err != nil {
		return err
	}
	if err := setBool(&cfg.Notification.NotifyOnGameChange, "NOTIFICATION_NOTIFY_ON_GAME_CHANGE"); err != nil {
		return err
	}

	setStr(&cfg.Polling.Interval, "POLLING_INTERVAL")
	setStr(&cfg.Polling.Cooldown, "POLLING_COOLDOWN")
	if raw, ok := lookup("POLLING_OFFLINE_MULTIPLIER"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("POLLING_OFFLINE_MULTIPLIER: %w", err)
		}
		cfg.Polling.OfflineMultiplier = n
	}

	if raw, ok := lookup("ADVANCED_VIEWER_MILESTONES"); ok {
		ms, err := parseMilestoneList(raw)
		if err != nil {
			return fmt.Errorf("ADVANCED_VIEWER_MILESTONES: %w", err)
		}
		cfg.Advanced.Milestones = &ms
	}
	if err := setBool(&cfg.Advanced.Silent, "ADVANCED_SILENT_MODE"); err != nil {
		return err
	}

	return nil
}

func parseMilestoneList(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setStr(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setBoolPtr(dst **bool, key string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = &b
	return nil
}
