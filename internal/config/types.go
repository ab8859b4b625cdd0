package config

// Config is the full configuration for the notifier daemon.
//
// All durations are Go duration strings (e.g. "30s", "15m"). Secrets
// (twitch credentials, webhook URL, bot token) are normally supplied via
// environment variables, which override file values.
type Config struct {
	Twitch       TwitchConfig       `json:"twitch"`
	Discord      DiscordConfig      `json:"discord"`
	Telegram     *TelegramConfig    `json:"telegram,omitempty"`
	Notification NotificationConfig `json:"notification"`
	Polling      PollingConfig      `json:"polling"`
	Advanced     AdvancedConfig     `json:"advanced"`
	Logging      LoggingConfig      `json:"logging"`
	Storage      *StorageConfig     `json:"storage,omitempty"`
	Digest       *DigestConfig      `json:"digest,omitempty"`
}

// TwitchConfig identifies the watched channel and the Helix app credentials.
type TwitchConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Channel      string `json:"channel"`
}

// DiscordConfig configures the webhook sink. An empty URL disables it.
type DiscordConfig struct {
	WebhookURL string `json:"webhook_url"`
}

// TelegramConfig configures the optional Telegram sink.
type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

// NotificationConfig controls message rendering.
//
// The include_* toggles are pointers so "omitted" (default true) can be told
// apart from an explicit false.
//
// Defaults:
//   - message_template: "🔴 **LIVE NOW!** {streamer} is streaming {game}"
//   - include_title / include_game / include_viewer_count / include_thumbnail: true
//   - embed_color: "FF0000"
type NotificationConfig struct {
	MessageTemplate    string `json:"message_template,omitempty"`
	ContentText        string `json:"content_text,omitempty"`
	IncludeTitle       *bool  `json:"include_title,omitempty"`
	IncludeGame        *bool  `json:"include_game,omitempty"`
	IncludeViewerCount *bool  `json:"include_viewer_count,omitempty"`
	IncludeThumbnail   *bool  `json:"include_thumbnail,omitempty"`
	EmbedColor         string `json:"embed_color,omitempty"`
	NotifyOnGameChange bool   `json:"notify_on_game_change,omitempty"`

	// RatePerSec throttles outgoing sends across all sinks. Default 1.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// PollingConfig controls the loop cadence.
//
// Defaults:
//   - interval: "60s"
//   - offline_multiplier: 3 (poll 3x less often while the channel is dormant)
//   - cooldown: "15m"
//   - retry_delay: "10s" (pause after a failed tick)
type PollingConfig struct {
	Interval          string `json:"interval,omitempty"`
	OfflineMultiplier int    `json:"offline_multiplier,omitempty"`
	Cooldown          string `json:"cooldown,omitempty"`
	RetryDelay        string `json:"retry_delay,omitempty"`
}

// AdvancedConfig holds the milestone thresholds and the silent switch.
//
// Defaults:
//   - milestones: [50, 100, 500, 1000]
//   - silent: false (evaluate but don't send; useful for dry runs)
type AdvancedConfig struct {
	Milestones *[]int `json:"milestones,omitempty"`
	Silent     bool   `json:"silent,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig controls state persistence.
//
// Driver values: "file" (default), "sqlite" (requires the sqlite build tag),
// "none" (in-memory only; state is lost on restart).
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// DigestConfig controls the optional scheduled session digest.
//
// Schedule is a standard 5-field cron spec, e.g. "0 9 * * *" for 09:00 daily.
type DigestConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// BoolOr resolves an optional toggle against its default.
func BoolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// MilestonesOr resolves the milestone list against its default.
func MilestonesOr(p *[]int, def []int) []int {
	if p == nil {
		return append([]int(nil), def...)
	}
	return append([]int(nil), (*p)...)
}
