package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"livenotify/internal/config"
	"livenotify/internal/digest"
	"livenotify/internal/notify"
	"livenotify/internal/policy"
	"livenotify/internal/statestore"
	"livenotify/internal/twitch"
	logx "livenotify/pkg/logx"
)

// StreamProvider is the status collaborator: one observation per call,
// nil info when the channel is offline.
type StreamProvider interface {
	Stream(ctx context.Context, channel string) (*twitch.StreamInfo, error)
}

// Options are the CLI-level switches.
type Options struct {
	ConfigPath string
	Verbose    bool
	DebugAPI   bool
}

// settings is the hot-reloadable slice of the config consumed by the loop.
type settings struct {
	channel     string
	interval    time.Duration
	offlineMult int
	retryDelay  time.Duration
	policy      policy.Config
	render      notify.RenderConfig
}

// App wires the provider, policy, sinks and state store into the polling loop.
type App struct {
	opts Options

	cfgm   *config.Manager
	logsvc *logx.Service
	log    logx.Logger

	provider StreamProvider
	disp     *notify.Dispatcher
	store    statestore.Store
	digest   *digest.Service

	mu  sync.Mutex
	set settings

	// loop-owned; never touched outside the single polling goroutine.
	st           policy.State
	sessionStart time.Time
	peakViewers  int
}

func New(opts Options) (*App, error) {
	if err := config.LoadDotenv(); err != nil {
		return nil, fmt.Errorf("dotenv: %w", err)
	}

	cfgm := config.NewManager(opts.ConfigPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logCfg := logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	}
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	logsvc, log := logx.New(logCfg)
	log = log.With(logx.String("comp", "app"))

	cfgm.SetLogger(logsvc.Logger().With(logx.String("comp", "config")))
	cfgm.SetValidator(func(_ context.Context, c *config.Config) error {
		return config.Validate(c)
	})

	provider, err := twitch.New(twitch.Config{
		ClientID:     cfg.Twitch.ClientID,
		ClientSecret: cfg.Twitch.ClientSecret,
		DebugAPI:     opts.DebugAPI,
	}, logsvc.Logger().With(logx.String("comp", "twitch")))
	if err != nil {
		return nil, err
	}

	sinks, err := buildSinks(cfg)
	if err != nil {
		return nil, err
	}
	disp := notify.NewDispatcher(dispatchConfig(cfg), logsvc.Logger().With(logx.String("comp", "notify")), sinks...)

	// Persistence failures are recoverable: fall back to in-memory state.
	store, err := statestore.Open(storeConfig(cfg), logsvc.Logger().With(logx.String("comp", "statestore")))
	if err != nil {
		log.Warn("state persistence unavailable; continuing in-memory", logx.Err(err))
		store = nil
	}

	a := &App{
		opts:     opts,
		cfgm:     cfgm,
		logsvc:   logsvc,
		log:      log,
		provider: provider,
		disp:     disp,
		store:    store,
	}
	set, err := loopSettings(cfg)
	if err != nil {
		return nil, err
	}
	a.set = set

	if cfg.Digest != nil && cfg.Digest.Enabled {
		dg, err := digest.New(digest.Config{
			Enabled:  true,
			Schedule: cfg.Digest.Schedule,
			Timezone: cfg.Digest.Timezone,
			Channel:  cfg.Twitch.Channel,
		}, store, disp, logsvc.Logger().With(logx.String("comp", "digest")))
		if err != nil {
			return nil, err
		}
		a.digest = dg
	}

	return a, nil
}

func buildSinks(cfg *config.Config) ([]notify.Sink, error) {
	var sinks []notify.Sink
	if strings.TrimSpace(cfg.Discord.WebhookURL) != "" {
		ds, err := notify.NewDiscordSink(cfg.Discord.WebhookURL)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ds)
	}
	if cfg.Telegram != nil && strings.TrimSpace(cfg.Telegram.Token) != "" {
		ts, err := notify.NewTelegramSink(notify.TelegramConfig{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ts)
	}
	return sinks, nil
}

func dispatchConfig(cfg *config.Config) notify.DispatchConfig {
	return notify.DispatchConfig{
		RatePerSec: cfg.Notification.RatePerSec,
		Silent:     cfg.Advanced.Silent,
	}
}

func storeConfig(cfg *config.Config) statestore.Config {
	sc := statestore.Config{Driver: "file"}
	if cfg.Storage != nil {
		sc.Driver = cfg.Storage.Driver
		sc.Path = cfg.Storage.Path
		// Validated earlier; ignore the error here.
		sc.BusyTimeout, _ = config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	}
	return sc
}

func loopSettings(cfg *config.Config) (settings, error) {
	interval, err := config.ParseDurationOrDefault("polling.interval", cfg.Polling.Interval, 60*time.Second)
	if err != nil {
		return settings{}, err
	}
	cooldown, err := config.ParseDurationOrDefault("polling.cooldown", cfg.Polling.Cooldown, 15*time.Minute)
	if err != nil {
		return settings{}, err
	}
	retryDelay, err := config.ParseDurationOrDefault("polling.retry_delay", cfg.Polling.RetryDelay, 10*time.Second)
	if err != nil {
		return settings{}, err
	}
	mult := cfg.Polling.OfflineMultiplier
	if mult <= 0 {
		mult = 3
	}

	return settings{
		channel:     cfg.Twitch.Channel,
		interval:    interval,
		offlineMult: mult,
		retryDelay:  retryDelay,
		policy: policy.Config{
			Cooldown:           cooldown,
			NotifyOnGameChange: cfg.Notification.NotifyOnGameChange,
			Milestones:         config.MilestonesOr(cfg.Advanced.Milestones, []int{50, 100, 500, 1000}),
		},
		render: notify.RenderConfig{
			MessageTemplate:    cfg.Notification.MessageTemplate,
			ContentText:        cfg.Notification.ContentText,
			IncludeTitle:       config.BoolOr(cfg.Notification.IncludeTitle, true),
			IncludeGame:        config.BoolOr(cfg.Notification.IncludeGame, true),
			IncludeViewerCount: config.BoolOr(cfg.Notification.IncludeViewerCount, true),
			IncludeThumbnail:   config.BoolOr(cfg.Notification.IncludeThumbnail, true),
			EmbedColor:         cfg.Notification.EmbedColor,
		},
	}, nil
}

// applyConfig absorbs a hot-reloaded config. Sinks, storage and the digest
// schedule require a restart; everything the loop reads per tick is swapped
// in place.
func (a *App) applyConfig(cfg *config.Config) {
	set, err := loopSettings(cfg)
	if err != nil {
		a.log.Warn("reloaded config rejected", logx.Err(err))
		return
	}

	logCfg := logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	}
	if a.opts.Verbose {
		logCfg.Level = "debug"
	}
	a.logsvc.Apply(logCfg)
	a.disp.Apply(dispatchConfig(cfg))

	a.mu.Lock()
	a.set = set
	a.mu.Unlock()

	a.log.Info("config applied",
		logx.String("channel", set.channel),
		logx.Duration("interval", set.interval),
		logx.Duration("cooldown", set.policy.Cooldown),
		logx.Bool("silent", cfg.Advanced.Silent),
	)
}

func (a *App) settings() settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.set
}

// Close releases the store and log sinks. Call after Run returns.
func (a *App) Close() error {
	var first error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			first = err
		}
	}
	if err := a.logsvc.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
