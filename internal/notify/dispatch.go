package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "livenotify/pkg/logx"
)

const historyMax = 50

// Sink is a delivery transport for rendered notifications.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

// DispatchConfig controls the dispatcher's throttling and suppression.
type DispatchConfig struct {
	// RatePerSec caps sends across all sinks; chat services rate-limit
	// webhooks aggressively. Default 1.
	RatePerSec int

	// Silent evaluates and logs but never delivers. Useful for dry runs.
	Silent bool
}

// Dispatcher fans events out to all configured sinks with a shared rate
// limit. A sink failure is logged and does not block the other sinks or the
// polling loop; delivery is not retried within the tick.
type Dispatcher struct {
	log   logx.Logger
	sinks []Sink

	mu      sync.Mutex
	cfg     DispatchConfig
	limiter *rate.Limiter

	hmu     sync.Mutex
	history []HistoryItem
}

func NewDispatcher(cfg DispatchConfig, log logx.Logger, sinks ...Sink) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Dispatcher{log: log, sinks: sinks}
	d.Apply(cfg)
	return d
}

// Apply updates throttling/suppression at runtime (config hot-reload).
func (d *Dispatcher) Apply(cfg DispatchConfig) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	d.mu.Lock()
	d.cfg = cfg
	d.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	d.mu.Unlock()
}

// Dispatch sends one event through every sink. It returns the number of
// sinks that accepted the event.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) int {
	d.mu.Lock()
	silent := d.cfg.Silent
	lim := d.limiter
	d.mu.Unlock()

	if silent {
		d.log.Info("silent mode enabled, not sending notification", logx.String("kind", ev.Kind))
		return 0
	}
	if len(d.sinks) == 0 {
		d.log.Warn("no sinks configured; dropping notification", logx.String("kind", ev.Kind))
		return 0
	}

	if err := lim.Wait(ctx); err != nil {
		return 0
	}

	ok := 0
	for _, s := range d.sinks {
		err := s.Send(ctx, ev)
		if err != nil {
			d.log.Error("notification send failed",
				logx.String("sink", s.Name()),
				logx.String("kind", ev.Kind),
				logx.Err(err),
			)
		} else {
			ok++
			d.log.Info("notification sent",
				logx.String("sink", s.Name()),
				logx.String("kind", ev.Kind),
			)
		}
		d.record(ev, err)
	}
	return ok
}

func (d *Dispatcher) record(ev Event, err error) {
	it := HistoryItem{At: time.Now(), Kind: ev.Kind, Text: ev.Text()}
	if err != nil {
		it.Err = err.Error()
	}
	d.hmu.Lock()
	d.history = append(d.history, it)
	if len(d.history) > historyMax {
		d.history = d.history[len(d.history)-historyMax:]
	}
	d.hmu.Unlock()
}

// History returns a copy of the recent dispatch log, oldest first.
func (d *Dispatcher) History() []HistoryItem {
	d.hmu.Lock()
	defer d.hmu.Unlock()
	return append([]HistoryItem(nil), d.history...)
}
