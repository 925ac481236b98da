package timer

import (
	"context"
	"time"

	"github.com/mcoot/competition-console/internal/model"
)

// DefaultWatchInterval is how often the running session is checked against the cap
const DefaultWatchInterval = time.Second

// WatcherConfig controls cap enforcement
type WatcherConfig struct {
	Interval time.Duration
	// AutoStop stops the session once it reaches the cap instead of only notifying
	AutoStop bool
}

// Watcher polls the running session and reports when it reaches the cap
type Watcher struct {
	controller *Controller
	cfg        WatcherConfig

	// notified is the run already reported, identified by key and start time
	notified string
}

// NewWatcher creates a Watcher over the controller's running session
func NewWatcher(controller *Controller, cfg WatcherConfig) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWatchInterval
	}
	return &Watcher{controller: controller, cfg: cfg}
}

// Run checks the running session every interval until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) {
	ticker := w.controller.clock.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := w.Check(ctx); err != nil {
				w.controller.logger.Error("cap check failed", "error", err)
			}
		}
	}
}

// Check reports the running session once per run when its live total reaches the cap
func (w *Watcher) Check(ctx context.Context) error {
	active, err := w.controller.Active(ctx)
	if err != nil {
		return err
	}
	if active == nil || !active.Running {
		w.notified = ""
		return nil
	}
	if active.LiveTotal < w.controller.cfg.Cap {
		return nil
	}

	key := active.Key()
	run := key.String() + "@" + active.StartTime.UTC().Format(time.RFC3339Nano)
	if w.notified == run {
		return nil
	}
	w.notified = run

	w.controller.logger.Warn("session reached time cap", "session", key.String(), "live_total", active.LiveTotal)
	w.controller.publish(ctx, model.EventSessionCapReached, model.SessionCapReachedPayload{
		Key:       key,
		LiveTotal: active.LiveTotal,
		AutoStop:  w.cfg.AutoStop,
	})

	if w.cfg.AutoStop {
		if _, err := w.controller.Stop(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
