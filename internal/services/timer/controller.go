package timer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/competition-console/internal/dependencies/clock"
	"github.com/mcoot/competition-console/internal/events"
	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/services/registry"
	"github.com/mcoot/competition-console/internal/storage"
)

const (
	// DefaultCap is the per-session time limit in seconds
	DefaultCap = 600
	// DefaultDays is the number of competition days
	DefaultDays = 3
)

// Config holds the timing rules
type Config struct {
	Cap  int // seconds
	Days int
	// ClampOnStop caps the stored total at Cap when a stop overshoots it
	ClampOnStop bool
}

// DefaultConfig returns the default timing rules
func DefaultConfig() Config {
	return Config{Cap: DefaultCap, Days: DefaultDays}
}

// SessionView is a session as seen at a point in time
type SessionView struct {
	model.Session
	LiveTotal int    `json:"liveTotal"`
	Remaining int    `json:"remaining"`
	Running   bool   `json:"running"`
	Capped    bool   `json:"capped"`
	Display   string `json:"display"` // LiveTotal as MM:SS
}

// BoardRow is one competitor's line on the day board
type BoardRow struct {
	Competitor model.Competitor              `json:"competitor"`
	Sessions   map[model.Module]*SessionView `json:"sessions"` // nil entry until the first start
}

// Controller runs the session timers. At most one session across the whole
// system is running; the claim lives in storage so every instance sees it.
type Controller struct {
	storage   storage.Storage
	clock     clock.Clock
	publisher events.Publisher
	logger    *slog.Logger
	cfg       Config

	// mu serialises start/stop within this process
	mu sync.Mutex
}

// NewController creates a new timer Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	publisher events.Publisher,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	if cfg.Cap <= 0 {
		cfg.Cap = DefaultCap
	}
	if cfg.Days <= 0 {
		cfg.Days = DefaultDays
	}
	return &Controller{
		storage:   storage,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// Config returns the timing rules in effect
func (c *Controller) Config() Config {
	return c.cfg
}

// Start begins timing the session at key. Every guard is checked before anything is written.
func (c *Controller) Start(ctx context.Context, key model.SessionKey) (*model.Session, error) {
	if err := key.Validate(c.cfg.Days); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.storage.GetCompetitor(ctx, key.CompetitorID); err != nil {
		return nil, err
	}

	existing, err := c.storage.GetSession(ctx, key)
	if err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsCapped(c.cfg.Cap) {
		return nil, model.ErrTimeCapReached
	}

	active, err := c.storage.GetActiveTimer(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, model.ErrTimerActive
	}

	session, err := c.EnsureSession(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := c.storage.ClaimActiveTimer(ctx, key); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	session.StartTime = &now
	session.UpdatedAt = now
	if err := c.storage.SaveSession(ctx, session); err != nil {
		if rerr := c.storage.ReleaseActiveTimer(ctx, key); rerr != nil {
			c.logger.Error("failed to release active timer", "session", key.String(), "error", rerr)
		}
		return nil, err
	}

	c.logger.Info("session started", "session", key.String(), "total_time", session.TotalTime)
	c.publish(ctx, model.EventSessionStarted, *session)
	return session, nil
}

// Stop ends the running session at key and adds the whole elapsed seconds to its total
func (c *Controller) Stop(ctx context.Context, key model.SessionKey) (*model.Session, error) {
	if err := key.Validate(c.cfg.Days); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.storage.GetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if !session.IsRunning() {
		return nil, model.ErrSessionNotRunning
	}

	now := c.clock.Now()
	elapsed := session.ElapsedSince(now)
	session.TotalTime += elapsed
	if c.cfg.ClampOnStop && session.TotalTime > c.cfg.Cap {
		session.TotalTime = c.cfg.Cap
	}
	session.EndTime = &now
	session.StartTime = nil
	session.UpdatedAt = now

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	if err := c.storage.ReleaseActiveTimer(ctx, key); err != nil {
		c.logger.Error("failed to release active timer", "session", key.String(), "error", err)
		return nil, err
	}

	c.logger.Info("session stopped", "session", key.String(), "elapsed", elapsed, "total_time", session.TotalTime)
	c.publish(ctx, model.EventSessionStopped, model.SessionStoppedPayload{Session: *session, Elapsed: elapsed})
	return session, nil
}

// EnsureSession returns the session at key, creating an idle one on first use
func (c *Controller) EnsureSession(ctx context.Context, key model.SessionKey) (*model.Session, error) {
	session, err := c.storage.GetSession(ctx, key)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, model.ErrSessionNotFound) {
		return nil, err
	}

	now := c.clock.Now()
	session = &model.Session{
		ID:           model.SessionID(uuid.NewString()),
		CompetitorID: key.CompetitorID,
		Day:          key.Day,
		Module:       key.Module,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = c.storage.CreateSession(ctx, session)
	if errors.Is(err, model.ErrSessionExists) {
		// Another instance created it first
		return c.storage.GetSession(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the session at key as seen now
func (c *Controller) Get(ctx context.Context, key model.SessionKey) (*SessionView, error) {
	if err := key.Validate(c.cfg.Days); err != nil {
		return nil, err
	}
	session, err := c.storage.GetSession(ctx, key)
	if err != nil {
		return nil, err
	}
	view := c.View(session)
	return &view, nil
}

// Active returns the running session, or nil when no timer is running
func (c *Controller) Active(ctx context.Context) (*SessionView, error) {
	key, err := c.storage.GetActiveTimer(ctx)
	if err != nil || key == nil {
		return nil, err
	}
	session, err := c.storage.GetSession(ctx, *key)
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	view := c.View(session)
	return &view, nil
}

// Board returns every competitor with their sessions for the day,
// numbered competitors first
func (c *Controller) Board(ctx context.Context, day int) ([]BoardRow, error) {
	if day < 1 || day > c.cfg.Days {
		return nil, model.ErrInvalidDay
	}

	competitors, err := c.storage.ListCompetitors(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := c.storage.ListSessions(ctx, day)
	if err != nil {
		return nil, err
	}

	byKey := make(map[model.SessionKey]*model.Session, len(sessions))
	for _, s := range sessions {
		byKey[s.Key()] = s
	}

	competitors = registry.SortByNumber(competitors)
	rows := make([]BoardRow, 0, len(competitors))
	for _, comp := range competitors {
		row := BoardRow{
			Competitor: *comp,
			Sessions:   make(map[model.Module]*SessionView, len(model.Modules)),
		}
		for _, m := range model.Modules {
			key := model.SessionKey{CompetitorID: comp.ID, Day: day, Module: m}
			if s, ok := byKey[key]; ok {
				view := c.View(s)
				row.Sessions[m] = &view
			} else {
				row.Sessions[m] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Recover rebuilds the active timer claim from the stored sessions.
// It is run at startup so a restart never loses a running timer.
func (c *Controller) Recover(ctx context.Context) (*model.SessionKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessions, err := c.storage.ListSessions(ctx, 0)
	if err != nil {
		return nil, err
	}

	var running *model.Session
	for _, s := range sessions {
		if !s.IsRunning() {
			continue
		}
		if running != nil {
			c.logger.Warn("multiple running sessions found", "session", s.Key().String(), "kept", running.Key().String())
		}
		if running == nil || s.StartTime.After(*running.StartTime) {
			running = s
		}
	}

	current, err := c.storage.GetActiveTimer(ctx)
	if err != nil {
		return nil, err
	}

	if running == nil {
		if current != nil {
			c.logger.Warn("releasing stale active timer", "session", current.String())
			if err := c.storage.ReleaseActiveTimer(ctx, *current); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	key := running.Key()
	if current != nil && *current != key {
		if err := c.storage.ReleaseActiveTimer(ctx, *current); err != nil {
			return nil, err
		}
	}
	if err := c.storage.ClaimActiveTimer(ctx, key); err != nil {
		return nil, err
	}
	c.logger.Info("active timer recovered", "session", key.String())
	return &key, nil
}

// View computes the live figures of a session at the current time
func (c *Controller) View(s *model.Session) SessionView {
	live := s.LiveTotal(c.clock.Now())
	remaining := c.cfg.Cap - live
	if remaining < 0 {
		remaining = 0
	}
	return SessionView{
		Session:   *s,
		LiveTotal: live,
		Remaining: remaining,
		Running:   s.IsRunning(),
		Capped:    s.IsCapped(c.cfg.Cap),
		Display:   model.FormatSeconds(live),
	}
}

func (c *Controller) publish(ctx context.Context, eventType model.EventType, payload any) {
	c.publisher.Publish(ctx, model.Event{
		Type:      eventType,
		Topic:     model.TopicSessions,
		Timestamp: c.clock.Now(),
		Payload:   payload,
	})
}
