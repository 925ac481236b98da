package storage

import (
	"context"
	"time"

	"github.com/mcoot/competition-console/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Competitor operations
	CreateCompetitor(ctx context.Context, c *model.Competitor) error
	// UpdateCompetitorFields overwrites the editable fields and UpdatedAt in one write.
	// The competitor number is never written, so a concurrent assignment is kept.
	// Returns the stored competitor, ErrCompetitorNotFound if absent.
	UpdateCompetitorFields(ctx context.Context, id model.CompetitorID, fields model.CompetitorFields, updatedAt time.Time) (*model.Competitor, error)
	GetCompetitor(ctx context.Context, id model.CompetitorID) (*model.Competitor, error)
	// ListCompetitors returns competitors ordered by creation time
	ListCompetitors(ctx context.Context) ([]*model.Competitor, error)
	DeleteCompetitor(ctx context.Context, id model.CompetitorID) error
	// AssignCompetitorNumbers writes every number or none.
	// An id that does not exist aborts the whole batch with ErrCompetitorNotFound.
	AssignCompetitorNumbers(ctx context.Context, numbers map[model.CompetitorID]int) error

	// Session operations
	// CreateSession fails with ErrSessionExists when the key is taken
	CreateSession(ctx context.Context, s *model.Session) error
	// SaveSession replaces an existing session, ErrSessionNotFound if absent
	SaveSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, key model.SessionKey) (*model.Session, error)
	// ListSessions returns the sessions of a day, or every session when day is 0
	ListSessions(ctx context.Context, day int) ([]*model.Session, error)

	// Active timer operations
	// ClaimActiveTimer marks key as the running timer, ErrTimerActive if another key holds it.
	// Claiming a key that already holds the timer succeeds.
	ClaimActiveTimer(ctx context.Context, key model.SessionKey) error
	// ReleaseActiveTimer clears the claim only when key holds it
	ReleaseActiveTimer(ctx context.Context, key model.SessionKey) error
	// GetActiveTimer returns the key holding the timer, or nil when idle
	GetActiveTimer(ctx context.Context) (*model.SessionKey, error)

	// Admin operations
	// CreateAdmin fails with ErrEmailExists when the email is taken
	CreateAdmin(ctx context.Context, a *model.Admin) error
	GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)

	Close() error
}
