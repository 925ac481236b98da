package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share state with the store.
type Storage struct {
	mu sync.RWMutex

	competitors map[model.CompetitorID]*model.Competitor
	sessions    map[model.SessionKey]*model.Session
	activeTimer *model.SessionKey
	admins      map[model.AdminID]*model.Admin
	emailIndex  map[string]model.AdminID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		competitors: make(map[model.CompetitorID]*model.Competitor),
		sessions:    make(map[model.SessionKey]*model.Session),
		admins:      make(map[model.AdminID]*model.Admin),
		emailIndex:  make(map[string]model.AdminID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op
func (s *Storage) Close() error {
	return nil
}

// Competitor operations

func (s *Storage) CreateCompetitor(ctx context.Context, c *model.Competitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competitors[c.ID] = c.Clone()
	return nil
}

func (s *Storage) UpdateCompetitorFields(ctx context.Context, id model.CompetitorID, fields model.CompetitorFields, updatedAt time.Time) (*model.Competitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.competitors[id]
	if !ok {
		return nil, model.ErrCompetitorNotFound
	}
	c.FirstName = fields.FirstName
	c.LastName = fields.LastName
	c.Language = fields.Language
	c.Country = fields.Country
	c.UpdatedAt = updatedAt
	return c.Clone(), nil
}

func (s *Storage) GetCompetitor(ctx context.Context, id model.CompetitorID) (*model.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.competitors[id]
	if !ok {
		return nil, model.ErrCompetitorNotFound
	}
	return c.Clone(), nil
}

func (s *Storage) ListCompetitors(ctx context.Context) ([]*model.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.Competitor, 0, len(s.competitors))
	for _, c := range s.competitors {
		result = append(result, c.Clone())
	}
	storage.SortCompetitors(result)
	return result, nil
}

func (s *Storage) DeleteCompetitor(ctx context.Context, id model.CompetitorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.competitors[id]; !ok {
		return model.ErrCompetitorNotFound
	}
	delete(s.competitors, id)
	return nil
}

func (s *Storage) AssignCompetitorNumbers(ctx context.Context, numbers map[model.CompetitorID]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range numbers {
		if _, ok := s.competitors[id]; !ok {
			return model.ErrCompetitorNotFound
		}
	}
	for id, n := range numbers {
		c := s.competitors[id].Clone()
		c.Number = &n
		s.competitors[id] = c
	}
	return nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sess.Key()
	if _, ok := s.sessions[key]; ok {
		return model.ErrSessionExists
	}
	s.sessions[key] = sess.Clone()
	return nil
}

func (s *Storage) SaveSession(ctx context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sess.Key()
	if _, ok := s.sessions[key]; !ok {
		return model.ErrSessionNotFound
	}
	s.sessions[key] = sess.Clone()
	return nil
}

func (s *Storage) GetSession(ctx context.Context, key model.SessionKey) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *Storage) ListSessions(ctx context.Context, day int) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.Session, 0)
	for _, sess := range s.sessions {
		if day != 0 && sess.Day != day {
			continue
		}
		result = append(result, sess.Clone())
	}
	storage.SortSessions(result)
	return result, nil
}

// Active timer operations

func (s *Storage) ClaimActiveTimer(ctx context.Context, key model.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeTimer != nil && *s.activeTimer != key {
		return model.ErrTimerActive
	}
	k := key
	s.activeTimer = &k
	return nil
}

func (s *Storage) ReleaseActiveTimer(ctx context.Context, key model.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeTimer != nil && *s.activeTimer == key {
		s.activeTimer = nil
	}
	return nil
}

func (s *Storage) GetActiveTimer(ctx context.Context) (*model.SessionKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeTimer == nil {
		return nil, nil
	}
	k := *s.activeTimer
	return &k, nil
}

// Admin operations

func (s *Storage) CreateAdmin(ctx context.Context, a *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emailIndex[a.Email]; ok {
		return model.ErrEmailExists
	}
	cp := *a
	s.admins[a.ID] = &cp
	s.emailIndex[a.Email] = a.ID
	return nil
}

func (s *Storage) GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[id]
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Storage) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	cp := *s.admins[id]
	return &cp, nil
}
