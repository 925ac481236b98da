// Package storagetest holds the behaviour every storage backend must share.
// Backends embed Suite in their own test suite and set Store in SetupTest.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage"
)

// Suite exercises a storage.Storage implementation
type Suite struct {
	suite.Suite
	Store storage.Storage
	Ctx   context.Context
}

var baseTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func (s *Suite) competitor(id string, offset time.Duration) *model.Competitor {
	return &model.Competitor{
		ID:        model.CompetitorID(id),
		FirstName: "First " + id,
		LastName:  "Last " + id,
		Language:  model.LanguageEnglish,
		Country:   "FR",
		CreatedAt: baseTime.Add(offset),
		UpdatedAt: baseTime.Add(offset),
	}
}

func (s *Suite) session(competitorID string, day int, module model.Module) *model.Session {
	return &model.Session{
		ID:           model.SessionID(fmt.Sprintf("sess-%s-%d-%s", competitorID, day, module)),
		CompetitorID: model.CompetitorID(competitorID),
		Day:          day,
		Module:       module,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
}

func (s *Suite) mustCreateCompetitor(c *model.Competitor) {
	s.Require().NoError(s.Store.CreateCompetitor(s.Ctx, c))
}

// Competitor tests

func (s *Suite) TestCreateAndGetCompetitor() {
	c := s.competitor("c1", 0)
	s.mustCreateCompetitor(c)

	got, err := s.Store.GetCompetitor(s.Ctx, "c1")
	s.Require().NoError(err)
	s.Equal(c.FirstName, got.FirstName)
	s.Equal(c.LastName, got.LastName)
	s.Equal(c.Language, got.Language)
	s.Equal(c.Country, got.Country)
	s.Nil(got.Number)
	s.WithinDuration(c.CreatedAt, got.CreatedAt, time.Millisecond)
}

func (s *Suite) TestGetCompetitorNotFound() {
	_, err := s.Store.GetCompetitor(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrCompetitorNotFound)
}

func (s *Suite) renamed() model.CompetitorFields {
	return model.CompetitorFields{
		FirstName: "Renamed",
		LastName:  "Changed",
		Language:  model.LanguageFrench,
		Country:   "BE",
	}
}

func (s *Suite) TestUpdateCompetitorFields() {
	s.mustCreateCompetitor(s.competitor("c1", 0))
	updatedAt := baseTime.Add(time.Hour)

	updated, err := s.Store.UpdateCompetitorFields(s.Ctx, "c1", s.renamed(), updatedAt)
	s.Require().NoError(err)
	s.Equal("Renamed", updated.FirstName)
	s.True(updatedAt.Equal(updated.UpdatedAt))
	s.True(baseTime.Equal(updated.CreatedAt))

	got, err := s.Store.GetCompetitor(s.Ctx, "c1")
	s.Require().NoError(err)
	s.Equal("Renamed", got.FirstName)
	s.Equal("Changed", got.LastName)
	s.Equal(model.LanguageFrench, got.Language)
	s.Equal("BE", got.Country)
	s.True(updatedAt.Equal(got.UpdatedAt))
}

func (s *Suite) TestUpdateCompetitorFieldsNotFound() {
	_, err := s.Store.UpdateCompetitorFields(s.Ctx, "ghost", s.renamed(), baseTime)
	s.ErrorIs(err, model.ErrCompetitorNotFound)
}

func (s *Suite) TestStoredCompetitorIsDetached() {
	c := s.competitor("c1", 0)
	s.mustCreateCompetitor(c)
	c.FirstName = "Mutated"

	got, err := s.Store.GetCompetitor(s.Ctx, "c1")
	s.Require().NoError(err)
	s.Equal("First c1", got.FirstName)
}

func (s *Suite) TestListCompetitorsOrderedByCreation() {
	s.mustCreateCompetitor(s.competitor("b", 2*time.Second))
	s.mustCreateCompetitor(s.competitor("a", 1*time.Second))
	s.mustCreateCompetitor(s.competitor("c", 3*time.Second))

	list, err := s.Store.ListCompetitors(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal(model.CompetitorID("a"), list[0].ID)
	s.Equal(model.CompetitorID("b"), list[1].ID)
	s.Equal(model.CompetitorID("c"), list[2].ID)
}

func (s *Suite) TestListCompetitorsEmpty() {
	list, err := s.Store.ListCompetitors(s.Ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *Suite) TestDeleteCompetitor() {
	s.mustCreateCompetitor(s.competitor("c1", 0))

	s.Require().NoError(s.Store.DeleteCompetitor(s.Ctx, "c1"))

	_, err := s.Store.GetCompetitor(s.Ctx, "c1")
	s.ErrorIs(err, model.ErrCompetitorNotFound)

	list, err := s.Store.ListCompetitors(s.Ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *Suite) TestDeleteCompetitorNotFound() {
	err := s.Store.DeleteCompetitor(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrCompetitorNotFound)
}

func (s *Suite) TestAssignCompetitorNumbers() {
	s.mustCreateCompetitor(s.competitor("a", 1*time.Second))
	s.mustCreateCompetitor(s.competitor("b", 2*time.Second))

	err := s.Store.AssignCompetitorNumbers(s.Ctx, map[model.CompetitorID]int{"a": 2, "b": 1})
	s.Require().NoError(err)

	a, err := s.Store.GetCompetitor(s.Ctx, "a")
	s.Require().NoError(err)
	s.Require().NotNil(a.Number)
	s.Equal(2, *a.Number)

	b, err := s.Store.GetCompetitor(s.Ctx, "b")
	s.Require().NoError(err)
	s.Require().NotNil(b.Number)
	s.Equal(1, *b.Number)
}

func (s *Suite) TestAssignCompetitorNumbersUnknownIDWritesNothing() {
	s.mustCreateCompetitor(s.competitor("a", 0))

	err := s.Store.AssignCompetitorNumbers(s.Ctx, map[model.CompetitorID]int{"a": 1, "ghost": 2})
	s.ErrorIs(err, model.ErrCompetitorNotFound)

	a, err := s.Store.GetCompetitor(s.Ctx, "a")
	s.Require().NoError(err)
	s.Nil(a.Number)
}

func (s *Suite) TestUpdateCompetitorFieldsKeepsAssignedNumber() {
	s.mustCreateCompetitor(s.competitor("a", 0))
	s.Require().NoError(s.Store.AssignCompetitorNumbers(s.Ctx, map[model.CompetitorID]int{"a": 1}))

	updated, err := s.Store.UpdateCompetitorFields(s.Ctx, "a", s.renamed(), baseTime)
	s.Require().NoError(err)
	s.Require().NotNil(updated.Number)
	s.Equal(1, *updated.Number)

	got, err := s.Store.GetCompetitor(s.Ctx, "a")
	s.Require().NoError(err)
	s.Require().NotNil(got.Number)
	s.Equal(1, *got.Number)
	s.Equal("Changed", got.LastName)
}

// An editor that read the competitor before numbers were drawn must not clear them
func (s *Suite) TestUpdateAfterStaleReadKeepsConcurrentNumber() {
	s.mustCreateCompetitor(s.competitor("a", 0))

	stale, err := s.Store.GetCompetitor(s.Ctx, "a")
	s.Require().NoError(err)
	s.Require().Nil(stale.Number)

	s.Require().NoError(s.Store.AssignCompetitorNumbers(s.Ctx, map[model.CompetitorID]int{"a": 1}))

	fields := model.CompetitorFields{
		FirstName: stale.FirstName + " Jr",
		LastName:  stale.LastName,
		Language:  stale.Language,
		Country:   stale.Country,
	}
	_, err = s.Store.UpdateCompetitorFields(s.Ctx, "a", fields, baseTime.Add(time.Minute))
	s.Require().NoError(err)

	got, err := s.Store.GetCompetitor(s.Ctx, "a")
	s.Require().NoError(err)
	s.Require().NotNil(got.Number, "number drawn during the edit was cleared")
	s.Equal(1, *got.Number)
	s.Equal("First a Jr", got.FirstName)
}

func (s *Suite) TestConcurrentUpdateAndAssignKeepNumbers() {
	const n = 4
	for i := 0; i < n; i++ {
		s.mustCreateCompetitor(s.competitor(fmt.Sprintf("c%d", i), time.Duration(i)*time.Second))
	}
	numbers := make(map[model.CompetitorID]int, n)
	for i := 0; i < n; i++ {
		numbers[model.CompetitorID(fmt.Sprintf("c%d", i))] = i + 1
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.NoError(s.Store.AssignCompetitorNumbers(s.Ctx, numbers))
	}()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id model.CompetitorID) {
			defer wg.Done()
			_, err := s.Store.UpdateCompetitorFields(s.Ctx, id, s.renamed(), baseTime)
			s.NoError(err)
		}(model.CompetitorID(fmt.Sprintf("c%d", i)))
	}
	wg.Wait()

	list, err := s.Store.ListCompetitors(s.Ctx)
	s.Require().NoError(err)
	for _, c := range list {
		s.Require().NotNil(c.Number, "competitor %s lost its number", c.ID)
		s.Equal(numbers[c.ID], *c.Number)
		s.Equal("Renamed", c.FirstName)
	}
}

// Session tests

func (s *Suite) TestCreateAndGetSession() {
	sess := s.session("c1", 1, model.ModuleMorning)
	s.Require().NoError(s.Store.CreateSession(s.Ctx, sess))

	got, err := s.Store.GetSession(s.Ctx, sess.Key())
	s.Require().NoError(err)
	s.Equal(sess.ID, got.ID)
	s.Equal(sess.Key(), got.Key())
	s.Nil(got.StartTime)
	s.Nil(got.EndTime)
	s.Equal(0, got.TotalTime)
}

func (s *Suite) TestCreateSessionDuplicateKey() {
	s.Require().NoError(s.Store.CreateSession(s.Ctx, s.session("c1", 1, model.ModuleMorning)))

	dup := s.session("c1", 1, model.ModuleMorning)
	dup.ID = "other-id"
	err := s.Store.CreateSession(s.Ctx, dup)
	s.ErrorIs(err, model.ErrSessionExists)
}

func (s *Suite) TestConcurrentCreateSessionSingleWinner() {
	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := s.session("c1", 2, model.ModuleEvening)
			sess.ID = model.SessionID(fmt.Sprintf("sess-%d", i))
			errs <- s.Store.CreateSession(s.Ctx, sess)
		}(i)
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		s.ErrorIs(err, model.ErrSessionExists)
	}
	s.Equal(1, created)
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Store.GetSession(s.Ctx, model.SessionKey{CompetitorID: "c1", Day: 1, Module: model.ModuleMorning})
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestSaveSession() {
	sess := s.session("c1", 1, model.ModuleMorning)
	s.Require().NoError(s.Store.CreateSession(s.Ctx, sess))

	start := baseTime.Add(time.Minute)
	sess.StartTime = &start
	sess.TotalTime = 42
	s.Require().NoError(s.Store.SaveSession(s.Ctx, sess))

	got, err := s.Store.GetSession(s.Ctx, sess.Key())
	s.Require().NoError(err)
	s.Require().NotNil(got.StartTime)
	s.WithinDuration(start, *got.StartTime, time.Millisecond)
	s.Equal(42, got.TotalTime)
	s.True(got.IsRunning())

	end := start.Add(30 * time.Second)
	got.StartTime = nil
	got.EndTime = &end
	s.Require().NoError(s.Store.SaveSession(s.Ctx, got))

	got, err = s.Store.GetSession(s.Ctx, sess.Key())
	s.Require().NoError(err)
	s.Nil(got.StartTime)
	s.Require().NotNil(got.EndTime)
	s.WithinDuration(end, *got.EndTime, time.Millisecond)
}

func (s *Suite) TestSaveSessionNotFound() {
	err := s.Store.SaveSession(s.Ctx, s.session("c1", 1, model.ModuleMorning))
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestListSessionsByDay() {
	s.Require().NoError(s.Store.CreateSession(s.Ctx, s.session("b", 1, model.ModuleEvening)))
	s.Require().NoError(s.Store.CreateSession(s.Ctx, s.session("a", 1, model.ModuleMorning)))
	s.Require().NoError(s.Store.CreateSession(s.Ctx, s.session("a", 2, model.ModuleMorning)))

	day1, err := s.Store.ListSessions(s.Ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(day1, 2)
	s.Equal(model.ModuleMorning, day1[0].Module)
	s.Equal(model.ModuleEvening, day1[1].Module)

	all, err := s.Store.ListSessions(s.Ctx, 0)
	s.Require().NoError(err)
	s.Len(all, 3)
	s.Equal(2, all[2].Day)
}

// Active timer tests

func (s *Suite) TestActiveTimerClaimAndRelease() {
	key := model.SessionKey{CompetitorID: "c1", Day: 1, Module: model.ModuleMorning}

	active, err := s.Store.GetActiveTimer(s.Ctx)
	s.Require().NoError(err)
	s.Nil(active)

	s.Require().NoError(s.Store.ClaimActiveTimer(s.Ctx, key))

	active, err = s.Store.GetActiveTimer(s.Ctx)
	s.Require().NoError(err)
	s.Require().NotNil(active)
	s.Equal(key, *active)

	s.Require().NoError(s.Store.ReleaseActiveTimer(s.Ctx, key))

	active, err = s.Store.GetActiveTimer(s.Ctx)
	s.Require().NoError(err)
	s.Nil(active)
}

func (s *Suite) TestActiveTimerClaimIsExclusive() {
	first := model.SessionKey{CompetitorID: "c1", Day: 1, Module: model.ModuleMorning}
	second := model.SessionKey{CompetitorID: "c2", Day: 1, Module: model.ModuleMorning}

	s.Require().NoError(s.Store.ClaimActiveTimer(s.Ctx, first))
	s.ErrorIs(s.Store.ClaimActiveTimer(s.Ctx, second), model.ErrTimerActive)

	// Reclaiming by the holder succeeds
	s.NoError(s.Store.ClaimActiveTimer(s.Ctx, first))
}

func (s *Suite) TestReleaseByNonHolderKeepsClaim() {
	holder := model.SessionKey{CompetitorID: "c1", Day: 1, Module: model.ModuleMorning}
	other := model.SessionKey{CompetitorID: "c2", Day: 1, Module: model.ModuleEvening}

	s.Require().NoError(s.Store.ClaimActiveTimer(s.Ctx, holder))
	s.Require().NoError(s.Store.ReleaseActiveTimer(s.Ctx, other))

	active, err := s.Store.GetActiveTimer(s.Ctx)
	s.Require().NoError(err)
	s.Require().NotNil(active)
	s.Equal(holder, *active)
}

func (s *Suite) TestConcurrentClaimSingleWinner() {
	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := model.SessionKey{CompetitorID: model.CompetitorID(fmt.Sprintf("c%d", i)), Day: 1, Module: model.ModuleMorning}
			errs <- s.Store.ClaimActiveTimer(s.Ctx, key)
		}(i)
	}
	wg.Wait()
	close(errs)

	won := 0
	for err := range errs {
		if err == nil {
			won++
			continue
		}
		s.ErrorIs(err, model.ErrTimerActive)
	}
	s.Equal(1, won)
}

// Admin tests

func (s *Suite) TestCreateAndGetAdmin() {
	a := &model.Admin{
		ID:           "admin-1",
		Email:        "ops@example.com",
		Role:         model.RoleAdmin,
		PasswordHash: "hash",
		CreatedAt:    baseTime,
	}
	s.Require().NoError(s.Store.CreateAdmin(s.Ctx, a))

	byID, err := s.Store.GetAdmin(s.Ctx, "admin-1")
	s.Require().NoError(err)
	s.Equal("ops@example.com", byID.Email)

	byEmail, err := s.Store.GetAdminByEmail(s.Ctx, "ops@example.com")
	s.Require().NoError(err)
	s.Equal(model.AdminID("admin-1"), byEmail.ID)
	s.Equal("hash", byEmail.PasswordHash)
	s.Equal(model.RoleAdmin, byEmail.Role)
}

func (s *Suite) TestCreateAdminDuplicateEmail() {
	a := &model.Admin{ID: "admin-1", Email: "ops@example.com", Role: model.RoleAdmin, CreatedAt: baseTime}
	s.Require().NoError(s.Store.CreateAdmin(s.Ctx, a))

	dup := &model.Admin{ID: "admin-2", Email: "ops@example.com", Role: model.RoleAdmin, CreatedAt: baseTime}
	s.ErrorIs(s.Store.CreateAdmin(s.Ctx, dup), model.ErrEmailExists)
}

func (s *Suite) TestGetAdminNotFound() {
	_, err := s.Store.GetAdmin(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrAdminNotFound)

	_, err = s.Store.GetAdminByEmail(s.Ctx, "missing@example.com")
	s.ErrorIs(err, model.ErrAdminNotFound)
}
