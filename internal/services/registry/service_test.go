package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competition-console/internal/dependencies/mocks"
	"github.com/mcoot/competition-console/internal/events"
	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/services/country"
	"github.com/mcoot/competition-console/internal/storage/memory"
	"github.com/mcoot/competition-console/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage  *memory.Storage
	clock    *mocks.MockClock
	recorder *events.Recorder
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(testutil.BaseTime)
	s.recorder = &events.Recorder{}
	s.service = New(s.storage, s.clock, country.New(), s.recorder, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) fields(first, last string) model.CompetitorFields {
	return model.CompetitorFields{
		FirstName: first,
		LastName:  last,
		Language:  model.LanguageEnglish,
		Country:   "fr",
	}
}

func intPtr(n int) *int { return &n }

// Create tests

func (s *ServiceSuite) TestCreate() {
	c, err := s.service.Create(s.ctx, s.fields("  Ada ", " Lovelace"))
	s.Require().NoError(err)

	s.NotEmpty(c.ID)
	s.Equal("Ada", c.FirstName)
	s.Equal("Lovelace", c.LastName)
	s.Equal("FR", c.Country)
	s.Nil(c.Number)
	s.Equal(testutil.BaseTime, c.CreatedAt)

	stored, err := s.storage.GetCompetitor(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.FullName(), stored.FullName())

	s.Equal([]model.EventType{model.EventCompetitorCreated}, s.recorder.Types())
	s.Equal(model.TopicCompetitors, s.recorder.Events()[0].Topic)
}

func (s *ServiceSuite) TestCreateWithoutCountry() {
	f := s.fields("Ada", "Lovelace")
	f.Country = ""

	c, err := s.service.Create(s.ctx, f)
	s.Require().NoError(err)
	s.Empty(c.Country)
}

func (s *ServiceSuite) TestCreateValidation() {
	cases := []struct {
		name   string
		mutate func(*model.CompetitorFields)
		err    error
	}{
		{"missing first name", func(f *model.CompetitorFields) { f.FirstName = "   " }, model.ErrFirstNameRequired},
		{"missing last name", func(f *model.CompetitorFields) { f.LastName = "" }, model.ErrLastNameRequired},
		{"bad language", func(f *model.CompetitorFields) { f.Language = "german" }, model.ErrInvalidLanguage},
		{"empty language", func(f *model.CompetitorFields) { f.Language = "" }, model.ErrInvalidLanguage},
		{"unknown country", func(f *model.CompetitorFields) { f.Country = "QQ" }, model.ErrInvalidCountry},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			f := s.fields("Ada", "Lovelace")
			tc.mutate(&f)
			_, err := s.service.Create(s.ctx, f)
			s.ErrorIs(err, tc.err)
		})
	}

	list, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(list)
	s.Empty(s.recorder.Events())
}

func (s *ServiceSuite) TestCreateAcceptsUpperCaseLanguage() {
	f := s.fields("Ada", "Lovelace")
	f.Language = "French"

	c, err := s.service.Create(s.ctx, f)
	s.Require().NoError(err)
	s.Equal(model.LanguageFrench, c.Language)
}

// Update tests

func (s *ServiceSuite) TestUpdateKeepsNumber() {
	c, err := s.service.Create(s.ctx, s.fields("Ada", "Lovelace"))
	s.Require().NoError(err)
	s.Require().NoError(s.storage.AssignCompetitorNumbers(s.ctx, map[model.CompetitorID]int{c.ID: 1}))

	s.clock.Advance(time.Minute)
	f := s.fields("Grace", "Hopper")
	f.Language = model.LanguageFrench
	updated, err := s.service.Update(s.ctx, c.ID, f)
	s.Require().NoError(err)

	s.Equal("Grace", updated.FirstName)
	s.Equal(model.LanguageFrench, updated.Language)
	s.Require().NotNil(updated.Number)
	s.Equal(1, *updated.Number)
	s.Equal(testutil.BaseTime, updated.CreatedAt)
	s.Equal(testutil.BaseTime.Add(time.Minute), updated.UpdatedAt)
}

// drawDuringEdit commits a number assignment the first time the competitor is
// read or written, as a draw running alongside an edit would
type drawDuringEdit struct {
	*memory.Storage
	numbers map[model.CompetitorID]int
	once    sync.Once
	err     error
}

func (d *drawDuringEdit) draw(ctx context.Context) {
	d.once.Do(func() { d.err = d.Storage.AssignCompetitorNumbers(ctx, d.numbers) })
}

func (d *drawDuringEdit) GetCompetitor(ctx context.Context, id model.CompetitorID) (*model.Competitor, error) {
	c, err := d.Storage.GetCompetitor(ctx, id)
	d.draw(ctx)
	return c, err
}

func (d *drawDuringEdit) UpdateCompetitorFields(ctx context.Context, id model.CompetitorID, fields model.CompetitorFields, updatedAt time.Time) (*model.Competitor, error) {
	d.draw(ctx)
	return d.Storage.UpdateCompetitorFields(ctx, id, fields, updatedAt)
}

func (s *ServiceSuite) TestUpdateKeepsNumberDrawnDuringEdit() {
	c, err := s.service.Create(s.ctx, s.fields("Ada", "Lovelace"))
	s.Require().NoError(err)

	store := &drawDuringEdit{Storage: s.storage, numbers: map[model.CompetitorID]int{c.ID: 1}}
	svc := New(store, s.clock, country.New(), s.recorder, testutil.NopLogger())

	updated, err := svc.Update(s.ctx, c.ID, s.fields("Ada", "King"))
	s.Require().NoError(err)
	s.Require().NoError(store.err)
	s.Equal("King", updated.LastName)

	got, err := s.storage.GetCompetitor(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.Number, "number drawn during the edit was cleared")
	s.Equal(1, *got.Number)
	s.Equal("King", got.LastName)
}

func (s *ServiceSuite) TestUpdateNotFound() {
	_, err := s.service.Update(s.ctx, "missing", s.fields("Ada", "Lovelace"))
	s.ErrorIs(err, model.ErrCompetitorNotFound)
}

func (s *ServiceSuite) TestUpdateValidatesBeforeLookup() {
	_, err := s.service.Update(s.ctx, "missing", s.fields("", "Lovelace"))
	s.ErrorIs(err, model.ErrFirstNameRequired)
}

// Delete tests

func (s *ServiceSuite) TestDelete() {
	c, err := s.service.Create(s.ctx, s.fields("Ada", "Lovelace"))
	s.Require().NoError(err)
	s.recorder.Reset()

	s.Require().NoError(s.service.Delete(s.ctx, c.ID))

	_, err = s.service.Get(s.ctx, c.ID)
	s.ErrorIs(err, model.ErrCompetitorNotFound)
	s.Equal([]model.EventType{model.EventCompetitorDeleted}, s.recorder.Types())
}

func (s *ServiceSuite) TestDeleteNotFound() {
	s.ErrorIs(s.service.Delete(s.ctx, "missing"), model.ErrCompetitorNotFound)
	s.Empty(s.recorder.Events())
}

func (s *ServiceSuite) TestDeleteLeavesNumberGap() {
	var ids []model.CompetitorID
	for _, name := range []string{"A", "B", "C"} {
		c, err := s.service.Create(s.ctx, s.fields(name, name))
		s.Require().NoError(err)
		ids = append(ids, c.ID)
		s.clock.Advance(time.Second)
	}
	s.Require().NoError(s.storage.AssignCompetitorNumbers(s.ctx, map[model.CompetitorID]int{ids[0]: 1, ids[1]: 2, ids[2]: 3}))

	s.Require().NoError(s.service.Delete(s.ctx, ids[1]))

	list, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(1, *list[0].Number)
	s.Equal(3, *list[1].Number)
}

// Helper tests

func (s *ServiceSuite) TestSortByNumber() {
	cs := []*model.Competitor{
		{ID: "u1"},
		{ID: "n3", Number: intPtr(3)},
		{ID: "u2"},
		{ID: "n1", Number: intPtr(1)},
	}

	sorted := SortByNumber(cs)

	var ids []model.CompetitorID
	for _, c := range sorted {
		ids = append(ids, c.ID)
	}
	s.Equal([]model.CompetitorID{"n1", "n3", "u1", "u2"}, ids)
	s.Equal(model.CompetitorID("u1"), cs[0].ID)
}

func (s *ServiceSuite) TestByLanguage() {
	cs := []*model.Competitor{
		{ID: "a", Language: model.LanguageFrench},
		{ID: "b", Language: model.LanguageEnglish},
		{ID: "c", Language: model.LanguageFrench},
	}

	groups := ByLanguage(cs)
	s.Len(groups[model.LanguageEnglish], 1)
	s.Len(groups[model.LanguageFrench], 2)
	s.Equal(model.CompetitorID("c"), groups[model.LanguageFrench][1].ID)

	empty := ByLanguage(nil)
	s.NotNil(empty[model.LanguageEnglish])
	s.Empty(empty[model.LanguageEnglish])
}
