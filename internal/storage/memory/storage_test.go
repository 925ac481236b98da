package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.Store = s.storage
	s.Ctx = context.Background()
}

func (s *StorageSuite) TestListReturnsCopies() {
	c := &model.Competitor{ID: "c1", FirstName: "Ada", LastName: "L", Language: model.LanguageEnglish}
	s.Require().NoError(s.storage.CreateCompetitor(s.Ctx, c))
	s.Require().NoError(s.storage.AssignCompetitorNumbers(s.Ctx, map[model.CompetitorID]int{"c1": 1}))

	list, err := s.storage.ListCompetitors(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	*list[0].Number = 99

	got, err := s.storage.GetCompetitor(s.Ctx, "c1")
	s.Require().NoError(err)
	s.Equal(1, *got.Number)
}
