package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini    *miniredis.Miniredis
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.Store = s.storage
	s.Ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestKeysUsePrefix() {
	c := &model.Competitor{ID: "c1", FirstName: "Ada", LastName: "L", Language: model.LanguageEnglish, CreatedAt: time.Now()}
	s.Require().NoError(s.storage.CreateCompetitor(s.Ctx, c))

	s.True(s.mini.Exists("compconsole:competitor:c1"))
	members, err := s.mini.Members("compconsole:idx:competitors")
	s.Require().NoError(err)
	s.Equal([]string{"c1"}, members)
}

func (s *StorageSuite) TestSessionIndexedByDay() {
	sess := &model.Session{ID: "s1", CompetitorID: "c1", Day: 3, Module: model.ModuleEvening}
	s.Require().NoError(s.storage.CreateSession(s.Ctx, sess))

	members, err := s.mini.Members("compconsole:idx:sessions_for_day:3")
	s.Require().NoError(err)
	s.Equal([]string{"compconsole:session:c1:3:evening"}, members)
}

func (s *StorageSuite) TestListSkipsDanglingIndexEntries() {
	_, err := s.mini.SAdd("compconsole:idx:competitors", "ghost")
	s.Require().NoError(err)

	list, err := s.storage.ListCompetitors(s.Ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *StorageSuite) TestActiveTimerSurvivesReconnect() {
	key := model.SessionKey{CompetitorID: "c1", Day: 1, Module: model.ModuleMorning}
	s.Require().NoError(s.storage.ClaimActiveTimer(s.Ctx, key))

	other := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), DefaultConfig())
	defer func() { _ = other.Close() }()

	active, err := other.GetActiveTimer(s.Ctx)
	s.Require().NoError(err)
	s.Require().NotNil(active)
	s.Equal(key, *active)
	s.ErrorIs(other.ClaimActiveTimer(s.Ctx, model.SessionKey{CompetitorID: "c2", Day: 1, Module: model.ModuleMorning}), model.ErrTimerActive)
}

func (s *StorageSuite) TestClaimActiveTimerAfterExternalRelease() {
	holder := model.SessionKey{CompetitorID: "c1", Day: 1, Module: model.ModuleMorning}
	claimant := model.SessionKey{CompetitorID: "c2", Day: 1, Module: model.ModuleMorning}

	held, err := json.Marshal(holder)
	s.Require().NoError(err)
	s.Require().NoError(s.mini.Set("compconsole:active_timer", string(held)))

	s.ErrorIs(s.storage.ClaimActiveTimer(s.Ctx, claimant), model.ErrTimerActive)
	s.NoError(s.storage.ClaimActiveTimer(s.Ctx, holder))

	s.mini.Del("compconsole:active_timer")
	s.Require().NoError(s.storage.ClaimActiveTimer(s.Ctx, claimant))

	want, err := json.Marshal(claimant)
	s.Require().NoError(err)
	got, err := s.mini.Get("compconsole:active_timer")
	s.Require().NoError(err)
	s.Equal(string(want), got)

	s.NoError(s.storage.ClaimActiveTimer(s.Ctx, claimant))
	s.ErrorIs(s.storage.ClaimActiveTimer(s.Ctx, holder), model.ErrTimerActive)
}

func (s *StorageSuite) TestConcurrentClaimsWithReleaseHaveOneWinner() {
	const n = 8
	winner := model.SessionKey{CompetitorID: "c0", Day: 1, Module: model.ModuleMorning}
	s.Require().NoError(s.storage.ClaimActiveTimer(s.Ctx, winner))

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := model.SessionKey{CompetitorID: model.CompetitorID(fmt.Sprintf("c%d", i+1)), Day: 1, Module: model.ModuleEvening}
			results[i] = s.storage.ClaimActiveTimer(s.Ctx, key)
		}(i)
	}
	s.Require().NoError(s.storage.ReleaseActiveTimer(s.Ctx, winner))
	wg.Wait()

	active, err := s.storage.GetActiveTimer(s.Ctx)
	s.Require().NoError(err)

	succeeded := 0
	for i, err := range results {
		if err == nil {
			succeeded++
			s.Require().NotNil(active)
			s.Equal(model.CompetitorID(fmt.Sprintf("c%d", i+1)), active.CompetitorID)
			continue
		}
		s.ErrorIs(err, model.ErrTimerActive)
	}
	if active == nil {
		s.Zero(succeeded)
	} else {
		s.Equal(1, succeeded)
	}
}
