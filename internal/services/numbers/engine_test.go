package numbers

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competition-console/internal/dependencies/mocks"
	"github.com/mcoot/competition-console/internal/dependencies/random"
	"github.com/mcoot/competition-console/internal/events"
	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage/memory"
	"github.com/mcoot/competition-console/internal/testutil"
)

func TestShuffleIdentityChoices(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(3, 2, 1)

	assert.Equal(t, []int{1, 2, 3, 4}, Shuffle(rnd, 4))
	assert.Equal(t, []int{4, 3, 2}, rnd.Calls)
}

func TestShuffleSwapsWithChosenIndex(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(0, 0, 0)

	// i=3 swaps with 0, i=2 swaps with 0, i=1 swaps with 0
	assert.Equal(t, []int{2, 3, 4, 1}, Shuffle(rnd, 4))
}

func TestShuffleSmallInputs(t *testing.T) {
	rnd := mocks.NewMockRandom()

	assert.Empty(t, Shuffle(rnd, 0))
	assert.Equal(t, []int{1}, Shuffle(rnd, 1))
	assert.Empty(t, rnd.Calls)
}

func TestShuffleIsPermutation(t *testing.T) {
	rnd := random.New()
	for n := 1; n <= 50; n++ {
		got := Shuffle(rnd, n)
		sorted := append([]int(nil), got...)
		sort.Ints(sorted)
		for i, v := range sorted {
			assert.Equal(t, i+1, v)
		}
	}
}

func TestShuffleIsUniform(t *testing.T) {
	rnd := random.New()
	const draws = 6000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		counts[fmt.Sprint(Shuffle(rnd, 3))]++
	}

	assert.Len(t, counts, 6)
	for perm, count := range counts {
		assert.InDelta(t, draws/6, count, 200, "permutation %s", perm)
	}
}

func TestAssignIsBijection(t *testing.T) {
	competitors := make([]*model.Competitor, 10)
	for i := range competitors {
		competitors[i] = &model.Competitor{ID: model.CompetitorID(fmt.Sprintf("c%d", i))}
	}

	numbers := Assign(random.New(), competitors)

	assert.Len(t, numbers, 10)
	seen := make(map[int]bool)
	for _, n := range numbers {
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 10)
		assert.False(t, seen[n], "duplicate number %d", n)
		seen[n] = true
	}
}

func TestAssignFollowsCompetitorOrder(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(0, 0)
	competitors := []*model.Competitor{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	// [1,2,3] -> i=2 swap 0 -> [3,2,1] -> i=1 swap 0 -> [2,3,1]
	numbers := Assign(rnd, competitors)
	assert.Equal(t, map[model.CompetitorID]int{"a": 2, "b": 3, "c": 1}, numbers)
}

type EngineSuite struct {
	suite.Suite
	storage  *memory.Storage
	random   *mocks.MockRandom
	recorder *events.Recorder
	engine   *Engine
	ctx      context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.storage = memory.New()
	s.random = mocks.NewMockRandom()
	s.recorder = &events.Recorder{}
	s.engine = NewEngine(s.storage, s.random, mocks.NewMockClock(testutil.BaseTime), s.recorder, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *EngineSuite) numbersInStore() map[model.CompetitorID]int {
	list, err := s.storage.ListCompetitors(s.ctx)
	s.Require().NoError(err)
	out := make(map[model.CompetitorID]int)
	for _, c := range list {
		if c.Number != nil {
			out[c.ID] = *c.Number
		}
	}
	return out
}

func (s *EngineSuite) TestRandomizeNoCompetitors() {
	_, err := s.engine.Randomize(s.ctx, false)
	s.ErrorIs(err, model.ErrNoCompetitors)
	s.Empty(s.recorder.Events())
}

func (s *EngineSuite) TestRandomizeAssignsAll() {
	_, err := testutil.SeedCompetitors(s.ctx, s.storage, 3)
	s.Require().NoError(err)
	s.random.QueueIntn(0, 0)

	numbers, err := s.engine.Randomize(s.ctx, false)
	s.Require().NoError(err)

	want := map[model.CompetitorID]int{"c1": 2, "c2": 3, "c3": 1}
	s.Equal(want, numbers)
	s.Equal(want, s.numbersInStore())

	published := s.recorder.Events()
	s.Require().Len(published, 1)
	s.Equal(model.EventNumbersAssigned, published[0].Type)
	payload, ok := published[0].Payload.(model.NumbersAssignedPayload)
	s.Require().True(ok)
	s.False(payload.Reassign)
}

// deleteBeforeAssign removes a competitor between the engine's read and its write
type deleteBeforeAssign struct {
	*memory.Storage
	victim  model.CompetitorID
	deleted bool
}

func (d *deleteBeforeAssign) AssignCompetitorNumbers(ctx context.Context, numbers map[model.CompetitorID]int) error {
	if !d.deleted {
		d.deleted = true
		if err := d.Storage.DeleteCompetitor(ctx, d.victim); err != nil {
			return err
		}
	}
	return d.Storage.AssignCompetitorNumbers(ctx, numbers)
}

func (s *EngineSuite) TestRandomizeStaleWhenCompetitorDeletedMidway() {
	_, err := testutil.SeedCompetitors(s.ctx, s.storage, 3)
	s.Require().NoError(err)

	store := &deleteBeforeAssign{Storage: s.storage, victim: "c2"}
	engine := NewEngine(store, s.random, mocks.NewMockClock(testutil.BaseTime), s.recorder, testutil.NopLogger())

	_, err = engine.Randomize(s.ctx, false)
	s.ErrorIs(err, model.ErrAssignmentStale)
	s.NotErrorIs(err, model.ErrCompetitorNotFound)
	s.Empty(s.numbersInStore())
	s.Empty(s.recorder.Events())

	// A retry over the current list succeeds
	numbers, err := engine.Randomize(s.ctx, false)
	s.Require().NoError(err)
	s.Len(numbers, 2)
}

func (s *EngineSuite) TestRandomizeLockedWithoutConfirm() {
	_, err := testutil.SeedCompetitors(s.ctx, s.storage, 3)
	s.Require().NoError(err)
	s.random.QueueIntn(2, 1)
	first, err := s.engine.Randomize(s.ctx, false)
	s.Require().NoError(err)
	s.recorder.Reset()

	s.random.QueueIntn(0, 0)
	_, err = s.engine.Randomize(s.ctx, false)
	s.ErrorIs(err, model.ErrNumbersLocked)
	s.Equal(first, s.numbersInStore())
	s.Empty(s.recorder.Events())
}

func (s *EngineSuite) TestRandomizeLockedWithConfirm() {
	_, err := testutil.SeedCompetitors(s.ctx, s.storage, 3)
	s.Require().NoError(err)
	s.random.QueueIntn(2, 1)
	_, err = s.engine.Randomize(s.ctx, false)
	s.Require().NoError(err)
	s.recorder.Reset()

	s.random.QueueIntn(0, 0)
	numbers, err := s.engine.Randomize(s.ctx, true)
	s.Require().NoError(err)
	s.Equal(map[model.CompetitorID]int{"c1": 2, "c2": 3, "c3": 1}, numbers)
	s.Equal(numbers, s.numbersInStore())

	payload := s.recorder.Events()[0].Payload.(model.NumbersAssignedPayload)
	s.True(payload.Reassign)
}

func (s *EngineSuite) TestRandomizeIncludesLateRegistrations() {
	_, err := testutil.SeedCompetitors(s.ctx, s.storage, 2)
	s.Require().NoError(err)
	_, err = s.engine.Randomize(s.ctx, false)
	s.Require().NoError(err)

	late := &model.Competitor{ID: "late", FirstName: "L", LastName: "L", Language: model.LanguageFrench, CreatedAt: testutil.BaseTime.Add(24 * time.Hour)}
	s.Require().NoError(s.storage.CreateCompetitor(s.ctx, late))

	numbers, err := s.engine.Randomize(s.ctx, true)
	s.Require().NoError(err)
	s.Len(numbers, 3)
	s.Contains(numbers, model.CompetitorID("late"))
}

func (s *EngineSuite) TestStatusUnlocked() {
	_, err := testutil.SeedCompetitors(s.ctx, s.storage, 2)
	s.Require().NoError(err)

	status, err := s.engine.Status(s.ctx)
	s.Require().NoError(err)
	s.False(status.Locked)
	s.Equal(2, status.Total)
	s.Equal(0, status.Assigned)
	s.Equal(2, status.Unnumbered)
	s.Empty(status.Missing)
}

func (s *EngineSuite) TestStatusReportsGapsAfterDelete() {
	_, err := testutil.SeedCompetitors(s.ctx, s.storage, 4)
	s.Require().NoError(err)
	s.Require().NoError(s.storage.AssignCompetitorNumbers(s.ctx, map[model.CompetitorID]int{"c1": 1, "c2": 2, "c3": 3, "c4": 4}))
	s.Require().NoError(s.storage.DeleteCompetitor(s.ctx, "c2"))
	late := &model.Competitor{ID: "late", FirstName: "L", LastName: "L", Language: model.LanguageEnglish}
	s.Require().NoError(s.storage.CreateCompetitor(s.ctx, late))

	status, err := s.engine.Status(s.ctx)
	s.Require().NoError(err)
	s.True(status.Locked)
	s.Equal(4, status.Total)
	s.Equal(3, status.Assigned)
	s.Equal(1, status.Unnumbered)
	s.Equal([]int{2}, status.Missing)
}
