package numbers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/competition-console/internal/dependencies/clock"
	"github.com/mcoot/competition-console/internal/dependencies/random"
	"github.com/mcoot/competition-console/internal/events"
	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage"
)

// Shuffle returns the numbers 1..n in a uniformly random order (Fisher-Yates)
func Shuffle(rnd random.Random, n int) []int {
	numbers := make([]int, n)
	for i := range numbers {
		numbers[i] = i + 1
	}
	for i := n - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		numbers[i], numbers[j] = numbers[j], numbers[i]
	}
	return numbers
}

// Assign pairs competitors[i] with the i-th shuffled number. The result is a
// bijection from the competitor ids onto 1..len(competitors).
func Assign(rnd random.Random, competitors []*model.Competitor) map[model.CompetitorID]int {
	numbers := Shuffle(rnd, len(competitors))
	result := make(map[model.CompetitorID]int, len(competitors))
	for i, c := range competitors {
		result[c.ID] = numbers[i]
	}
	return result
}

// IsLocked reports whether any competitor already holds a number
func IsLocked(competitors []*model.Competitor) bool {
	for _, c := range competitors {
		if c.HasNumber() {
			return true
		}
	}
	return false
}

// Status summarises the current numbering
type Status struct {
	Locked     bool  `json:"locked"`
	Total      int   `json:"total"`
	Assigned   int   `json:"assigned"`
	Unnumbered int   `json:"unnumbered"`
	Missing    []int `json:"missing"` // gaps in 1..highest assigned number
}

// Engine draws and persists competition numbers
type Engine struct {
	storage   storage.Storage
	random    random.Random
	clock     clock.Clock
	publisher events.Publisher
	logger    *slog.Logger
}

// NewEngine creates a new number assignment Engine
func NewEngine(
	storage storage.Storage,
	random random.Random,
	clock clock.Clock,
	publisher events.Publisher,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		storage:   storage,
		random:    random,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
	}
}

// Randomize draws a fresh set of numbers for every registered competitor and
// stores them in one atomic write. When numbers already exist the caller must
// pass confirm, otherwise ErrNumbersLocked is returned and nothing changes.
func (e *Engine) Randomize(ctx context.Context, confirm bool) (map[model.CompetitorID]int, error) {
	competitors, err := e.storage.ListCompetitors(ctx)
	if err != nil {
		return nil, err
	}
	if len(competitors) == 0 {
		return nil, model.ErrNoCompetitors
	}

	locked := IsLocked(competitors)
	if locked && !confirm {
		return nil, model.ErrNumbersLocked
	}

	numbers := Assign(e.random, competitors)
	if err := storage.ValidateNumbers(numbers); err != nil {
		return nil, err
	}

	if err := e.storage.AssignCompetitorNumbers(ctx, numbers); err != nil {
		if errors.Is(err, model.ErrCompetitorNotFound) {
			// A competitor was deleted after the list was read; nothing was written
			e.logger.Warn("competitor list changed during number assignment", "error", err)
			return nil, fmt.Errorf("%w: %v", model.ErrAssignmentStale, err)
		}
		e.logger.Error("failed to assign competition numbers", "error", err)
		return nil, err
	}

	e.logger.Info("competition numbers assigned", "count", len(numbers), "reassign", locked)
	e.publisher.Publish(ctx, model.Event{
		Type:      model.EventNumbersAssigned,
		Topic:     model.TopicCompetitors,
		Timestamp: e.clock.Now(),
		Payload:   model.NumbersAssignedPayload{Numbers: numbers, Reassign: locked},
	})
	return numbers, nil
}

// Status reports whether numbers are locked and where the numbering has gaps
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	competitors, err := e.storage.ListCompetitors(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{Total: len(competitors), Missing: []int{}}
	present := make(map[int]bool)
	highest := 0
	for _, c := range competitors {
		if !c.HasNumber() {
			status.Unnumbered++
			continue
		}
		status.Assigned++
		present[*c.Number] = true
		if *c.Number > highest {
			highest = *c.Number
		}
	}
	status.Locked = status.Assigned > 0

	for n := 1; n <= highest; n++ {
		if !present[n] {
			status.Missing = append(status.Missing, n)
		}
	}
	return status, nil
}
