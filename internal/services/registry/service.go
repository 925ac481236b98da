package registry

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/mcoot/competition-console/internal/dependencies/clock"
	"github.com/mcoot/competition-console/internal/events"
	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage"
)

// CountryValidator checks country codes against the reference list
type CountryValidator interface {
	Valid(code string) bool
}

// Service manages the competitor registry
type Service struct {
	storage   storage.Storage
	clock     clock.Clock
	countries CountryValidator
	publisher events.Publisher
	logger    *slog.Logger
}

// New creates a new registry Service
func New(
	storage storage.Storage,
	clock clock.Clock,
	countries CountryValidator,
	publisher events.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:   storage,
		clock:     clock,
		countries: countries,
		publisher: publisher,
		logger:    logger,
	}
}

// Create validates fields and registers a new competitor without a number
func (s *Service) Create(ctx context.Context, fields model.CompetitorFields) (*model.Competitor, error) {
	fields, err := s.validate(fields)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	c := &model.Competitor{
		ID:        model.CompetitorID(uuid.NewString()),
		FirstName: fields.FirstName,
		LastName:  fields.LastName,
		Language:  fields.Language,
		Country:   fields.Country,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.CreateCompetitor(ctx, c); err != nil {
		s.logger.Error("failed to create competitor", "error", err)
		return nil, err
	}

	s.logger.Info("competitor created", "competitor_id", c.ID, "language", c.Language)
	s.publish(ctx, model.EventCompetitorCreated, *c)
	return c, nil
}

// Get returns a competitor by id
func (s *Service) Get(ctx context.Context, id model.CompetitorID) (*model.Competitor, error) {
	return s.storage.GetCompetitor(ctx, id)
}

// List returns every competitor in registration order
func (s *Service) List(ctx context.Context) ([]*model.Competitor, error) {
	return s.storage.ListCompetitors(ctx)
}

// Update replaces the editable fields of a competitor. The competitor number is left untouched.
func (s *Service) Update(ctx context.Context, id model.CompetitorID, fields model.CompetitorFields) (*model.Competitor, error) {
	fields, err := s.validate(fields)
	if err != nil {
		return nil, err
	}

	c, err := s.storage.UpdateCompetitorFields(ctx, id, fields, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("competitor updated", "competitor_id", c.ID)
	s.publish(ctx, model.EventCompetitorUpdated, *c)
	return c, nil
}

// Delete removes a competitor. Numbers of the remaining competitors are not compacted
// and the competitor's sessions are kept.
func (s *Service) Delete(ctx context.Context, id model.CompetitorID) error {
	if err := s.storage.DeleteCompetitor(ctx, id); err != nil {
		return err
	}

	s.logger.Info("competitor deleted", "competitor_id", id)
	s.publish(ctx, model.EventCompetitorDeleted, model.CompetitorDeletedPayload{CompetitorID: id})
	return nil
}

func (s *Service) validate(fields model.CompetitorFields) (model.CompetitorFields, error) {
	fields = fields.Normalize()
	if fields.FirstName == "" {
		return fields, model.ErrFirstNameRequired
	}
	if fields.LastName == "" {
		return fields, model.ErrLastNameRequired
	}
	if !fields.Language.Valid() {
		return fields, model.ErrInvalidLanguage
	}
	if fields.Country != "" && !s.countries.Valid(fields.Country) {
		return fields, model.ErrInvalidCountry
	}
	return fields, nil
}

func (s *Service) publish(ctx context.Context, eventType model.EventType, payload any) {
	s.publisher.Publish(ctx, model.Event{
		Type:      eventType,
		Topic:     model.TopicCompetitors,
		Timestamp: s.clock.Now(),
		Payload:   payload,
	})
}

// SortByNumber returns a copy ordered with numbered competitors first by ascending
// number, followed by unnumbered competitors in their original order
func SortByNumber(cs []*model.Competitor) []*model.Competitor {
	out := make([]*model.Competitor, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Number, out[j].Number
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		default:
			return false
		}
	})
	return out
}

// ByLanguage groups competitors by language, keeping their order
func ByLanguage(cs []*model.Competitor) map[model.Language][]*model.Competitor {
	groups := make(map[model.Language][]*model.Competitor, len(model.Languages))
	for _, l := range model.Languages {
		groups[l] = []*model.Competitor{}
	}
	for _, c := range cs {
		groups[c.Language] = append(groups[c.Language], c)
	}
	return groups
}
