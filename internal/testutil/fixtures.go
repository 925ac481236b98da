package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage"
)

// BaseTime is the fixed instant tests start their mock clocks at
var BaseTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// SeedCompetitors stores n English competitors with ids c1..cn, created one second apart
func SeedCompetitors(ctx context.Context, store storage.Storage, n int) ([]*model.Competitor, error) {
	result := make([]*model.Competitor, 0, n)
	for i := 1; i <= n; i++ {
		c := &model.Competitor{
			ID:        model.CompetitorID(fmt.Sprintf("c%d", i)),
			FirstName: fmt.Sprintf("First%d", i),
			LastName:  fmt.Sprintf("Last%d", i),
			Language:  model.LanguageEnglish,
			CreatedAt: BaseTime.Add(time.Duration(i) * time.Second),
			UpdatedAt: BaseTime.Add(time.Duration(i) * time.Second),
		}
		if err := store.CreateCompetitor(ctx, c); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}
