package storage

import (
	"sort"

	"github.com/mcoot/competition-console/internal/model"
)

// SortCompetitors orders competitors by creation time, then id
func SortCompetitors(cs []*model.Competitor) {
	sort.SliceStable(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}

// SortSessions orders sessions by day, module, then competitor
func SortSessions(ss []*model.Session) {
	sort.SliceStable(ss, func(i, j int) bool {
		a, b := ss[i], ss[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Module != b.Module {
			return moduleRank(a.Module) < moduleRank(b.Module)
		}
		return a.CompetitorID < b.CompetitorID
	})
}

func moduleRank(m model.Module) int {
	for i, mm := range model.Modules {
		if mm == m {
			return i
		}
	}
	return len(model.Modules)
}

// ValidateNumbers checks that numbers is a bijection onto 1..len(numbers)
func ValidateNumbers(numbers map[model.CompetitorID]int) error {
	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n < 1 || n > len(numbers) || seen[n] {
			return model.ErrInvalidNumbers
		}
		seen[n] = true
	}
	return nil
}
