package assignment

import (
	"context"
	"sort"

	"consultant-workflow/internal/models"
)

// Directory reads consultants together with their derived active caseload.
type Directory interface {
	ListSectorConsultants(ctx context.Context, sectorID string) ([]models.Consultant, error)
	GetConsultant(ctx context.Context, consultantID string) (*models.Consultant, error)
}

// Selection is the selector's answer. Found=false is the normal "no eligible consultant"
// outcome.
type Selection struct {
	Consultant models.Consultant
	Found      bool
	Considered int
	Eligible   int
}

// Selector picks the least loaded eligible consultant of a sector.
type Selector struct {
	directory Directory
}

func NewSelector(directory Directory) *Selector {
	return &Selector{directory: directory}
}

// Select reads the sector's consultants and ranks them. The read happens outside any
// assignment transaction.
func (s *Selector) Select(ctx context.Context, sectorID string) (Selection, error) {
	consultants, err := s.directory.ListSectorConsultants(ctx, sectorID)
	if err != nil {
		return Selection{}, err
	}
	return SelectBest(consultants, sectorID), nil
}

// SelectBest filters by eligibility and returns the top-ranked consultant.
func SelectBest(consultants []models.Consultant, sectorID string) Selection {
	ranked := Rank(consultants, sectorID)
	sel := Selection{Considered: len(consultants), Eligible: len(ranked)}
	if len(ranked) > 0 {
		sel.Consultant = ranked[0]
		sel.Found = true
	}
	return sel
}

// Rank returns the eligible consultants ordered by ascending load percentage, then
// descending rating. ID is the final tiebreak so the order is deterministic.
func Rank(consultants []models.Consultant, sectorID string) []models.Consultant {
	req := forSelection(sectorID)
	eligible := make([]models.Consultant, 0, len(consultants))
	for _, c := range consultants {
		if Check(c, req) == Eligible {
			eligible = append(eligible, c)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		li, lj := eligible[i].LoadPercentage(), eligible[j].LoadPercentage()
		if li != lj {
			return li < lj
		}
		if eligible[i].RatingScore != eligible[j].RatingScore {
			return eligible[i].RatingScore > eligible[j].RatingScore
		}
		return eligible[i].ID < eligible[j].ID
	})
	return eligible
}
