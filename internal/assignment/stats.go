package assignment

import (
	"context"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/models"
)

// GetConsultantStats aggregates the consultant's ledger history with the live load.
// AverageAssignmentHours is the mean duration of closed records only.
func (c *Coordinator) GetConsultantStats(ctx context.Context, consultantID string) (*models.ConsultantStats, error) {
	consultant, err := c.store.GetConsultant(ctx, consultantID)
	if err != nil {
		return nil, apperrors.ClassifyPersistenceError("get_consultant", err)
	}
	if consultant == nil {
		return nil, apperrors.NewConsultantNotEligibleError(consultantID, "not_found")
	}

	records, err := c.store.ListConsultantRecords(ctx, consultantID)
	if err != nil {
		return nil, apperrors.ClassifyPersistenceError("list_consultant_records", err)
	}

	stats := Summarize(*consultant, records)
	return &stats, nil
}

// Summarize computes stats from a consultant and their ledger records.
func Summarize(consultant models.Consultant, records []models.AssignmentRecord) models.ConsultantStats {
	stats := models.ConsultantStats{
		ConsultantID:              consultant.ID,
		TotalAssignments:          len(records),
		CurrentActiveApplications: consultant.CurrentActiveCount,
		MaxConcurrentCapacity:     consultant.MaxConcurrentCapacity,
		LoadPercentage:            consultant.LoadPercentage(),
		Eligible:                  Check(consultant, Requirements{RequireCapacity: true}) == Eligible,
	}

	var totalHours float64
	for i := range records {
		if records[i].IsOpen() {
			stats.ActiveAssignments++
			continue
		}
		stats.CompletedAssignments++
		totalHours += records[i].Duration().Hours()
	}
	if stats.CompletedAssignments > 0 {
		stats.AverageAssignmentHours = totalHours / float64(stats.CompletedAssignments)
	}
	return stats
}
