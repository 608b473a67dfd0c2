// Package assignment routes applications to consultants and keeps the assignment ledger.
package assignment

import (
	"fmt"

	"consultant-workflow/internal/models"
)

// Ineligibility names the first rule a consultant fails. The empty value means eligible.
type Ineligibility string

const (
	Eligible          Ineligibility = ""
	NotAConsultant    Ineligibility = "not_a_consultant"
	NotApproved       Ineligibility = "not_approved"
	AccountInactive   Ineligibility = "account_inactive"
	UnavailableStatus Ineligibility = "unavailable_status"
	SectorMismatch    Ineligibility = "sector_mismatch"
	AtCapacity        Ineligibility = "at_capacity"
)

// Requirements selects which rules beyond basic usability apply.
type Requirements struct {
	// SectorID, when set, must match the consultant's sector.
	SectorID string
	// RequireCapacity demands currentActiveCount < maxConcurrentCapacity.
	RequireCapacity bool
}

// Check is the single eligibility predicate used by the selector, manual assignment
// validation and stats reporting. Usability is role + approval + account active +
// activeStatus=active; the Requirements add sector and capacity rules on top.
func Check(c models.Consultant, req Requirements) Ineligibility {
	switch {
	case c.Role != models.RoleConsultant:
		return NotAConsultant
	case !c.IsApproved:
		return NotApproved
	case !c.IsActive:
		return AccountInactive
	case c.ActiveStatus != models.ConsultantStatusActive:
		return UnavailableStatus
	case req.SectorID != "" && c.SectorID != req.SectorID:
		return SectorMismatch
	case req.RequireCapacity && !c.HasCapacity():
		return AtCapacity
	}
	return Eligible
}

// Describe renders an ineligibility for logs and error details.
func (i Ineligibility) Describe(c models.Consultant) string {
	switch i {
	case Eligible:
		return "eligible"
	case UnavailableStatus:
		return fmt.Sprintf("%s (%s)", i, c.ActiveStatus)
	case AtCapacity:
		return fmt.Sprintf("%s (%d/%d)", i, c.CurrentActiveCount, c.MaxConcurrentCapacity)
	default:
		return string(i)
	}
}

// forSelection is the rule set for automatic routing into a sector.
func forSelection(sectorID string) Requirements {
	return Requirements{SectorID: sectorID, RequireCapacity: true}
}

// forManualAssignment is the rule set for staff-chosen consultants: usability only,
// staff may route across sectors or above the cap deliberately.
func forManualAssignment() Requirements {
	return Requirements{}
}
