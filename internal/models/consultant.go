package models

// RoleConsultant is the user role that may be assigned applications.
const RoleConsultant = "consultant"

// ConsultantActiveStatus is the consultant's self-reported availability.
type ConsultantActiveStatus string

const (
	ConsultantStatusActive   ConsultantActiveStatus = "active"
	ConsultantStatusInactive ConsultantActiveStatus = "inactive"
	ConsultantStatusBusy     ConsultantActiveStatus = "busy"
	ConsultantStatusOnLeave  ConsultantActiveStatus = "on_leave"
)

// Consultant is a user with role=consultant. CurrentActiveCount is derived by query at
// read time and never persisted.
type Consultant struct {
	ID                    string                 `json:"id" db:"id"`
	Name                  string                 `json:"name" db:"name"`
	Email                 string                 `json:"email" db:"email"`
	Role                  string                 `json:"role" db:"role"`
	IsApproved            bool                   `json:"isApproved" db:"is_approved"`
	IsActive              bool                   `json:"isActive" db:"is_active"`
	SectorID              string                 `json:"sectorId" db:"sector_id"`
	ActiveStatus          ConsultantActiveStatus `json:"activeStatus" db:"active_status"`
	RatingScore           float64                `json:"ratingScore" db:"rating_score"`
	MaxConcurrentCapacity int                    `json:"maxConcurrentCapacity" db:"max_concurrent_capacity"`
	CurrentActiveCount    int                    `json:"currentActiveCount" db:"-"`
}

// LoadPercentage is currentActiveCount/maxConcurrentCapacity×100. A consultant without
// capacity is reported as fully loaded.
func (c Consultant) LoadPercentage() float64 {
	if c.MaxConcurrentCapacity <= 0 {
		return 100
	}
	return float64(c.CurrentActiveCount) / float64(c.MaxConcurrentCapacity) * 100
}

// HasCapacity reports whether another application fits under the cap.
func (c Consultant) HasCapacity() bool {
	return c.CurrentActiveCount < c.MaxConcurrentCapacity
}
