package assignment

import (
	"context"
	"sort"
	"sync"
	"time"

	"consultant-workflow/internal/models"
)

// memoryStore is a transactional in-memory Store. Writes made inside RunInTx are staged
// on a copy and only become visible when fn returns nil.
type memoryStore struct {
	mu           sync.Mutex
	consultants  map[string]models.Consultant
	applications map[string]models.Application
	records      []models.AssignmentRecord

	failCommit error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		consultants:  map[string]models.Consultant{},
		applications: map[string]models.Application{},
	}
}

func (m *memoryStore) addConsultant(c models.Consultant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consultants[c.ID] = c
}

func (m *memoryStore) addApplication(a models.Application) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applications[a.ID] = a
}

func (m *memoryStore) application(id string) models.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applications[id]
}

func (m *memoryStore) allRecords() []models.AssignmentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AssignmentRecord(nil), m.records...)
}

// withLoad derives currentActiveCount the same way the SQL does.
func (m *memoryStore) withLoad(c models.Consultant) models.Consultant {
	c.CurrentActiveCount = 0
	for _, a := range m.applications {
		if a.AssignedConsultantID != nil && *a.AssignedConsultantID == c.ID && a.Status.CountsTowardLoad() {
			c.CurrentActiveCount++
		}
	}
	return c
}

func (m *memoryStore) ListSectorConsultants(_ context.Context, sectorID string) ([]models.Consultant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Consultant
	for _, c := range m.consultants {
		if c.Role == models.RoleConsultant && c.SectorID == sectorID {
			out = append(out, m.withLoad(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) GetConsultant(_ context.Context, id string) (*models.Consultant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.consultants[id]
	if !ok {
		return nil, nil
	}
	c = m.withLoad(c)
	return &c, nil
}

func (m *memoryStore) ListConsultantRecords(_ context.Context, consultantID string) ([]models.AssignmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AssignmentRecord
	for _, r := range m.records {
		if r.ConsultantID == consultantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) ListApplicationRecords(_ context.Context, applicationID string) ([]models.AssignmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AssignmentRecord
	for _, r := range m.records {
		if r.ApplicationID == applicationID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) RunInTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		applications: make(map[string]models.Application, len(m.applications)),
		records:      append([]models.AssignmentRecord(nil), m.records...),
	}
	for k, v := range m.applications {
		tx.applications[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}
	if m.failCommit != nil {
		return m.failCommit
	}
	m.applications = tx.applications
	m.records = tx.records
	return nil
}

type memoryTx struct {
	applications map[string]models.Application
	records      []models.AssignmentRecord
}

func (t *memoryTx) LockApplication(_ context.Context, id string) (*models.Application, error) {
	a, ok := t.applications[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *memoryTx) UpdateApplicationConsultant(_ context.Context, id string, consultantID *string, assignmentType *models.AssignmentType, assignedAt *time.Time) error {
	a := t.applications[id]
	a.AssignedConsultantID = consultantID
	a.AssignmentType = assignmentType
	a.AssignedAt = assignedAt
	t.applications[id] = a
	return nil
}

func (t *memoryTx) OpenRecord(_ context.Context, applicationID string) (*models.AssignmentRecord, error) {
	for i := range t.records {
		if t.records[i].ApplicationID == applicationID && t.records[i].IsOpen() {
			r := t.records[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (t *memoryTx) LatestRecord(_ context.Context, applicationID string) (*models.AssignmentRecord, error) {
	var latest *models.AssignmentRecord
	for i := range t.records {
		if t.records[i].ApplicationID != applicationID {
			continue
		}
		if latest == nil || !t.records[i].AssignedAt.Before(latest.AssignedAt) {
			r := t.records[i]
			latest = &r
		}
	}
	return latest, nil
}

func (t *memoryTx) InsertRecord(_ context.Context, r *models.AssignmentRecord) error {
	t.records = append(t.records, *r)
	return nil
}

func (t *memoryTx) CloseRecord(_ context.Context, recordID string, at time.Time, by *string, reason string) error {
	for i := range t.records {
		if t.records[i].ID == recordID {
			t.records[i].UnassignedAt = &at
			t.records[i].UnassignedBy = by
			t.records[i].UnassignmentReason = &reason
		}
	}
	return nil
}

// stepClock returns strictly increasing times one minute apart.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Minute)
		return t
	}
}

func seqIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + string(rune('a'+n-1))
	}
}

func testLedger() *Ledger {
	return &Ledger{
		clock: stepClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		newID: seqIDs("rec"),
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	records []models.AssignmentRecord
}

func (o *recordingObserver) OnLedgerChange(_ context.Context, r models.AssignmentRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, r)
}

func consultant(id, sector string, active, capacity int, rating float64) models.Consultant {
	return models.Consultant{
		ID:                    id,
		Name:                  "Consultant " + id,
		Role:                  models.RoleConsultant,
		IsApproved:            true,
		IsActive:              true,
		SectorID:              sector,
		ActiveStatus:          models.ConsultantStatusActive,
		RatingScore:           rating,
		MaxConcurrentCapacity: capacity,
		CurrentActiveCount:    active,
	}
}

// seedLoad adds n under_review applications held by the consultant.
func (m *memoryStore) seedLoad(consultantID, sector string, n int) {
	for i := 0; i < n; i++ {
		id := consultantID
		m.addApplication(models.Application{
			ID:                   consultantID + "-load-" + string(rune('a'+i)),
			SectorID:             sector,
			Status:               models.ApplicationStatusUnderReview,
			AssignedConsultantID: &id,
		})
	}
}
