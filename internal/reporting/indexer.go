// Package reporting mirrors assignment ledger records and room snapshots into
// Elasticsearch for administrative dashboards. Indexing is best-effort and never
// affects the write that triggered it.
package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"consultant-workflow/internal/common/config"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/common/metrics"
	"consultant-workflow/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

const defaultTimeout = 5 * time.Second

// Indexer implements assignment.LedgerObserver and workflow.RoomObserver.
type Indexer struct {
	es              *elasticsearch.Client
	assignmentIndex string
	roomIndex       string
	timeout         time.Duration
	logger          logger.Logger
}

func NewIndexer(es *elasticsearch.Client, cfg config.ReportingConfig, log logger.Logger) *Indexer {
	idx := &Indexer{
		es:              es,
		assignmentIndex: cfg.AssignmentIndex,
		roomIndex:       cfg.RoomIndex,
		timeout:         defaultTimeout,
		logger:          logger.ForComponent(log, "reporting"),
	}
	if idx.assignmentIndex == "" {
		idx.assignmentIndex = "assignment-records"
	}
	if idx.roomIndex == "" {
		idx.roomIndex = "workflow-rooms"
	}
	return idx
}

type assignmentDocument struct {
	models.AssignmentRecord
	Open          bool    `json:"open"`
	DurationHours float64 `json:"durationHours,omitempty"`
}

// roomDocument leaves out the notes journal; reporting only reads state and stats.
type roomDocument struct {
	ID             string              `json:"id"`
	ApplicationID  string              `json:"applicationId"`
	Status         models.RoomStatus   `json:"status"`
	Priority       models.RoomPriority `json:"priority"`
	LastActivityAt time.Time           `json:"lastActivityAt"`
	Stats          models.RoomStats    `json:"stats"`
	NoteCount      int                 `json:"noteCount"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func (i *Indexer) OnLedgerChange(ctx context.Context, record models.AssignmentRecord) {
	doc := assignmentDocument{
		AssignmentRecord: record,
		Open:             record.IsOpen(),
		DurationHours:    record.Duration().Hours(),
	}
	i.index(ctx, i.assignmentIndex, record.ID, doc)
}

func (i *Indexer) OnRoomChange(ctx context.Context, room models.WorkflowRoom) {
	doc := roomDocument{
		ID:             room.ID,
		ApplicationID:  room.ApplicationID,
		Status:         room.Status,
		Priority:       room.Priority,
		LastActivityAt: room.LastActivityAt,
		Stats:          room.Stats,
		NoteCount:      len(room.Notes),
		CreatedAt:      room.CreatedAt,
		UpdatedAt:      room.UpdatedAt,
	}
	i.index(ctx, i.roomIndex, room.ID, doc)
}

func (i *Indexer) index(ctx context.Context, index, id string, doc interface{}) {
	if err := i.put(ctx, index, id, doc); err != nil {
		metrics.ReportingDocuments.WithLabelValues(index, "error").Inc()
		i.logger.Warn("reporting index failed", map[string]interface{}{
			"index": index,
			"docId": id,
			"error": err.Error(),
		})
		return
	}
	metrics.ReportingDocuments.WithLabelValues(index, "ok").Inc()
}

func (i *Indexer) put(ctx context.Context, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
	defer cancel()

	res, err := i.es.Index(
		index,
		bytes.NewReader(body),
		i.es.Index.WithDocumentID(id),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index %s: %s: %s", index, res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}
