package workflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"consultant-workflow/internal/common/database"
	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/models"
)

const roomColumns = `id, application_id, status, priority, last_activity_at, notes, settings, stats, created_at, updated_at`

// PostgresStore keeps rooms in workflow_rooms; notes, settings and stats are JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertRoom(ctx context.Context, room *models.WorkflowRoom) error {
	notes, settings, stats, err := encodeRoom(room)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_rooms (`+roomColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (application_id) DO NOTHING`,
		room.ID, room.ApplicationID, string(room.Status), string(room.Priority), room.LastActivityAt,
		notes, settings, stats, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	if n == 0 {
		return apperrors.NewRoomAlreadyExistsError(room.ApplicationID)
	}
	return nil
}

func (s *PostgresStore) GetRoom(ctx context.Context, ref RoomRef) (*models.WorkflowRoom, error) {
	column, key := refColumn(ref)
	row := s.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM workflow_rooms WHERE `+column+` = $1`, key)
	room, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return room, err
}

func (s *PostgresStore) UpdateRoom(ctx context.Context, ref RoomRef, fn func(room *models.WorkflowRoom) error) (*models.WorkflowRoom, error) {
	var updated *models.WorkflowRoom
	column, key := refColumn(ref)

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM workflow_rooms WHERE `+column+` = $1 FOR UPDATE`, key)
		room, err := scanRoom(row)
		if err == sql.ErrNoRows {
			return apperrors.NewRoomNotFoundError(ref.String())
		}
		if err != nil {
			return err
		}

		if err := fn(room); err != nil {
			return err
		}

		notes, settings, stats, err := encodeRoom(room)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE workflow_rooms
			SET status = $2, priority = $3, last_activity_at = $4, notes = $5, settings = $6, stats = $7, updated_at = $8
			WHERE id = $1`,
			room.ID, string(room.Status), string(room.Priority), room.LastActivityAt,
			notes, settings, stats, room.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update room: %w", err)
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func refColumn(ref RoomRef) (string, string) {
	if ref.RoomID != "" {
		return "id", ref.RoomID
	}
	return "application_id", ref.ApplicationID
}

func encodeRoom(room *models.WorkflowRoom) (notes, settings, stats []byte, err error) {
	if room.Notes == nil {
		room.Notes = []models.RoomNote{}
	}
	if notes, err = json.Marshal(room.Notes); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal notes: %w", err)
	}
	if settings, err = json.Marshal(room.Settings); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal settings: %w", err)
	}
	if stats, err = json.Marshal(room.Stats); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal stats: %w", err)
	}
	return notes, settings, stats, nil
}

func scanRoom(row *sql.Row) (*models.WorkflowRoom, error) {
	var (
		room                   models.WorkflowRoom
		notes, settings, stats []byte
	)
	err := row.Scan(
		&room.ID, &room.ApplicationID, &room.Status, &room.Priority, &room.LastActivityAt,
		&notes, &settings, &stats, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &room.Notes); err != nil {
			return nil, fmt.Errorf("decode room notes: %w", err)
		}
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &room.Settings); err != nil {
			return nil, fmt.Errorf("decode room settings: %w", err)
		}
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &room.Stats); err != nil {
			return nil, fmt.Errorf("decode room stats: %w", err)
		}
	}
	return &room, nil
}
