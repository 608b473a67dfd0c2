package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/models"
)

// Store persists notification records.
type Store interface {
	Insert(ctx context.Context, rec *models.NotificationRecord) error
	// ListForRecipient returns the recipient's notifications, newest first.
	ListForRecipient(ctx context.Context, userID string, limit int) ([]models.NotificationRecord, error)
	// MarkRead fails with NOTIFICATION_NOT_FOUND unless the notification belongs to userID.
	MarkRead(ctx context.Context, userID, notificationID string, at time.Time) (*models.NotificationRecord, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const notificationColumns = `id, recipient_user_id, type, title, body, context_data, is_read, read_at, created_at`

func (s *PostgresStore) Insert(ctx context.Context, rec *models.NotificationRecord) error {
	contextData, err := json.Marshal(rec.ContextData)
	if err != nil {
		return fmt.Errorf("marshal context data: %w", err)
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.RecipientUserID, rec.Type, rec.Title, rec.Body,
		contextData, rec.IsRead, nullTime(rec.ReadAt), rec.CreatedAt,
	)
	return err
}

func (s *PostgresStore) ListForRecipient(ctx context.Context, userID string, limit int) ([]models.NotificationRecord, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NotificationRecord
	for rows.Next() {
		rec, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, userID, notificationID string, at time.Time) (*models.NotificationRecord, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND recipient_user_id = $2
		RETURNING ` + notificationColumns
	rec, err := scanNotification(s.db.QueryRowContext(ctx, query, notificationID, userID, at))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotificationNotFoundError(notificationID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_user_id = $1 AND is_read = FALSE`,
		userID,
	).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (*models.NotificationRecord, error) {
	var (
		rec         models.NotificationRecord
		contextData []byte
		readAt      sql.NullTime
	)
	if err := row.Scan(
		&rec.ID, &rec.RecipientUserID, &rec.Type, &rec.Title, &rec.Body,
		&contextData, &rec.IsRead, &readAt, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(contextData) > 0 {
		if err := json.Unmarshal(contextData, &rec.ContextData); err != nil {
			return nil, fmt.Errorf("unmarshal context data: %w", err)
		}
	}
	if readAt.Valid {
		t := readAt.Time
		rec.ReadAt = &t
	}
	return &rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
