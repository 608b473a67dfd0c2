package notification

import (
	"context"
	"database/sql"
	stderrors "errors"
)

// Participants are the users attached to an application.
type Participants struct {
	OwnerID      string
	ConsultantID string
}

// Contact is what delivery channels need to reach a user.
type Contact struct {
	UserID string
	Email  string
	Name   string
}

// RecipientResolver looks up who takes part in an application. Both methods return
// nil, nil when nothing is found.
type RecipientResolver interface {
	Participants(ctx context.Context, applicationID string) (*Participants, error)
	Contact(ctx context.Context, userID string) (*Contact, error)
}

// PostgresResolver reads participants from the applications and users tables.
type PostgresResolver struct {
	db *sql.DB
}

func NewPostgresResolver(db *sql.DB) *PostgresResolver {
	return &PostgresResolver{db: db}
}

func (r *PostgresResolver) Participants(ctx context.Context, applicationID string) (*Participants, error) {
	query := `
		SELECT user_id, assigned_consultant_id
		FROM applications
		WHERE id = $1
	`
	var (
		owner      sql.NullString
		consultant sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, applicationID).Scan(&owner, &consultant)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Participants{OwnerID: owner.String, ConsultantID: consultant.String}, nil
}

func (r *PostgresResolver) Contact(ctx context.Context, userID string) (*Contact, error) {
	query := `
		SELECT id, COALESCE(email, ''), COALESCE(name, '')
		FROM users
		WHERE id = $1
	`
	var c Contact
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.UserID, &c.Email, &c.Name)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// recipients returns {owner, consultant} minus the actor, without blanks or duplicates.
func recipients(p Participants, overrideConsultant, actorID string) []string {
	consultant := p.ConsultantID
	if overrideConsultant != "" {
		consultant = overrideConsultant
	}

	out := make([]string, 0, 2)
	for _, id := range []string{p.OwnerID, consultant} {
		if id == "" || id == actorID {
			continue
		}
		if len(out) > 0 && out[0] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}
