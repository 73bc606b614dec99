package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/doculens/doculens-api/internal/apperr"
	"github.com/doculens/doculens-api/internal/models"
)

const invitationColumns = `id, upload_id, email, name, role, status, invitation_token, invited_by, invited_at, accepted_at, last_active`

// InvitationRepository persists invitation lifecycle state. Acceptance is
// a single conditional UPDATE so that two concurrent attempts on the same
// token produce exactly one winner.
type InvitationRepository interface {
	Create(ctx context.Context, inv models.Invitation) (models.Invitation, error)
	GetPendingByToken(ctx context.Context, token string) (models.Invitation, error)
	Accept(ctx context.Context, token, name string, cutoff, now time.Time) (models.Invitation, error)
	ListByUpload(ctx context.Context, uploadID string) ([]models.Invitation, error)
	UpdateRole(ctx context.Context, uploadID, invitationID string, role models.Role) (models.Invitation, error)
	Revoke(ctx context.Context, uploadID, invitationID string) error
	Delete(ctx context.Context, uploadID, invitationID string) error
}

type invitationRepository struct {
	db *sql.DB
}

func NewInvitationRepository(db *sql.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	const query = `
		INSERT INTO invitations (id, upload_id, email, name, role, status, invitation_token, invited_by, invited_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + invitationColumns

	inv.ID = uuid.NewString()
	row := r.db.QueryRowContext(ctx, query,
		inv.ID, inv.UploadID, inv.Email, inv.Name, inv.Role, inv.Status, inv.Token, inv.InvitedBy, inv.InvitedAt)
	return scanInvitation(row)
}

func (r *invitationRepository) GetPendingByToken(ctx context.Context, token string) (models.Invitation, error) {
	const query = `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE invitation_token = $1 AND status = 'pending'`

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Invitation{}, apperr.ErrNotFound
		}
		return models.Invitation{}, errors.Wrap(err, "get pending invitation")
	}
	return inv, nil
}

// Accept atomically consumes a pending, non-expired invitation token:
// status flips to active, the token is discarded, and the acceptance
// timestamps are stamped. cutoff is the oldest invited_at still valid.
func (r *invitationRepository) Accept(ctx context.Context, token, name string, cutoff, now time.Time) (models.Invitation, error) {
	const query = `
		UPDATE invitations
		SET status = 'active', invitation_token = NULL, name = $2, accepted_at = $3, last_active = $3
		WHERE invitation_token = $1 AND status = 'pending' AND invited_at >= $4
		RETURNING ` + invitationColumns

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, token, name, now, cutoff))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Invitation{}, apperr.ErrNotFound
		}
		return models.Invitation{}, errors.Wrap(err, "accept invitation")
	}
	return inv, nil
}

func (r *invitationRepository) ListByUpload(ctx context.Context, uploadID string) ([]models.Invitation, error) {
	const query = `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE upload_id = $1 AND status != 'revoked'
		ORDER BY invited_at DESC`

	rows, err := r.db.QueryContext(ctx, query, uploadID)
	if err != nil {
		return nil, errors.Wrap(err, "list invitations")
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list invitations")
	}
	return invitations, nil
}

func (r *invitationRepository) UpdateRole(ctx context.Context, uploadID, invitationID string, role models.Role) (models.Invitation, error) {
	const query = `
		UPDATE invitations
		SET role = $3
		WHERE id = $1 AND upload_id = $2 AND status != 'revoked'
		RETURNING ` + invitationColumns

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, invitationID, uploadID, role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Invitation{}, apperr.ErrNotFound
		}
		return models.Invitation{}, errors.Wrap(err, "update collaborator role")
	}
	return inv, nil
}

func (r *invitationRepository) Revoke(ctx context.Context, uploadID, invitationID string) error {
	const query = `
		UPDATE invitations
		SET status = 'revoked', invitation_token = NULL
		WHERE id = $1 AND upload_id = $2 AND status != 'revoked'`

	return execExpectingRow(ctx, r.db, query, "revoke invitation", invitationID, uploadID)
}

func (r *invitationRepository) Delete(ctx context.Context, uploadID, invitationID string) error {
	const query = `DELETE FROM invitations WHERE id = $1 AND upload_id = $2`
	return execExpectingRow(ctx, r.db, query, "delete invitation", invitationID, uploadID)
}

func scanInvitation(scanner rowScanner) (models.Invitation, error) {
	var (
		inv        models.Invitation
		token      sql.NullString
		acceptedAt sql.NullTime
		lastActive sql.NullTime
	)
	if err := scanner.Scan(
		&inv.ID,
		&inv.UploadID,
		&inv.Email,
		&inv.Name,
		&inv.Role,
		&inv.Status,
		&token,
		&inv.InvitedBy,
		&inv.InvitedAt,
		&acceptedAt,
		&lastActive,
	); err != nil {
		return models.Invitation{}, err
	}
	if token.Valid {
		inv.Token = &token.String
	}
	if acceptedAt.Valid {
		t := acceptedAt.Time
		inv.AcceptedAt = &t
	}
	if lastActive.Valid {
		t := lastActive.Time
		inv.LastActive = &t
	}
	return inv, nil
}
