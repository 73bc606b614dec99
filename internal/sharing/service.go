// Package sharing implements the access-and-delivery core: the invitation
// lifecycle (pending -> active | revoked, 7-day token window) and the
// shareable-link lifecycle (durable multi-use tokens with lazy expiry and
// atomic access accounting).
package sharing

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/doculens/doculens-api/internal/apperr"
	"github.com/doculens/doculens-api/internal/models"
	"github.com/doculens/doculens-api/internal/repository"
	"github.com/doculens/doculens-api/internal/token"
)

// Dispatcher pushes a system event to the webhook delivery engine.
// Dispatch never fails the calling request; implementations swallow
// delivery errors into recorded outcomes.
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.WebhookEvent, data map[string]interface{})
}

// ResolvedInvitation is the read-only projection returned when a pending
// token is presented. The token itself is never echoed back.
type ResolvedInvitation struct {
	Invitation models.Collaborator  `json:"invitation"`
	Upload     models.UploadSummary `json:"upload"`
}

// ResolvedLink is the post-increment view of a link plus the upload
// payload scoped by role. Viewer and editor currently receive identical
// projections; the role is surfaced for the client to honor.
type ResolvedLink struct {
	Link        models.ShareLink     `json:"link"`
	Permissions models.Permissions   `json:"permissions"`
	Upload      models.UploadSummary `json:"upload"`
}

type Service struct {
	invitations repository.InvitationRepository
	links       repository.ShareLinkRepository
	uploads     repository.UploadRepository
	events      Dispatcher
	logger      zerolog.Logger
}

func NewService(
	invitations repository.InvitationRepository,
	links repository.ShareLinkRepository,
	uploads repository.UploadRepository,
	events Dispatcher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		invitations: invitations,
		links:       links,
		uploads:     uploads,
		events:      events,
		logger:      logger.With().Str("component", "sharing").Logger(),
	}
}

// CreateInvitation issues a pending invitation with a fresh one-time
// token. The inviter must own the upload and cannot invite themselves;
// role must be viewer or editor.
func (s *Service) CreateInvitation(ctx context.Context, uploadID, email, name string, role models.Role, inviterID, inviterEmail string) (models.Invitation, error) {
	if !models.IsValidRole(role) {
		return models.Invitation{}, apperr.ErrInvalidArgument
	}
	if email == "" {
		return models.Invitation{}, apperr.ErrInvalidArgument
	}
	if inviterEmail != "" && strings.EqualFold(email, inviterEmail) {
		return models.Invitation{}, apperr.ErrInvalidArgument
	}
	if _, err := s.uploads.GetOwned(ctx, inviterID, uploadID); err != nil {
		return models.Invitation{}, err
	}

	inviteToken, err := token.Generate(32)
	if err != nil {
		return models.Invitation{}, errors.Wrap(err, "issue invitation token")
	}

	inv := models.Invitation{
		UploadID:  uploadID,
		Email:     email,
		Name:      models.DisplayName(name, email),
		Role:      role,
		Status:    models.InvitationPending,
		Token:     &inviteToken,
		InvitedBy: inviterID,
		InvitedAt: time.Now().UTC(),
	}
	return s.invitations.Create(ctx, inv)
}

// ResolveInvitation validates a pending token against the current time
// and returns projections of the invitation and its upload. Expired is
// distinct from NotFound so the client can render a targeted message.
func (s *Service) ResolveInvitation(ctx context.Context, tok string) (ResolvedInvitation, error) {
	inv, err := s.invitations.GetPendingByToken(ctx, tok)
	if err != nil {
		return ResolvedInvitation{}, err
	}
	if inv.IsExpired(time.Now().UTC()) {
		return ResolvedInvitation{}, apperr.ErrExpired
	}

	upload, err := s.uploads.GetByID(ctx, inv.UploadID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return ResolvedInvitation{}, apperr.ErrDanglingReference
		}
		return ResolvedInvitation{}, err
	}

	return ResolvedInvitation{
		Invitation: models.CollaboratorView(inv),
		Upload:     upload.Summary(),
	}, nil
}

// AcceptInvitation consumes a pending, non-expired token in one atomic
// conditional update: of two concurrent attempts exactly one wins, the
// other sees NotFound. The token is discarded on success.
func (s *Service) AcceptInvitation(ctx context.Context, tok, email, name string) (models.Invitation, error) {
	now := time.Now().UTC()
	display := models.DisplayName(name, email)

	inv, err := s.invitations.Accept(ctx, tok, display, now.Add(-models.InvitationTTL), now)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return models.Invitation{}, err
		}
		// The conditional update missed. If a pending row still holds the
		// token it can only be expired; anything else is NotFound, which
		// deliberately covers "never existed" and "already consumed" alike.
		if pending, lookupErr := s.invitations.GetPendingByToken(ctx, tok); lookupErr == nil && pending.IsExpired(now) {
			return models.Invitation{}, apperr.ErrExpired
		}
		return models.Invitation{}, apperr.ErrNotFound
	}

	if s.events != nil {
		s.events.Dispatch(ctx, models.EventCollaboratorJoined, map[string]interface{}{
			"upload_id": inv.UploadID,
			"email":     inv.Email,
			"role":      inv.Role,
		})
	}
	return inv, nil
}

// RevokeInvitation terminates a pending invitation. Owner-only and
// terminal: a revoked invitation never transitions again.
func (s *Service) RevokeInvitation(ctx context.Context, uploadID, invitationID, ownerID string) error {
	if _, err := s.uploads.GetOwned(ctx, ownerID, uploadID); err != nil {
		return err
	}
	return s.invitations.Revoke(ctx, uploadID, invitationID)
}

// ListCollaborators projects every non-revoked invitation of the upload
// into its collaborator view with derived permissions. Owner-only.
func (s *Service) ListCollaborators(ctx context.Context, uploadID, ownerID string) ([]models.Collaborator, error) {
	if _, err := s.uploads.GetOwned(ctx, ownerID, uploadID); err != nil {
		return nil, err
	}
	invitations, err := s.invitations.ListByUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	collaborators := make([]models.Collaborator, 0, len(invitations))
	for _, inv := range invitations {
		collaborators = append(collaborators, models.CollaboratorView(inv))
	}
	return collaborators, nil
}

func (s *Service) ChangeCollaboratorRole(ctx context.Context, uploadID, invitationID string, role models.Role, ownerID string) (models.Collaborator, error) {
	if !models.IsValidRole(role) {
		return models.Collaborator{}, apperr.ErrInvalidArgument
	}
	if _, err := s.uploads.GetOwned(ctx, ownerID, uploadID); err != nil {
		return models.Collaborator{}, err
	}
	inv, err := s.invitations.UpdateRole(ctx, uploadID, invitationID, role)
	if err != nil {
		return models.Collaborator{}, err
	}
	return models.CollaboratorView(inv), nil
}

func (s *Service) RemoveCollaborator(ctx context.Context, uploadID, invitationID, ownerID string) error {
	if _, err := s.uploads.GetOwned(ctx, ownerID, uploadID); err != nil {
		return err
	}
	return s.invitations.Delete(ctx, uploadID, invitationID)
}

// CreateLink issues a durable, multi-use link token. A supplied expiry
// must lie in the future; links without one never expire.
func (s *Service) CreateLink(ctx context.Context, uploadID string, role models.Role, expiresAt *time.Time, creatorID string) (models.ShareLink, error) {
	if !models.IsValidRole(role) {
		return models.ShareLink{}, apperr.ErrInvalidArgument
	}
	now := time.Now().UTC()
	if expiresAt != nil && !expiresAt.After(now) {
		return models.ShareLink{}, apperr.ErrInvalidArgument
	}
	if _, err := s.uploads.GetOwned(ctx, creatorID, uploadID); err != nil {
		return models.ShareLink{}, err
	}

	linkToken, err := token.Generate(32)
	if err != nil {
		return models.ShareLink{}, errors.Wrap(err, "issue link token")
	}

	link, err := s.links.Create(ctx, models.ShareLink{
		UploadID:  uploadID,
		Role:      role,
		Token:     linkToken,
		ExpiresAt: expiresAt,
		IsActive:  true,
		CreatedBy: creatorID,
		CreatedAt: now,
	})
	if err != nil {
		return models.ShareLink{}, err
	}

	if s.events != nil {
		s.events.Dispatch(ctx, models.EventLinkCreated, map[string]interface{}{
			"upload_id": link.UploadID,
			"link_id":   link.ID,
			"role":      link.Role,
		})
	}
	return link, nil
}

// ResolveLink validates a token, atomically counts the access, and
// returns the post-increment view with the upload payload. Expiry wins
// over inactivity when classifying a failed match.
func (s *Service) ResolveLink(ctx context.Context, tok string) (ResolvedLink, error) {
	now := time.Now().UTC()
	link, err := s.links.Resolve(ctx, tok, now)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return ResolvedLink{}, err
		}
		stale, lookupErr := s.links.GetByToken(ctx, tok)
		if lookupErr != nil {
			return ResolvedLink{}, apperr.ErrNotFound
		}
		if stale.IsExpired(now) {
			return ResolvedLink{}, apperr.ErrExpired
		}
		if !stale.IsActive {
			return ResolvedLink{}, apperr.ErrInactive
		}
		return ResolvedLink{}, apperr.ErrNotFound
	}

	upload, err := s.uploads.GetByID(ctx, link.UploadID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return ResolvedLink{}, apperr.ErrDanglingReference
		}
		return ResolvedLink{}, err
	}

	return ResolvedLink{
		Link:        link,
		Permissions: models.PermissionsFor(link.Role),
		Upload:      upload.Summary(),
	}, nil
}

// ListLinks returns every link of the upload, tokens included, so the
// owner can hand them out. Owner-only: the tokens are credentials.
func (s *Service) ListLinks(ctx context.Context, uploadID, ownerID string) ([]models.ShareLink, error) {
	if _, err := s.uploads.GetOwned(ctx, ownerID, uploadID); err != nil {
		return nil, err
	}
	return s.links.ListByUpload(ctx, uploadID)
}

func (s *Service) SetLinkActive(ctx context.Context, uploadID, linkID string, active bool, ownerID string) error {
	if _, err := s.uploads.GetOwned(ctx, ownerID, uploadID); err != nil {
		return err
	}
	return s.links.SetActive(ctx, uploadID, linkID, active)
}

func (s *Service) DeleteLink(ctx context.Context, uploadID, linkID, ownerID string) error {
	if _, err := s.uploads.GetOwned(ctx, ownerID, uploadID); err != nil {
		return err
	}
	return s.links.Delete(ctx, uploadID, linkID)
}
