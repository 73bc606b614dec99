package models

import (
	"strings"
	"time"
)

// InvitationStatus is the stored lifecycle state of an invitation.
// Expiry is never stored; it is derived from InvitedAt at access time.
type InvitationStatus string

const (
	InvitationPending InvitationStatus = "pending"
	InvitationActive  InvitationStatus = "active"
	InvitationRevoked InvitationStatus = "revoked"
)

// InvitationTTL is the validity window of a pending invitation token.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation is a one-time-use, time-boxed offer of role-based access to
// an upload, bound to a specific email. The token exists only while the
// invitation is pending; acceptance discards it irrecoverably.
type Invitation struct {
	ID         string           `json:"id" db:"id"`
	UploadID   string           `json:"upload_id" db:"upload_id"`
	Email      string           `json:"email" db:"email"`
	Name       string           `json:"name" db:"name"`
	Role       Role             `json:"role" db:"role"`
	Status     InvitationStatus `json:"status" db:"status"`
	Token      *string          `json:"-" db:"invitation_token"`
	InvitedBy  string           `json:"invited_by" db:"invited_by"`
	InvitedAt  time.Time        `json:"invited_at" db:"invited_at"`
	AcceptedAt *time.Time       `json:"accepted_at,omitempty" db:"accepted_at"`
	LastActive *time.Time       `json:"last_active,omitempty" db:"last_active"`
}

// IsExpired reports whether the acceptance window has passed.
func (i Invitation) IsExpired(now time.Time) bool {
	return now.After(i.InvitedAt.Add(InvitationTTL))
}

// DisplayName returns the explicit name or, when absent, the local part
// of the email address.
func DisplayName(name, email string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// Collaborator is the derived, client-facing view of a non-revoked
// invitation.
type Collaborator struct {
	ID          string           `json:"id"`
	Email       string           `json:"email"`
	Name        string           `json:"name"`
	Role        Role             `json:"role"`
	Status      InvitationStatus `json:"status"`
	InvitedAt   time.Time        `json:"invited_at"`
	AcceptedAt  *time.Time       `json:"accepted_at,omitempty"`
	LastActive  *time.Time       `json:"last_active,omitempty"`
	Permissions Permissions      `json:"permissions"`
}

// CollaboratorView projects an invitation into its collaborator shape.
func CollaboratorView(inv Invitation) Collaborator {
	return Collaborator{
		ID:          inv.ID,
		Email:       inv.Email,
		Name:        DisplayName(inv.Name, inv.Email),
		Role:        inv.Role,
		Status:      inv.Status,
		InvitedAt:   inv.InvitedAt,
		AcceptedAt:  inv.AcceptedAt,
		LastActive:  inv.LastActive,
		Permissions: PermissionsFor(inv.Role),
	}
}
