package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/doculens/doculens-api/internal/authz"
	"github.com/doculens/doculens-api/internal/models"
	"github.com/doculens/doculens-api/internal/sharing"
)

type InvitationHandler struct {
	service *sharing.Service
	logger  zerolog.Logger
}

func NewInvitationHandler(service *sharing.Service, logger zerolog.Logger) *InvitationHandler {
	return &InvitationHandler{
		service: service,
		logger:  logger.With().Str("handler", "invitation").Logger(),
	}
}

type createInvitationRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Create issues a pending invitation for an upload the requester owns.
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	uploadID := mux.Vars(r)["uploadID"]

	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	userEmail, _ := authz.UserEmailFromRequest(r)

	inv, err := h.service.CreateInvitation(r.Context(), uploadID, email, req.Name, role, userID, userEmail)
	if err != nil {
		writeDomainError(w, err, "Failed to create invitation")
		return
	}

	// The token is returned exactly once, at creation, so the owner can
	// hand it to the invitee. No read path ever exposes it again.
	response := struct {
		models.Invitation
		Token string `json:"token"`
	}{Invitation: inv}
	if inv.Token != nil {
		response.Token = *inv.Token
	}
	writeJSON(w, http.StatusCreated, response)
}

// Resolve previews a pending invitation by token. Public: the token is
// the credential.
func (h *InvitationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	resolved, err := h.service.ResolveInvitation(r.Context(), token)
	if err != nil {
		writeDomainError(w, err, "Failed to resolve invitation")
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

type acceptInvitationRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Accept consumes the one-time token. A second accept of the same token
// always fails with 404.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	var req acceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}

	inv, err := h.service.AcceptInvitation(r.Context(), token, email, req.Name)
	if err != nil {
		writeDomainError(w, err, "Failed to accept invitation")
		return
	}
	writeJSON(w, http.StatusOK, models.CollaboratorView(inv))
}

// ListCollaborators returns the derived collaborator views for an upload.
func (h *InvitationHandler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	uploadID := mux.Vars(r)["uploadID"]

	collaborators, err := h.service.ListCollaborators(r.Context(), uploadID, userID)
	if err != nil {
		h.logger.Error().Err(err).Str("upload_id", uploadID).Msg("failed to list collaborators")
		writeDomainError(w, err, "Failed to list collaborators")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"collaborators": collaborators})
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *InvitationHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	vars := mux.Vars(r)

	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))

	collaborator, err := h.service.ChangeCollaboratorRole(r.Context(), vars["uploadID"], vars["invitationID"], role, userID)
	if err != nil {
		writeDomainError(w, err, "Failed to change role")
		return
	}
	writeJSON(w, http.StatusOK, collaborator)
}

// Revoke terminally cancels a pending invitation; its token dies with it.
func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	vars := mux.Vars(r)

	if err := h.service.RevokeInvitation(r.Context(), vars["uploadID"], vars["invitationID"], userID); err != nil {
		writeDomainError(w, err, "Failed to revoke invitation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvitationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	vars := mux.Vars(r)

	if err := h.service.RemoveCollaborator(r.Context(), vars["uploadID"], vars["invitationID"], userID); err != nil {
		writeDomainError(w, err, "Failed to remove collaborator")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
