package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/doculens/doculens-api/internal/authz"
	"github.com/doculens/doculens-api/internal/models"
	"github.com/doculens/doculens-api/internal/sharing"
)

type ShareLinkHandler struct {
	service *sharing.Service
	logger  zerolog.Logger
}

func NewShareLinkHandler(service *sharing.Service, logger zerolog.Logger) *ShareLinkHandler {
	return &ShareLinkHandler{
		service: service,
		logger:  logger.With().Str("handler", "sharelink").Logger(),
	}
}

type createLinkRequest struct {
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *ShareLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	uploadID := mux.Vars(r)["uploadID"]

	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))

	link, err := h.service.CreateLink(r.Context(), uploadID, role, req.ExpiresAt, userID)
	if err != nil {
		writeDomainError(w, err, "Failed to create link")
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

// List returns the upload's links with their tokens; only the owner may
// see them.
func (h *ShareLinkHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	uploadID := mux.Vars(r)["uploadID"]

	links, err := h.service.ListLinks(r.Context(), uploadID, userID)
	if err != nil {
		h.logger.Error().Err(err).Str("upload_id", uploadID).Msg("failed to list share links")
		writeDomainError(w, err, "Failed to list links")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"links": links})
}

// Resolve is the public access path: it validates the token, counts the
// access atomically, and returns the upload payload.
func (h *ShareLinkHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	resolved, err := h.service.ResolveLink(r.Context(), token)
	if err != nil {
		writeDomainError(w, err, "Failed to resolve link")
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

type updateLinkRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *ShareLinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	vars := mux.Vars(r)

	var req updateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.IsActive == nil {
		http.Error(w, "is_active is required", http.StatusBadRequest)
		return
	}

	if err := h.service.SetLinkActive(r.Context(), vars["uploadID"], vars["linkID"], *req.IsActive, userID); err != nil {
		writeDomainError(w, err, "Failed to update link")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShareLinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	vars := mux.Vars(r)

	if err := h.service.DeleteLink(r.Context(), vars["uploadID"], vars["linkID"], userID); err != nil {
		writeDomainError(w, err, "Failed to delete link")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
