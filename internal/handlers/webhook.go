package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/doculens/doculens-api/internal/authz"
	"github.com/doculens/doculens-api/internal/models"
	"github.com/doculens/doculens-api/internal/repository"
	"github.com/doculens/doculens-api/internal/webhook"
)

type WebhookHandler struct {
	engine *webhook.Engine
	repo   repository.WebhookRepository
	logger zerolog.Logger
}

func NewWebhookHandler(engine *webhook.Engine, repo repository.WebhookRepository, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		engine: engine,
		repo:   repo,
		logger: logger.With().Str("handler", "webhook").Logger(),
	}
}

type registerWebhookRequest struct {
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

func (h *WebhookHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	var req registerWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	events := make([]models.WebhookEvent, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, models.WebhookEvent(strings.TrimSpace(e)))
	}

	hook, err := h.engine.Register(r.Context(), userID, req.Name, req.URL, events)
	if err != nil {
		writeDomainError(w, err, "Failed to register webhook")
		return
	}

	// The secret is disclosed exactly once, at registration, so the
	// receiver can verify signatures. The model never serializes it.
	response := struct {
		models.Webhook
		Secret string `json:"secret"`
	}{Webhook: hook, Secret: hook.Secret}
	writeJSON(w, http.StatusCreated, response)
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	hooks, err := h.repo.ListByOwner(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list webhooks")
		writeDomainError(w, err, "Failed to list webhooks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"webhooks": hooks})
}

type updateWebhookRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	var req updateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.IsActive == nil {
		http.Error(w, "is_active is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.SetActive(r.Context(), userID, mux.Vars(r)["webhookID"], *req.IsActive); err != nil {
		writeDomainError(w, err, "Failed to update webhook")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	if err := h.repo.Delete(r.Context(), userID, mux.Vars(r)["webhookID"]); err != nil {
		writeDomainError(w, err, "Failed to delete webhook")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Test triggers a synthetic delivery. The outcome is returned to the
// operator whether or not the endpoint answered; it is never an error.
func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	outcome, err := h.engine.Test(r.Context(), userID, mux.Vars(r)["webhookID"])
	if err != nil {
		writeDomainError(w, err, "Failed to run test delivery")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
