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
	"github.com/doculens/doculens-api/internal/repository"
	"github.com/doculens/doculens-api/internal/webhook"
)

type UploadHandler struct {
	uploads repository.UploadRepository
	events  *webhook.Engine
	logger  zerolog.Logger
}

func NewUploadHandler(uploads repository.UploadRepository, events *webhook.Engine, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		uploads: uploads,
		events:  events,
		logger:  logger.With().Str("handler", "upload").Logger(),
	}
}

type createUploadRequest struct {
	Filename    string `json:"filename"`
	SizeBytes   int64  `json:"size_bytes"`
	RowCount    int    `json:"row_count"`
	ColumnCount int    `json:"column_count"`
}

func (h *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	var req createUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Filename = strings.TrimSpace(req.Filename)
	if req.Filename == "" {
		http.Error(w, "Filename is required", http.StatusBadRequest)
		return
	}

	upload, err := h.uploads.Create(r.Context(), models.Upload{
		OwnerID:     userID,
		Filename:    req.Filename,
		SizeBytes:   req.SizeBytes,
		RowCount:    req.RowCount,
		ColumnCount: req.ColumnCount,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create upload")
		writeDomainError(w, err, "Failed to create upload")
		return
	}

	h.events.Dispatch(r.Context(), models.EventUploadCreated, map[string]interface{}{
		"upload_id": upload.ID,
		"filename":  upload.Filename,
	})
	writeJSON(w, http.StatusCreated, upload)
}

func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	uploads, err := h.uploads.ListByOwner(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list uploads")
		writeDomainError(w, err, "Failed to list uploads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"uploads": uploads})
}

func (h *UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	upload, err := h.uploads.GetOwned(r.Context(), userID, mux.Vars(r)["uploadID"])
	if err != nil {
		writeDomainError(w, err, "Failed to load upload")
		return
	}
	writeJSON(w, http.StatusOK, upload)
}

func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	uploadID := mux.Vars(r)["uploadID"]

	if err := h.uploads.Delete(r.Context(), userID, uploadID); err != nil {
		writeDomainError(w, err, "Failed to delete upload")
		return
	}

	h.events.Dispatch(r.Context(), models.EventUploadDeleted, map[string]interface{}{
		"upload_id": uploadID,
	})
	w.WriteHeader(http.StatusNoContent)
}
