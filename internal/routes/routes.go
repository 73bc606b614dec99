package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doculens/doculens-api/internal/handlers"
)

// NewRouter sets up the API routes
func NewRouter(
	auth *handlers.AuthHandler,
	uploads *handlers.UploadHandler,
	invitations *handlers.InvitationHandler,
	links *handlers.ShareLinkHandler,
	webhooks *handlers.WebhookHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public auth endpoints
	router.HandleFunc("/api/signup", auth.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)

	// Public token paths: the token in the URL is the credential.
	router.HandleFunc("/api/invitations/{token}", invitations.Resolve).Methods(http.MethodGet)
	router.HandleFunc("/api/invitations/{token}/accept", invitations.Accept).Methods(http.MethodPost)
	router.HandleFunc("/api/shared/{token}", links.Resolve).Methods(http.MethodGet)

	// Everything below requires a session.
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)

	api.HandleFunc("/me", auth.Me).Methods(http.MethodGet)

	api.HandleFunc("/uploads", uploads.Create).Methods(http.MethodPost)
	api.HandleFunc("/uploads", uploads.List).Methods(http.MethodGet)
	api.HandleFunc("/uploads/{uploadID}", uploads.Get).Methods(http.MethodGet)
	api.HandleFunc("/uploads/{uploadID}", uploads.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/uploads/{uploadID}/invitations", invitations.Create).Methods(http.MethodPost)
	api.HandleFunc("/uploads/{uploadID}/invitations/{invitationID}/revoke", invitations.Revoke).Methods(http.MethodPost)
	api.HandleFunc("/uploads/{uploadID}/collaborators", invitations.ListCollaborators).Methods(http.MethodGet)
	api.HandleFunc("/uploads/{uploadID}/collaborators/{invitationID}/role", invitations.ChangeRole).Methods(http.MethodPut)
	api.HandleFunc("/uploads/{uploadID}/collaborators/{invitationID}", invitations.Remove).Methods(http.MethodDelete)

	api.HandleFunc("/uploads/{uploadID}/links", links.Create).Methods(http.MethodPost)
	api.HandleFunc("/uploads/{uploadID}/links", links.List).Methods(http.MethodGet)
	api.HandleFunc("/uploads/{uploadID}/links/{linkID}", links.Update).Methods(http.MethodPatch)
	api.HandleFunc("/uploads/{uploadID}/links/{linkID}", links.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/webhooks", webhooks.Register).Methods(http.MethodPost)
	api.HandleFunc("/webhooks", webhooks.List).Methods(http.MethodGet)
	api.HandleFunc("/webhooks/{webhookID}", webhooks.Update).Methods(http.MethodPatch)
	api.HandleFunc("/webhooks/{webhookID}", webhooks.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/webhooks/{webhookID}/test", webhooks.Test).Methods(http.MethodPost)

	return router
}
