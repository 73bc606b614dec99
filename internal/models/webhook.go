package models

import "time"

// WebhookEvent names an event a registration can subscribe to.
type WebhookEvent string

const (
	EventUploadCreated      WebhookEvent = "upload.created"
	EventUploadDeleted      WebhookEvent = "upload.deleted"
	EventChartCreated       WebhookEvent = "chart.created"
	EventCollaboratorJoined WebhookEvent = "collaborator.joined"
	EventLinkCreated        WebhookEvent = "link.created"
)

// KnownWebhookEvents is the closed set of deliverable event names.
var KnownWebhookEvents = []WebhookEvent{
	EventUploadCreated,
	EventUploadDeleted,
	EventChartCreated,
	EventCollaboratorJoined,
	EventLinkCreated,
}

// IsKnownWebhookEvent reports whether the event name is deliverable.
func IsKnownWebhookEvent(event WebhookEvent) bool {
	for _, known := range KnownWebhookEvents {
		if event == known {
			return true
		}
	}
	return false
}

// Webhook is a destination URL subscribed to named events. The signing
// secret is generated once at registration and never serialized into any
// response.
type Webhook struct {
	ID            string         `json:"id" db:"id"`
	OwnerID       string         `json:"owner_id" db:"owner_id"`
	Name          string         `json:"name" db:"name"`
	URL           string         `json:"url" db:"url"`
	Events        []WebhookEvent `json:"events" db:"events"`
	Secret        string         `json:"-" db:"secret"`
	IsActive      bool           `json:"is_active" db:"is_active"`
	SuccessCount  int64          `json:"success_count" db:"success_count"`
	FailureCount  int64          `json:"failure_count" db:"failure_count"`
	LastTriggered *time.Time     `json:"last_triggered,omitempty" db:"last_triggered"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// SubscribesTo reports whether the registration listens for the event.
func (w Webhook) SubscribesTo(event WebhookEvent) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}
