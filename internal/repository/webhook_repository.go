package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/doculens/doculens-api/internal/apperr"
	"github.com/doculens/doculens-api/internal/models"
)

const webhookColumns = `id, owner_id, name, url, events, secret, is_active, success_count, failure_count, last_triggered, created_at`

// WebhookRepository persists webhook registrations and their delivery
// counters. Counter updates are single atomic increments; a delivery
// outcome touches exactly one of the two counters.
type WebhookRepository interface {
	Create(ctx context.Context, hook models.Webhook) (models.Webhook, error)
	GetByID(ctx context.Context, ownerID, hookID string) (models.Webhook, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Webhook, error)
	ListActiveByEvent(ctx context.Context, event models.WebhookEvent) ([]models.Webhook, error)
	SetActive(ctx context.Context, ownerID, hookID string, active bool) error
	Delete(ctx context.Context, ownerID, hookID string) error
	RecordSuccess(ctx context.Context, hookID string, at time.Time) error
	RecordFailure(ctx context.Context, hookID string) error
}

type webhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

func (r *webhookRepository) Create(ctx context.Context, hook models.Webhook) (models.Webhook, error) {
	const query = `
		INSERT INTO webhooks (id, owner_id, name, url, events, secret, is_active, success_count, failure_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, $8)
		RETURNING ` + webhookColumns

	hook.ID = uuid.NewString()
	row := r.db.QueryRowContext(ctx, query,
		hook.ID, hook.OwnerID, hook.Name, hook.URL, pq.Array(eventsToStrings(hook.Events)), hook.Secret, hook.IsActive, hook.CreatedAt)
	return scanWebhook(row)
}

func (r *webhookRepository) GetByID(ctx context.Context, ownerID, hookID string) (models.Webhook, error) {
	const query = `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1 AND owner_id = $2`

	hook, err := scanWebhook(r.db.QueryRowContext(ctx, query, hookID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Webhook{}, apperr.ErrNotFound
		}
		return models.Webhook{}, errors.Wrap(err, "get webhook")
	}
	return hook, nil
}

func (r *webhookRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Webhook, error) {
	const query = `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE owner_id = $1
		ORDER BY created_at DESC`
	return r.queryWebhooks(ctx, query, ownerID)
}

func (r *webhookRepository) ListActiveByEvent(ctx context.Context, event models.WebhookEvent) ([]models.Webhook, error) {
	const query = `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE is_active = TRUE AND $1 = ANY(events)`
	return r.queryWebhooks(ctx, query, string(event))
}

func (r *webhookRepository) SetActive(ctx context.Context, ownerID, hookID string, active bool) error {
	const query = `UPDATE webhooks SET is_active = $3 WHERE id = $1 AND owner_id = $2`
	return execExpectingRow(ctx, r.db, query, "toggle webhook", hookID, ownerID, active)
}

func (r *webhookRepository) Delete(ctx context.Context, ownerID, hookID string) error {
	const query = `DELETE FROM webhooks WHERE id = $1 AND owner_id = $2`
	return execExpectingRow(ctx, r.db, query, "delete webhook", hookID, ownerID)
}

func (r *webhookRepository) RecordSuccess(ctx context.Context, hookID string, at time.Time) error {
	const query = `
		UPDATE webhooks
		SET success_count = success_count + 1, last_triggered = $2
		WHERE id = $1`
	return execExpectingRow(ctx, r.db, query, "record delivery success", hookID, at)
}

func (r *webhookRepository) RecordFailure(ctx context.Context, hookID string) error {
	const query = `
		UPDATE webhooks
		SET failure_count = failure_count + 1
		WHERE id = $1`
	return execExpectingRow(ctx, r.db, query, "record delivery failure", hookID)
}

func (r *webhookRepository) queryWebhooks(ctx context.Context, query string, args ...interface{}) ([]models.Webhook, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list webhooks")
	}
	defer rows.Close()

	var hooks []models.Webhook
	for rows.Next() {
		hook, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, hook)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list webhooks")
	}
	return hooks, nil
}

func scanWebhook(scanner rowScanner) (models.Webhook, error) {
	var (
		hook          models.Webhook
		events        pq.StringArray
		lastTriggered sql.NullTime
	)
	if err := scanner.Scan(
		&hook.ID,
		&hook.OwnerID,
		&hook.Name,
		&hook.URL,
		&events,
		&hook.Secret,
		&hook.IsActive,
		&hook.SuccessCount,
		&hook.FailureCount,
		&lastTriggered,
		&hook.CreatedAt,
	); err != nil {
		return models.Webhook{}, err
	}
	hook.Events = stringsToEvents(events)
	if lastTriggered.Valid {
		t := lastTriggered.Time
		hook.LastTriggered = &t
	}
	return hook, nil
}

func eventsToStrings(events []models.WebhookEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e)
	}
	return out
}

func stringsToEvents(values []string) []models.WebhookEvent {
	out := make([]models.WebhookEvent, len(values))
	for i, v := range values {
		out[i] = models.WebhookEvent(v)
	}
	return out
}
