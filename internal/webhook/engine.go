// Package webhook signs and delivers outbound event payloads to
// registered endpoints and keeps per-registration success/failure
// accounting. Delivery is a single bounded attempt; retry policy belongs
// to the receiver or an external queue.
package webhook

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/doculens/doculens-api/internal/apperr"
	"github.com/doculens/doculens-api/internal/models"
	"github.com/doculens/doculens-api/internal/repository"
	"github.com/doculens/doculens-api/internal/token"
)

// SignatureHeader carries the hex HMAC-SHA256 digest of the request body,
// prefixed with "sha256=".
const SignatureHeader = "X-Webhook-Signature"

const defaultUserAgent = "Doculens-Webhook/1.0"

// DefaultTimeout bounds a delivery attempt so one unreachable endpoint
// cannot stall the invoking request.
const DefaultTimeout = 10 * time.Second

// Outcome is the result of one delivery attempt. It is always converted
// into a counter update and returned to the caller, never raised as a
// request failure.
type Outcome struct {
	Success    bool   `json:"success"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"status_text,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Engine struct {
	repo      repository.WebhookRepository
	client    *http.Client
	timeout   time.Duration
	userAgent string
	logger    zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(e *Engine) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		if c != nil {
			e.client = c
		}
	}
}

func NewEngine(repo repository.WebhookRepository, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		repo:      repo,
		client:    &http.Client{},
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
		logger:    logger.With().Str("component", "webhook").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register creates a webhook registration with a freshly generated
// signing secret. The events set must be non-empty and contain only
// known event names.
func (e *Engine) Register(ctx context.Context, ownerID, name, url string, events []models.WebhookEvent) (models.Webhook, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" || url == "" || len(events) == 0 {
		return models.Webhook{}, apperr.ErrInvalidArgument
	}
	for _, event := range events {
		if !models.IsKnownWebhookEvent(event) {
			return models.Webhook{}, apperr.ErrInvalidArgument
		}
	}

	secret, err := token.GenerateSigningSecret()
	if err != nil {
		return models.Webhook{}, errors.Wrap(err, "issue signing secret")
	}

	return e.repo.Create(ctx, models.Webhook{
		OwnerID:   ownerID,
		Name:      name,
		URL:       url,
		Events:    events,
		Secret:    secret,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
}

// Deliver makes exactly one signed POST to the registration's URL and
// records the outcome: a 2xx response bumps the success counter and
// stamps last_triggered; any other response or a transport failure bumps
// the failure counter. Exactly one of the two counters moves per attempt.
func (e *Engine) Deliver(ctx context.Context, hook models.Webhook, event models.WebhookEvent, data interface{}) Outcome {
	outcome := e.attempt(ctx, hook, event, data)
	e.record(ctx, hook, event, outcome)
	return outcome
}

// Test delivers a synthetic payload to the registration for an
// operator-triggered connectivity check. It updates the same counters as
// a real delivery; the stats model does not distinguish test traffic.
func (e *Engine) Test(ctx context.Context, ownerID, hookID string) (Outcome, error) {
	hook, err := e.repo.GetByID(ctx, ownerID, hookID)
	if err != nil {
		return Outcome{}, err
	}
	data := map[string]interface{}{
		"message": "This is a test delivery from Doculens.",
		"webhook": hook.Name,
	}
	return e.Deliver(ctx, hook, "webhook.test", data), nil
}

// Dispatch fans an event out to every active registration subscribed to
// it. Failures are recorded and logged, never propagated: a broken
// endpoint must not abort the request that produced the event.
func (e *Engine) Dispatch(ctx context.Context, event models.WebhookEvent, data map[string]interface{}) {
	hooks, err := e.repo.ListActiveByEvent(ctx, event)
	if err != nil {
		e.logger.Error().Err(err).Str("event", string(event)).Msg("failed to look up webhook registrations")
		return
	}
	for _, hook := range hooks {
		outcome := e.Deliver(ctx, hook, event, data)
		if !outcome.Success {
			e.logger.Warn().
				Str("webhook_id", hook.ID).
				Str("event", string(event)).
				Int("status", outcome.Status).
				Str("error", outcome.Error).
				Msg("webhook delivery failed")
		}
	}
}

func (e *Engine) attempt(ctx context.Context, hook models.Webhook, event models.WebhookEvent, data interface{}) Outcome {
	body, err := MarshalEnvelope(event, time.Now().UTC(), data)
	if err != nil {
		return Outcome{Success: false, Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return Outcome{Success: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set(SignatureHeader, "sha256="+Sign(hook.Secret, body))

	resp, err := e.client.Do(req)
	if err != nil {
		return Outcome{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	return Outcome{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}
}

func (e *Engine) record(ctx context.Context, hook models.Webhook, event models.WebhookEvent, outcome Outcome) {
	var err error
	if outcome.Success {
		err = e.repo.RecordSuccess(ctx, hook.ID, time.Now().UTC())
	} else {
		err = e.repo.RecordFailure(ctx, hook.ID)
	}
	if err != nil {
		e.logger.Error().Err(err).
			Str("webhook_id", hook.ID).
			Str("event", string(event)).
			Msg("failed to record delivery outcome")
	}
}
