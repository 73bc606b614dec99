package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/doculens/doculens-api/internal/apperr"
	"github.com/doculens/doculens-api/internal/models"
)

type fakeWebhookRepo struct {
	mu    sync.Mutex
	hooks map[string]*models.Webhook
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{hooks: make(map[string]*models.Webhook)}
}

func (r *fakeWebhookRepo) Create(_ context.Context, hook models.Webhook) (models.Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hook.ID = uuid.NewString()
	stored := hook
	r.hooks[hook.ID] = &stored
	return hook, nil
}

func (r *fakeWebhookRepo) GetByID(_ context.Context, ownerID, hookID string) (models.Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hook, ok := r.hooks[hookID]
	if !ok || hook.OwnerID != ownerID {
		return models.Webhook{}, apperr.ErrNotFound
	}
	return *hook, nil
}

func (r *fakeWebhookRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Webhook
	for _, hook := range r.hooks {
		if hook.OwnerID == ownerID {
			out = append(out, *hook)
		}
	}
	return out, nil
}

func (r *fakeWebhookRepo) ListActiveByEvent(_ context.Context, event models.WebhookEvent) ([]models.Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Webhook
	for _, hook := range r.hooks {
		if hook.IsActive && hook.SubscribesTo(event) {
			out = append(out, *hook)
		}
	}
	return out, nil
}

func (r *fakeWebhookRepo) SetActive(_ context.Context, ownerID, hookID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	hook, ok := r.hooks[hookID]
	if !ok || hook.OwnerID != ownerID {
		return apperr.ErrNotFound
	}
	hook.IsActive = active
	return nil
}

func (r *fakeWebhookRepo) Delete(_ context.Context, ownerID, hookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	hook, ok := r.hooks[hookID]
	if !ok || hook.OwnerID != ownerID {
		return apperr.ErrNotFound
	}
	delete(r.hooks, hookID)
	return nil
}

func (r *fakeWebhookRepo) RecordSuccess(_ context.Context, hookID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	hook, ok := r.hooks[hookID]
	if !ok {
		return apperr.ErrNotFound
	}
	hook.SuccessCount++
	t := at
	hook.LastTriggered = &t
	return nil
}

func (r *fakeWebhookRepo) RecordFailure(_ context.Context, hookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	hook, ok := r.hooks[hookID]
	if !ok {
		return apperr.ErrNotFound
	}
	hook.FailureCount++
	return nil
}

func (r *fakeWebhookRepo) get(t *testing.T, hookID string) models.Webhook {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	hook, ok := r.hooks[hookID]
	if !ok {
		t.Fatalf("webhook %s not in fake repo", hookID)
	}
	return *hook
}

func newTestEngine(repo *fakeWebhookRepo) *Engine {
	return NewEngine(repo, zerolog.Nop(), WithTimeout(2*time.Second))
}

func registerHook(t *testing.T, engine *Engine, repo *fakeWebhookRepo, url string, events ...models.WebhookEvent) models.Webhook {
	t.Helper()
	hook, err := engine.Register(context.Background(), "owner-1", "ci hook", url, events)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return hook
}

func TestRegisterValidation(t *testing.T) {
	engine := newTestEngine(newFakeWebhookRepo())

	cases := []struct {
		name   string
		url    string
		events []models.WebhookEvent
	}{
		{name: "empty events", url: "https://example.com/hook", events: nil},
		{name: "unknown event", url: "https://example.com/hook", events: []models.WebhookEvent{"bogus.event"}},
		{name: "empty url", url: "", events: []models.WebhookEvent{models.EventChartCreated}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Register(context.Background(), "owner-1", "hook", tc.url, tc.events)
			if err != apperr.ErrInvalidArgument {
				t.Errorf("Register() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestRegisterGeneratesSecret(t *testing.T) {
	repo := newFakeWebhookRepo()
	engine := newTestEngine(repo)

	hook := registerHook(t, engine, repo, "https://example.com/hook", models.EventChartCreated)
	if hook.Secret == "" {
		t.Fatal("registration has no signing secret")
	}
	if !hook.IsActive {
		t.Error("registration should default to active")
	}
	if hook.SuccessCount != 0 || hook.FailureCount != 0 {
		t.Error("counters should start at zero")
	}
}

func TestDeliverSuccess(t *testing.T) {
	repo := newFakeWebhookRepo()
	engine := newTestEngine(repo)

	var (
		gotSignature string
		gotUserAgent string
		gotBody      []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(SignatureHeader)
		gotUserAgent = r.Header.Get("User-Agent")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hook := registerHook(t, engine, repo, server.URL, models.EventChartCreated)
	outcome := engine.Deliver(context.Background(), hook, models.EventChartCreated, map[string]interface{}{"chart_id": "c-9"})

	if !outcome.Success {
		t.Fatalf("outcome = %+v, want success", outcome)
	}
	if outcome.Status != http.StatusOK {
		t.Errorf("status = %d", outcome.Status)
	}

	if !strings.HasPrefix(gotSignature, "sha256=") {
		t.Fatalf("signature header = %q, want sha256= prefix", gotSignature)
	}
	if !VerifySignature(hook.Secret, gotBody, strings.TrimPrefix(gotSignature, "sha256=")) {
		t.Error("delivered signature does not verify against the body")
	}
	if gotUserAgent == "" {
		t.Error("delivery carried no user-agent")
	}

	stored := repo.get(t, hook.ID)
	if stored.SuccessCount != 1 || stored.FailureCount != 0 {
		t.Errorf("counters = %d/%d, want 1/0", stored.SuccessCount, stored.FailureCount)
	}
	if stored.LastTriggered == nil {
		t.Error("last_triggered not stamped on success")
	}
}

func TestDeliverNonSuccessStatus(t *testing.T) {
	repo := newFakeWebhookRepo()
	engine := newTestEngine(repo)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	hook := registerHook(t, engine, repo, server.URL, models.EventChartCreated)
	outcome := engine.Deliver(context.Background(), hook, models.EventChartCreated, nil)

	if outcome.Success {
		t.Fatal("5xx response reported as success")
	}
	if outcome.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", outcome.Status)
	}

	stored := repo.get(t, hook.ID)
	if stored.SuccessCount != 0 || stored.FailureCount != 1 {
		t.Errorf("counters = %d/%d, want 0/1", stored.SuccessCount, stored.FailureCount)
	}
	if stored.LastTriggered != nil {
		t.Error("last_triggered stamped on failure")
	}
}

func TestDeliverTransportFailure(t *testing.T) {
	repo := newFakeWebhookRepo()
	engine := newTestEngine(repo)

	// Nothing listens here; the dial fails before any HTTP exchange.
	hook := registerHook(t, engine, repo, "http://127.0.0.1:1/hook", models.EventChartCreated)
	outcome := engine.Deliver(context.Background(), hook, models.EventChartCreated, nil)

	if outcome.Success {
		t.Fatal("transport failure reported as success")
	}
	if outcome.Error == "" {
		t.Error("transport failure outcome carries no error")
	}
	if outcome.Status != 0 {
		t.Errorf("transport failure has status %d, want none", outcome.Status)
	}

	stored := repo.get(t, hook.ID)
	if stored.SuccessCount != 0 || stored.FailureCount != 1 {
		t.Errorf("counters = %d/%d, want 0/1", stored.SuccessCount, stored.FailureCount)
	}
}

func TestTestDeliveryUsesSameCounters(t *testing.T) {
	repo := newFakeWebhookRepo()
	engine := newTestEngine(repo)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	hook := registerHook(t, engine, repo, server.URL, models.EventChartCreated)
	outcome, err := engine.Test(context.Background(), "owner-1", hook.ID)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("outcome = %+v", outcome)
	}

	stored := repo.get(t, hook.ID)
	if stored.SuccessCount != 1 {
		t.Errorf("test delivery did not count as a real one: %d", stored.SuccessCount)
	}
}

func TestTestUnknownRegistration(t *testing.T) {
	engine := newTestEngine(newFakeWebhookRepo())
	if _, err := engine.Test(context.Background(), "owner-1", "missing"); err != apperr.ErrNotFound {
		t.Errorf("Test() error = %v, want ErrNotFound", err)
	}
}

func TestDispatchFansOutToSubscribers(t *testing.T) {
	repo := newFakeWebhookRepo()
	engine := newTestEngine(repo)

	var mu sync.Mutex
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	subscribed := registerHook(t, engine, repo, server.URL, models.EventChartCreated)
	otherEvent := registerHook(t, engine, repo, server.URL, models.EventUploadDeleted)
	inactive := registerHook(t, engine, repo, server.URL, models.EventChartCreated)
	if err := repo.SetActive(context.Background(), "owner-1", inactive.ID, false); err != nil {
		t.Fatal(err)
	}

	engine.Dispatch(context.Background(), models.EventChartCreated, map[string]interface{}{"chart_id": "c-1"})

	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("dispatch hit %d endpoints, want exactly the subscribed active one", hits)
	}
	if got := repo.get(t, subscribed.ID); got.SuccessCount != 1 {
		t.Errorf("subscribed hook counters = %d, want 1", got.SuccessCount)
	}
	if got := repo.get(t, otherEvent.ID); got.SuccessCount != 0 {
		t.Error("hook subscribed to another event was delivered to")
	}
	if got := repo.get(t, inactive.ID); got.SuccessCount != 0 {
		t.Error("inactive hook was delivered to")
	}
}
