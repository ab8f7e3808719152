package health

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/domain"
	"github.com/Joaobneto1/Redirect-Offer/internal/logger"
	"github.com/Joaobneto1/Redirect-Offer/internal/notify"
	"github.com/Joaobneto1/Redirect-Offer/internal/store/memory"
)

type fakeNotifier struct {
	mu            sync.Mutex
	firstFailures []string
	deactivated   []string
	recovered     []string
	allDown       []string
}

func (f *fakeNotifier) FirstFailure(_ context.Context, campaign, endpointURL, reason string, failures int, _ notify.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.firstFailures = append(f.firstFailures, endpointURL)
}

func (f *fakeNotifier) Deactivated(_ context.Context, campaign, endpointURL, reason string, failures int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, endpointURL)
}

func (f *fakeNotifier) Recovered(_ context.Context, campaign, endpointURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recovered = append(f.recovered, endpointURL)
}

func (f *fakeNotifier) AllDown(_ context.Context, campaign, slug string, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allDown = append(f.allDown, slug)
}

func seededStore(eps ...domain.Endpoint) *memory.Store {
	st := memory.New()
	st.Seed(
		[]domain.Campaign{{ID: "camp-1", Name: "Launch"}},
		eps,
		[]domain.Link{{ID: "link-1", Slug: "demo", CampaignID: "camp-1"}},
	)
	return st
}

func endpoint(id string, failures int, active bool) domain.Endpoint {
	return domain.Endpoint{
		ID:                  id,
		CampaignID:          "camp-1",
		URL:                 "https://pay.example.com/" + id,
		IsActive:            active,
		ConsecutiveFailures: failures,
		CreatedAt:           time.Now(),
	}
}

func TestRecordSuccessResetsState(t *testing.T) {
	msg := "HTTP 500"
	ep := endpoint("ep-1", 2, true)
	ep.LastError = &msg

	st := seededStore(ep)
	n := &fakeNotifier{}
	rec := NewRecorder(st, n, logger.New("error", false), 3)
	campaign := &domain.Campaign{ID: "camp-1", Name: "Launch"}

	updated, err := rec.RecordSuccess(context.Background(), campaign, ep)
	if err != nil {
		t.Fatalf("RecordSuccess() error = %v", err)
	}

	if updated.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0", updated.ConsecutiveFailures)
	}
	if updated.LastError != nil {
		t.Errorf("LastError = %q, want nil", *updated.LastError)
	}
	if !updated.IsActive {
		t.Error("IsActive = false, want true")
	}
	if updated.LastCheckedAt == nil || updated.LastUsedAt == nil {
		t.Error("timestamps not stamped on success")
	}
	if len(n.recovered) != 1 {
		t.Errorf("recovered notifications = %d, want 1 (endpoint was degraded)", len(n.recovered))
	}
}

func TestRecordSuccessOnHealthyEndpointDoesNotNotify(t *testing.T) {
	ep := endpoint("ep-1", 0, true)
	st := seededStore(ep)
	n := &fakeNotifier{}
	rec := NewRecorder(st, n, logger.New("error", false), 3)

	if _, err := rec.RecordSuccess(context.Background(), &domain.Campaign{ID: "camp-1"}, ep); err != nil {
		t.Fatalf("RecordSuccess() error = %v", err)
	}
	if len(n.recovered) != 0 {
		t.Errorf("recovered notifications = %d, want 0", len(n.recovered))
	}
}

func TestRecordSuccessReactivatesDeactivatedEndpoint(t *testing.T) {
	ep := endpoint("ep-1", 3, false)
	st := seededStore(ep)
	n := &fakeNotifier{}
	rec := NewRecorder(st, n, logger.New("error", false), 3)

	updated, err := rec.RecordSuccess(context.Background(), &domain.Campaign{ID: "camp-1", Name: "Launch"}, ep)
	if err != nil {
		t.Fatalf("RecordSuccess() error = %v", err)
	}
	if !updated.IsActive {
		t.Error("IsActive = false, want true after recovery")
	}
	if len(n.recovered) != 1 {
		t.Errorf("recovered notifications = %d, want 1", len(n.recovered))
	}
}

func TestRecordFailureIncrementsAndNotifiesFirstFailure(t *testing.T) {
	ep := endpoint("ep-1", 0, true)
	st := seededStore(ep)
	n := &fakeNotifier{}
	rec := NewRecorder(st, n, logger.New("error", false), 3)

	updated, err := rec.RecordFailure(context.Background(),
		&domain.Campaign{ID: "camp-1", Name: "Launch"}, ep, "request timed out", notify.Context{Slug: "demo"})
	if err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}

	if updated.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", updated.ConsecutiveFailures)
	}
	if updated.LastError == nil || *updated.LastError != "request timed out" {
		t.Errorf("LastError = %v, want %q", updated.LastError, "request timed out")
	}
	if !updated.IsActive {
		t.Error("IsActive flipped below threshold")
	}
	if len(n.firstFailures) != 1 {
		t.Errorf("first-failure notifications = %d, want 1", len(n.firstFailures))
	}
	if len(n.deactivated) != 0 {
		t.Errorf("deactivated notifications = %d, want 0", len(n.deactivated))
	}
}

func TestRecordFailureDeactivatesAtThresholdExactlyOnce(t *testing.T) {
	ep := endpoint("ep-1", 0, true)
	st := seededStore(ep)
	n := &fakeNotifier{}
	rec := NewRecorder(st, n, logger.New("error", false), 3)
	campaign := &domain.Campaign{ID: "camp-1", Name: "Launch"}
	ctx := context.Background()

	var last *domain.Endpoint
	for i := 0; i < 5; i++ {
		current, err := st.GetEndpoint(ctx, "ep-1")
		if err != nil {
			t.Fatalf("GetEndpoint() error = %v", err)
		}
		last, err = rec.RecordFailure(ctx, campaign, *current, "HTTP 404", notify.Context{})
		if err != nil {
			t.Fatalf("RecordFailure() #%d error = %v", i+1, err)
		}

		wantActive := i < 2 // deactivates on the third failure
		if last.IsActive != wantActive {
			t.Errorf("failure #%d: IsActive = %v, want %v", i+1, last.IsActive, wantActive)
		}
	}

	if last.ConsecutiveFailures != 5 {
		t.Errorf("ConsecutiveFailures = %d, want 5 (keeps counting past threshold)", last.ConsecutiveFailures)
	}
	if len(n.deactivated) != 1 {
		t.Errorf("deactivated notifications = %d, want exactly 1", len(n.deactivated))
	}
	if len(n.firstFailures) != 1 {
		t.Errorf("first-failure notifications = %d, want exactly 1", len(n.firstFailures))
	}
	if last.LastError == nil || *last.LastError != "HTTP 404" {
		t.Errorf("LastError = %v, want %q after threshold", last.LastError, "HTTP 404")
	}
}

func TestRecorderDefaultThreshold(t *testing.T) {
	rec := NewRecorder(memory.New(), notify.Noop{}, logger.New("error", false), 0)
	if rec.Threshold() != DefaultFailureThreshold {
		t.Errorf("Threshold() = %d, want %d", rec.Threshold(), DefaultFailureThreshold)
	}
}
