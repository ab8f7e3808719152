package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/domain"
	"github.com/Joaobneto1/Redirect-Offer/internal/health"
	"github.com/Joaobneto1/Redirect-Offer/internal/logger"
	"github.com/Joaobneto1/Redirect-Offer/internal/notify"
	"github.com/Joaobneto1/Redirect-Offer/internal/probe"
	"github.com/Joaobneto1/Redirect-Offer/internal/store/memory"
)

type countingNotifier struct {
	mu        sync.Mutex
	allDown   int
	recovered int
}

func (c *countingNotifier) FirstFailure(context.Context, string, string, string, int, notify.Context) {
}
func (c *countingNotifier) Deactivated(context.Context, string, string, string, int) {}

func (c *countingNotifier) Recovered(context.Context, string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recovered++
}

func (c *countingNotifier) AllDown(context.Context, string, string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allDown++
}

func newChecker(st *memory.Store, n notify.Notifier) *AutoChecker {
	log := logger.New("error", false)
	p := probe.New(probe.Config{Timeout: 2 * time.Second, AllowPrivate: true}, nil)
	rec := health.NewRecorder(st, n, log, 3)
	return NewAutoChecker(st, p, rec, n, log, DefaultPollInterval)
}

func seedCampaign(st *memory.Store, interval time.Duration, eps ...domain.Endpoint) {
	st.Seed(
		[]domain.Campaign{{
			ID:                "camp-1",
			Name:              "Launch",
			AutoCheckEnabled:  true,
			AutoCheckInterval: interval,
		}},
		eps,
		[]domain.Link{{ID: "link-1", Slug: "demo", CampaignID: "camp-1"}},
	)
}

func TestRunPassProbesOverdueEndpoints(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	st := memory.New()
	seedCampaign(st, time.Minute, domain.Endpoint{
		ID: "ep-1", CampaignID: "camp-1", URL: down.URL, IsActive: true, CreatedAt: time.Now(),
	})
	ac := newChecker(st, &countingNotifier{})

	if err := ac.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}

	ep, _ := st.GetEndpoint(context.Background(), "ep-1")
	if ep.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", ep.ConsecutiveFailures)
	}
	if ep.LastCheckedAt == nil {
		t.Error("LastCheckedAt not stamped")
	}
}

func TestRunPassSkipsRecentlyCheckedEndpoints(t *testing.T) {
	probed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	recently := time.Now()
	st := memory.New()
	seedCampaign(st, time.Hour, domain.Endpoint{
		ID: "ep-1", CampaignID: "camp-1", URL: srv.URL, IsActive: true,
		LastCheckedAt: &recently, CreatedAt: time.Now(),
	})
	ac := newChecker(st, &countingNotifier{})

	if err := ac.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
	if probed {
		t.Error("endpoint probed despite recent check")
	}
}

func TestRunPassEmitsAllDownOncePerTick(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer down.Close()

	st := memory.New()
	seedCampaign(st, time.Minute,
		domain.Endpoint{ID: "ep-1", CampaignID: "camp-1", URL: down.URL, IsActive: true, CreatedAt: time.Now()},
		domain.Endpoint{ID: "ep-2", CampaignID: "camp-1", URL: down.URL, IsActive: true, CreatedAt: time.Now()},
	)
	n := &countingNotifier{}
	ac := newChecker(st, n)

	if err := ac.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
	if n.allDown != 1 {
		t.Errorf("allDown notifications = %d, want 1", n.allDown)
	}
}

func TestRunPassReactivatesRecoveredEndpoint(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body>Offer page</body></html>"))
	}))
	defer up.Close()

	msg := "HTTP 500"
	st := memory.New()
	seedCampaign(st, time.Minute, domain.Endpoint{
		ID: "ep-1", CampaignID: "camp-1", URL: up.URL,
		IsActive: false, ConsecutiveFailures: 3, LastError: &msg, CreatedAt: time.Now(),
	})
	n := &countingNotifier{}
	ac := newChecker(st, n)

	if err := ac.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}

	ep, _ := st.GetEndpoint(context.Background(), "ep-1")
	if !ep.IsActive {
		t.Error("endpoint not reactivated after successful probe")
	}
	if ep.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0", ep.ConsecutiveFailures)
	}
	if n.recovered != 1 {
		t.Errorf("recovered notifications = %d, want 1", n.recovered)
	}
}

func TestRunPassIgnoresCampaignsWithoutAutoCheck(t *testing.T) {
	probed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := memory.New()
	st.Seed(
		[]domain.Campaign{{ID: "camp-1", Name: "Manual", AutoCheckEnabled: false}},
		[]domain.Endpoint{{ID: "ep-1", CampaignID: "camp-1", URL: srv.URL, IsActive: true, CreatedAt: time.Now()}},
		[]domain.Link{{ID: "link-1", Slug: "demo", CampaignID: "camp-1"}},
	)
	ac := newChecker(st, &countingNotifier{})

	if err := ac.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
	if probed {
		t.Error("endpoint probed for campaign without auto-check")
	}
}

func TestStartAndStop(t *testing.T) {
	st := memory.New()
	ac := newChecker(st, &countingNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ac.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ac.Stop()
}
