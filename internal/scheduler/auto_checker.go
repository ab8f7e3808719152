package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/health"
	"github.com/Joaobneto1/Redirect-Offer/internal/logger"
	"github.com/Joaobneto1/Redirect-Offer/internal/metrics"
	"github.com/Joaobneto1/Redirect-Offer/internal/notify"
	"github.com/Joaobneto1/Redirect-Offer/internal/probe"
	"github.com/Joaobneto1/Redirect-Offer/internal/store"
)

const (
	// DefaultPollInterval is the global tick period of the auto-checker.
	DefaultPollInterval = 15 * time.Second

	// DefaultCampaignInterval applies when a campaign has no
	// AutoCheckInterval of its own.
	DefaultCampaignInterval = 5 * time.Minute
)

// AutoChecker probes overdue endpoints in the background so health stays
// fresh even without inbound traffic. Deactivated endpoints keep getting
// probed and reactivate on the first success.
type AutoChecker struct {
	store    store.Store
	prober   *probe.Prober
	recorder *health.Recorder
	notifier notify.Notifier
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	now      func() time.Time
}

// NewAutoChecker creates a new auto-checker. interval <= 0 selects the
// default poll period.
func NewAutoChecker(
	st store.Store,
	p *probe.Prober,
	rec *health.Recorder,
	n notify.Notifier,
	log logger.Logger,
	interval time.Duration,
) *AutoChecker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &AutoChecker{
		store:    st,
		prober:   p,
		recorder: rec,
		notifier: n,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// Start runs one pass immediately, then keeps ticking until Stop is called
// or the context is cancelled. Ticks run sequentially on one goroutine; a
// slow pass delays the next tick rather than overlapping it.
func (ac *AutoChecker) Start(ctx context.Context) error {
	if err := ac.RunPass(ctx); err != nil {
		return fmt.Errorf("initial check pass failed: %w", err)
	}

	ticker := time.NewTicker(ac.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := ac.RunPass(ctx); err != nil {
					ac.logger.Error("auto-check pass failed", logger.Error(err))
				}
			case <-ac.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the checker. The in-flight pass, if any, finishes.
func (ac *AutoChecker) Stop() {
	close(ac.stopCh)
}

// RunPass checks every campaign with auto-checking enabled. Per-endpoint
// errors are logged and skipped; only a failed campaign listing aborts the
// pass.
func (ac *AutoChecker) RunPass(ctx context.Context) error {
	campaigns, err := ac.store.ListCampaignsWithAutoCheckEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list auto-check campaigns: %w", err)
	}

	for _, cc := range campaigns {
		ac.checkCampaign(ctx, cc)
	}

	metrics.AutoCheckPassesTotal.Inc()
	return nil
}

func (ac *AutoChecker) checkCampaign(ctx context.Context, cc store.CampaignWithContext) {
	interval := cc.Campaign.AutoCheckInterval
	if interval <= 0 {
		interval = DefaultCampaignInterval
	}

	activeCount := 0
	for _, ep := range cc.Endpoints {
		if ep.IsActive {
			activeCount++
		}
	}
	nctx := notify.Context{
		Slug:            cc.LinkSlug,
		TotalEndpoints:  len(cc.Endpoints),
		ActiveEndpoints: activeCount,
	}

	anyFailed := false
	for _, ep := range cc.Endpoints {
		if !ac.due(ep.LastCheckedAt, interval) {
			continue
		}

		start := ac.now()
		res := ac.prober.Probe(ctx, ep.URL, true)
		metrics.ObserveProbe(res, time.Since(start))

		if res.OK {
			if _, err := ac.recorder.RecordSuccess(ctx, &cc.Campaign, ep); err != nil {
				ac.logger.Error("success bookkeeping failed",
					logger.String("endpoint_id", ep.ID), logger.Error(err))
			}
			continue
		}

		anyFailed = true
		updated, err := ac.recorder.RecordFailure(ctx, &cc.Campaign, ep, res.FailureReason(), nctx)
		if err != nil {
			ac.logger.Error("failure bookkeeping failed",
				logger.String("endpoint_id", ep.ID), logger.Error(err))
			continue
		}
		if ep.IsActive && !updated.IsActive {
			metrics.EndpointsDeactivatedTotal.Inc()
		}
	}

	if !anyFailed {
		return
	}

	// At least one endpoint failed this tick; re-read the campaign and emit
	// the all-down event once if nothing healthy is left.
	endpoints, err := ac.store.ListEndpointsForCampaign(ctx, cc.Campaign.ID)
	if err != nil {
		ac.logger.Error("endpoint re-read failed",
			logger.String("campaign_id", cc.Campaign.ID), logger.Error(err))
		return
	}
	for _, ep := range endpoints {
		if ep.IsActive && ep.ConsecutiveFailures == 0 {
			return
		}
	}
	ac.notifier.AllDown(ctx, cc.Campaign.Name, cc.LinkSlug, len(endpoints))
}

func (ac *AutoChecker) due(lastChecked *time.Time, interval time.Duration) bool {
	if lastChecked == nil {
		return true
	}
	return ac.now().Sub(*lastChecked) >= interval
}
