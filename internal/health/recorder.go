// Package health applies probe outcomes to endpoint state. The same
// Recorder serves the resolution path, the auto-checker and manual checks,
// so failure counting and deactivation behave identically no matter what
// triggered the probe.
package health

import (
	"context"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/domain"
	"github.com/Joaobneto1/Redirect-Offer/internal/logger"
	"github.com/Joaobneto1/Redirect-Offer/internal/notify"
	"github.com/Joaobneto1/Redirect-Offer/internal/store"
)

// DefaultFailureThreshold deactivates an endpoint after this many
// consecutive failures. Process-wide, not per endpoint.
const DefaultFailureThreshold = 3

type Recorder struct {
	store     store.Store
	notifier  notify.Notifier
	logger    logger.Logger
	threshold int
	now       func() time.Time
}

func NewRecorder(st store.Store, n notify.Notifier, log logger.Logger, threshold int) *Recorder {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	return &Recorder{
		store:     st,
		notifier:  n,
		logger:    log,
		threshold: threshold,
		now:       time.Now,
	}
}

// Threshold returns the configured consecutive-failure threshold.
func (r *Recorder) Threshold() int { return r.threshold }

// RecordSuccess resets the endpoint to healthy: failures to zero, error
// cleared, active again, check and use timestamps stamped. Emits a recovery
// notification when the endpoint had been degraded or deactivated.
func (r *Recorder) RecordSuccess(ctx context.Context, campaign *domain.Campaign, ep domain.Endpoint) (*domain.Endpoint, error) {
	wasUnhealthy := ep.ConsecutiveFailures > 0 || !ep.IsActive

	now := r.now()
	active := true
	updated, err := r.store.UpdateEndpointHealth(ctx, ep.ID, store.HealthUpdate{
		IsActive:       &active,
		ResetFailures:  true,
		ClearLastError: true,
		TouchCheckedAt: &now,
		TouchUsedAt:    &now,
	})
	if err != nil {
		return nil, err
	}

	if wasUnhealthy {
		r.logger.Info("endpoint recovered",
			logger.String("endpoint_id", ep.ID),
			logger.String("url", ep.URL))
		r.notifier.Recovered(ctx, campaignName(campaign), ep.URL)
	}

	return updated, nil
}

// RecordFailure increments the consecutive-failure count atomically and
// stamps lastError/lastCheckedAt. Reaching the threshold on this update
// deactivates the endpoint and emits the deactivation notification exactly
// once; the very first failure emits a first-failure notification with the
// given context. Returns the endpoint after all updates.
func (r *Recorder) RecordFailure(ctx context.Context, campaign *domain.Campaign, ep domain.Endpoint, reason string, nctx notify.Context) (*domain.Endpoint, error) {
	now := r.now()
	updated, err := r.store.UpdateEndpointHealth(ctx, ep.ID, store.HealthUpdate{
		IncrementFailures: true,
		LastError:         &reason,
		TouchCheckedAt:    &now,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Warn("endpoint probe failed",
		logger.String("endpoint_id", ep.ID),
		logger.String("url", ep.URL),
		logger.String("reason", reason),
		logger.Int("consecutive_failures", updated.ConsecutiveFailures))

	switch {
	case updated.ConsecutiveFailures == r.threshold:
		inactive := false
		updated, err = r.store.UpdateEndpointHealth(ctx, ep.ID, store.HealthUpdate{
			IsActive: &inactive,
		})
		if err != nil {
			return nil, err
		}
		r.logger.Error("endpoint deactivated after reaching failure threshold",
			logger.String("endpoint_id", ep.ID),
			logger.String("url", ep.URL),
			logger.Int("threshold", r.threshold))
		r.notifier.Deactivated(ctx, campaignName(campaign), ep.URL, reason, updated.ConsecutiveFailures)

	case updated.ConsecutiveFailures == 1:
		r.notifier.FirstFailure(ctx, campaignName(campaign), ep.URL, reason, updated.ConsecutiveFailures, nctx)
	}

	return updated, nil
}

func campaignName(c *domain.Campaign) string {
	if c == nil {
		return ""
	}
	return c.Name
}
