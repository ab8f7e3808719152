// Package resolver turns a public slug into a redirect decision. It probes
// the campaign's endpoints in order and only ever redirects to an endpoint
// that just passed a live deep probe.
package resolver

import (
	"context"
	"net/url"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/domain"
	"github.com/Joaobneto1/Redirect-Offer/internal/health"
	"github.com/Joaobneto1/Redirect-Offer/internal/logger"
	"github.com/Joaobneto1/Redirect-Offer/internal/metrics"
	"github.com/Joaobneto1/Redirect-Offer/internal/notify"
	"github.com/Joaobneto1/Redirect-Offer/internal/probe"
	"github.com/Joaobneto1/Redirect-Offer/internal/store"
	"github.com/Joaobneto1/Redirect-Offer/internal/urlutil"
)

type Resolver struct {
	store    store.Store
	prober   *probe.Prober
	recorder *health.Recorder
	notifier notify.Notifier
	log      logger.Logger
}

func New(st store.Store, p *probe.Prober, rec *health.Recorder, n notify.Notifier, log logger.Logger) *Resolver {
	return &Resolver{
		store:    st,
		prober:   p,
		recorder: rec,
		notifier: n,
		log:      log,
	}
}

// Resolve maps a slug to an outcome. Caller-supplied query params are merged
// onto the winning URL, with the caller's values overriding same-named
// params already on the endpoint. Store failures degrade to NoOffer; the
// handler never sees an error from this path.
func (r *Resolver) Resolve(ctx context.Context, slug string, params url.Values) domain.Outcome {
	link, err := r.store.FindLinkBySlug(ctx, slug)
	if err != nil {
		if err != store.ErrNotFound {
			r.log.Error("link lookup failed", logger.String("slug", slug), logger.Error(err))
		}
		metrics.ObserveResolution("no_offer")
		return domain.NoOffer{Message: "link not found"}
	}

	campaign, err := r.store.GetCampaign(ctx, link.CampaignID)
	if err != nil {
		r.log.Error("campaign lookup failed",
			logger.String("slug", slug),
			logger.String("campaign_id", link.CampaignID),
			logger.Error(err))
		metrics.ObserveResolution("no_offer")
		return domain.NoOffer{Message: "no endpoint available"}
	}

	endpoints, err := r.store.ListEndpointsForCampaign(ctx, campaign.ID)
	if err != nil {
		r.log.Error("endpoint listing failed",
			logger.String("campaign_id", campaign.ID), logger.Error(err))
		metrics.ObserveResolution("no_offer")
		return domain.NoOffer{Message: "no endpoint available"}
	}

	ordered := domain.OrderEndpoints(endpoints, campaign.RotationStrategy)
	if len(ordered) == 0 {
		return r.exhausted(link, params, "no endpoint available")
	}

	nctx := notify.Context{
		Slug:            slug,
		TotalEndpoints:  len(endpoints),
		ActiveEndpoints: len(ordered),
	}

	for _, ep := range ordered {
		start := time.Now()
		res := r.prober.Probe(ctx, ep.URL, true)
		metrics.ObserveProbe(res, time.Since(start))

		if res.OK {
			if _, err := r.recorder.RecordSuccess(ctx, campaign, ep); err != nil {
				r.log.Error("success bookkeeping failed",
					logger.String("endpoint_id", ep.ID), logger.Error(err))
			}
			metrics.ObserveResolution("redirect")
			return domain.Redirect{
				URL:        urlutil.MergeQueryParams(ep.URL, params),
				EndpointID: ep.ID,
			}
		}

		updated, err := r.recorder.RecordFailure(ctx, campaign, ep, res.FailureReason(), nctx)
		if err != nil {
			r.log.Error("failure bookkeeping failed",
				logger.String("endpoint_id", ep.ID), logger.Error(err))
			continue
		}
		if ep.IsActive && !updated.IsActive {
			metrics.EndpointsDeactivatedTotal.Inc()
		}
	}

	// Every active endpoint was probed and failed.
	r.notifier.AllDown(ctx, campaign.Name, slug, len(endpoints))
	return r.exhausted(link, params, "no offer available right now")
}

func (r *Resolver) exhausted(link *domain.Link, params url.Values, message string) domain.Outcome {
	if link.FallbackURL != nil && *link.FallbackURL != "" {
		metrics.ObserveResolution("fallback")
		return domain.Fallback{URL: urlutil.MergeQueryParams(*link.FallbackURL, params)}
	}
	metrics.ObserveResolution("no_offer")
	return domain.NoOffer{Message: message}
}
