package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver/deps"
	"github.com/Joaobneto1/Redirect-Offer/internal/logger"
	"github.com/Joaobneto1/Redirect-Offer/internal/metrics"
	"github.com/Joaobneto1/Redirect-Offer/internal/notify"
	"github.com/Joaobneto1/Redirect-Offer/internal/store"
)

type checkResponse struct {
	EndpointID          string `json:"endpoint_id"`
	URL                 string `json:"url"`
	OK                  bool   `json:"ok"`
	Status              int    `json:"status,omitempty"`
	Code                string `json:"code,omitempty"`
	Reason              string `json:"reason,omitempty"`
	Platform            string `json:"platform,omitempty"`
	FinalURL            string `json:"final_url,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	IsActive            bool   `json:"is_active"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Check runs one deep probe against a single endpoint on demand, applying
// the same bookkeeping as a live resolution.
func Check(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		w.Header().Set("Content-Type", "application/json")

		ep, err := d.Store.GetEndpoint(r.Context(), id)
		if err != nil {
			if err == store.ErrNotFound {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(errorResponse{Error: "endpoint not found"})
				return
			}
			d.Logger.Error("endpoint lookup failed",
				logger.String("endpoint_id", id), logger.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(errorResponse{Error: "store unavailable"})
			return
		}

		campaign, err := d.Store.GetCampaign(r.Context(), ep.CampaignID)
		if err != nil {
			d.Logger.Warn("campaign lookup failed during manual check",
				logger.String("campaign_id", ep.CampaignID), logger.Error(err))
			campaign = nil
		}

		start := time.Now()
		res := d.Prober.Probe(r.Context(), ep.URL, true)
		metrics.ObserveProbe(res, time.Since(start))

		updated := ep
		if res.OK {
			if after, err := d.Recorder.RecordSuccess(r.Context(), campaign, *ep); err == nil {
				updated = after
			}
		} else {
			if after, err := d.Recorder.RecordFailure(r.Context(), campaign, *ep, res.FailureReason(), notify.Context{}); err == nil {
				updated = after
			}
		}

		resp := checkResponse{
			EndpointID:          updated.ID,
			URL:                 updated.URL,
			OK:                  res.OK,
			Status:              res.Status,
			Platform:            res.Platform,
			FinalURL:            res.FinalURL,
			ConsecutiveFailures: updated.ConsecutiveFailures,
			IsActive:            updated.IsActive,
		}
		if !res.OK {
			resp.Code = string(res.Code)
			resp.Reason = res.FailureReason()
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
