package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver/deps"
	"github.com/Joaobneto1/Redirect-Offer/internal/notify"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Mode    string `json:"mode,omitempty"`
	Backend string `json:"backend,omitempty"`
	Impact  string `json:"impact,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	ServingMode string                     `json:"serving_mode"`
	Components  map[string]componentStatus `json:"components"`
}

// Infra summarizes the health of the pieces resolution depends on.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"store":        checkStore(d),
			"notifier":     checkNotifier(d),
			"auto_checker": checkAutoChecker(d),
		}

		response := infraResponse{
			ServingMode: determineServingMode(components),
			Components:  components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineServingMode(components map[string]componentStatus) string {
	// No store means every resolution degrades to NoOffer.
	if st, exists := components["store"]; exists && !st.OK {
		return "critical"
	}
	if ac, exists := components["auto_checker"]; exists && !ac.OK {
		return "degraded" // health only refreshed by live traffic
	}
	return "nominal"
}

func checkStore(d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{
			OK:      false,
			Backend: d.StoreBackend,
			Impact:  "resolutions-degrade-to-no-offer",
			Error:   err.Error(),
		}
	}
	return componentStatus{
		OK:      true,
		Backend: d.StoreBackend,
	}
}

func checkNotifier(d deps.Deps) componentStatus {
	if _, isNoop := d.Notifier.(notify.Noop); isNoop || d.Notifier == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "state-transitions-unannounced",
		}
	}
	return componentStatus{
		OK:   true,
		Mode: "telegram",
	}
}

func checkAutoChecker(d deps.Deps) componentStatus {
	if !d.AutoCheckEnabled {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "health-refreshed-only-by-traffic",
		}
	}
	return componentStatus{
		OK:   true,
		Mode: "polling every " + d.AutoCheckPoll.String(),
	}
}
