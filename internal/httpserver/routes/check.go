package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver/deps"
	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver/handlers"
	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver/mw"
)

func init() { Register(registerCheck) }

// Manual checks fire real outbound probes, so the route is operator-only
// and rate limited.
func registerCheck(r chi.Router, d deps.Deps) {
	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             5,
			RefillPerIPPerMin: 30,
			MaxEntries:        1024,
			IdleTTL:           10 * time.Minute,
			TrustProxy:        d.TrustProxy,
		}),
	).Post("/api/endpoints/{id}/check", handlers.Check(d))
}
