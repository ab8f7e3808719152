package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver/deps"
	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver/handlers"
	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver/mw"
)

func init() { Register(registerGo) }

// Every resolution may fan out into real outbound probes, so the public
// route carries a per-IP rate limit on top of host enforcement.
func registerGo(r chi.Router, d deps.Deps) {
	r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             20,
			RefillPerIPPerMin: 60,
			MaxEntries:        8192,
			IdleTTL:           10 * time.Minute,
			TrustProxy:        d.TrustProxy,
		}),
	).Get("/go/{slug}", handlers.Go(d))
}
