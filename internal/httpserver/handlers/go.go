package handlers

import (
	"html/template"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/Joaobneto1/Redirect-Offer/internal/domain"
	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver/deps"
	"github.com/Joaobneto1/Redirect-Offer/internal/logger"
)

var noOfferPage = template.Must(template.New("no_offer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex">
<title>Offer unavailable</title>
<style>
body{font-family:system-ui,sans-serif;background:#f5f5f5;display:flex;align-items:center;justify-content:center;min-height:100vh;margin:0}
.card{background:#fff;border-radius:8px;box-shadow:0 2px 8px rgba(0,0,0,.1);padding:2.5rem;max-width:28rem;text-align:center}
h1{font-size:1.4rem;margin:0 0 .75rem}
p{color:#555;margin:0}
</style>
</head>
<body>
<div class="card">
<h1>Offer unavailable</h1>
<p>{{.Message}}</p>
</div>
</body>
</html>
`))

var slugRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Go resolves /go/{slug} to a live endpoint. Inbound query params are
// forwarded onto the destination URL.
func Go(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if !slugRe.MatchString(slug) {
			http.Error(w, "invalid slug", http.StatusBadRequest)
			return
		}

		switch out := d.Resolver.Resolve(r.Context(), slug, r.URL.Query()).(type) {
		case domain.Redirect:
			d.Logger.Info("resolved",
				logger.String("slug", slug),
				logger.String("endpoint_id", out.EndpointID))
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, out.URL, http.StatusFound)

		case domain.Fallback:
			d.Logger.Warn("fallback redirect",
				logger.String("slug", slug))
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, out.URL, http.StatusFound)

		case domain.NoOffer:
			d.Logger.Warn("no offer",
				logger.String("slug", slug),
				logger.String("reason", out.Message))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = noOfferPage.Execute(w, map[string]string{"Message": out.Message})
		}
	}
}
