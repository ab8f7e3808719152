package deps

import (
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/health"
	"github.com/Joaobneto1/Redirect-Offer/internal/logger"
	"github.com/Joaobneto1/Redirect-Offer/internal/notify"
	"github.com/Joaobneto1/Redirect-Offer/internal/probe"
	"github.com/Joaobneto1/Redirect-Offer/internal/resolver"
	"github.com/Joaobneto1/Redirect-Offer/internal/store"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the server
	AllowedCIDRS []string         // IPs allowed to access operational endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Store            store.Store        // campaign/endpoint/link persistence
	Resolver         *resolver.Resolver // slug resolution engine
	Prober           *probe.Prober      // used by the manual check endpoint
	Recorder         *health.Recorder   // failure/recovery bookkeeping
	Notifier         notify.Notifier    // outbound state-transition signals
	StoreBackend     string             // "memory" | "postgres" | "redis"
	AutoCheckEnabled bool
	AutoCheckPoll    time.Duration
}
