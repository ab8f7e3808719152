// Package notify is the outbound alerting boundary. Notifications are
// one-way and best-effort: a delivery failure is logged and dropped, it
// never changes a probe or resolution outcome.
package notify

import "context"

// Context carries optional link/campaign detail attached to a first-failure
// alert so the operator can judge severity at a glance.
type Context struct {
	Slug            string
	TotalEndpoints  int
	ActiveEndpoints int
}

// Notifier receives endpoint state transitions.
type Notifier interface {
	// FirstFailure fires on the first consecutive failure of an endpoint,
	// before the threshold is anywhere near.
	FirstFailure(ctx context.Context, campaignName, endpointURL, reason string, failures int, nctx Context)

	// Deactivated fires exactly once, when the failure threshold is
	// reached and the endpoint leaves the rotation.
	Deactivated(ctx context.Context, campaignName, endpointURL, reason string, failures int)

	// Recovered fires when a degraded or deactivated endpoint passes a
	// probe again.
	Recovered(ctx context.Context, campaignName, endpointURL string)

	// AllDown fires when no endpoint of a campaign is both active and
	// failure-free. Paid traffic is being lost.
	AllDown(ctx context.Context, campaignName, slug string, totalEndpoints int)
}

// Noop discards every notification.
type Noop struct{}

func (Noop) FirstFailure(context.Context, string, string, string, int, Context) {}
func (Noop) Deactivated(context.Context, string, string, string, int)           {}
func (Noop) Recovered(context.Context, string, string)                          {}
func (Noop) AllDown(context.Context, string, string, int)                       {}

var _ Notifier = Noop{}
