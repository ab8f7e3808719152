package domain

import "time"

// RotationStrategy selects how a campaign orders its endpoints
// when resolving a smart link.
type RotationStrategy string

const (
	// RotationPriority tries lower Priority values first,
	// ties broken by creation time (oldest first). Default.
	RotationPriority RotationStrategy = "priority"

	// RotationPriorityDesc is the legacy ordering: higher Priority first.
	RotationPriorityDesc RotationStrategy = "priority_desc"

	// RotationRoundRobin favors the least recently used endpoint,
	// never-used endpoints first.
	RotationRoundRobin RotationStrategy = "round_robin"
)

// Campaign groups a set of candidate endpoints behind one or more smart links.
type Campaign struct {
	// ID is the canonical unique identifier.
	ID string

	// Name is the operator-facing display name.
	Name string

	// RotationStrategy controls endpoint ordering for this campaign.
	// Empty means RotationPriority.
	RotationStrategy RotationStrategy

	// AutoCheckEnabled turns on proactive background probing.
	AutoCheckEnabled bool

	// AutoCheckInterval is the minimum age of an endpoint's last check
	// before the auto-checker probes it again. Never below 5 seconds.
	AutoCheckInterval time.Duration

	CreatedAt time.Time
}

// Endpoint is one destination URL candidate within a campaign.
//
// The resolution engine and the auto-checker only ever mutate the health
// fields (IsActive, ConsecutiveFailures, LastError, LastCheckedAt,
// LastUsedAt). URL, Priority and ownership are owned by the admin surface.
type Endpoint struct {
	ID         string
	CampaignID string

	// URL is the destination this endpoint redirects to.
	URL string

	// Priority orders endpoints within a campaign. Lower is tried first
	// under the default strategy. No uniqueness constraint; ties are
	// broken by CreatedAt.
	Priority int

	// IsActive marks the endpoint as eligible for resolution. Cleared
	// automatically when ConsecutiveFailures reaches the threshold,
	// restored by the next successful probe or by an operator.
	IsActive bool

	// ConsecutiveFailures counts probe failures since the last success.
	// Resets to zero exactly on a successful probe.
	ConsecutiveFailures int

	// LastError holds the most recent failure reason, nil after a success.
	LastError *string

	// LastCheckedAt is when any probe last touched this endpoint.
	LastCheckedAt *time.Time

	// LastUsedAt is when this endpoint last passed a probe and received
	// traffic (or a successful manual/auto check).
	LastUsedAt *time.Time

	CreatedAt time.Time
}

// Degraded reports whether the endpoint is active but carrying failures.
func (e *Endpoint) Degraded() bool {
	return e.IsActive && e.ConsecutiveFailures > 0
}

// Healthy reports whether the endpoint is active with zero failures.
func (e *Endpoint) Healthy() bool {
	return e.IsActive && e.ConsecutiveFailures == 0
}

// Link is the public slug that resolves to a campaign's best endpoint.
type Link struct {
	ID         string
	Slug       string
	CampaignID string

	// FallbackURL, when set, is used only after every endpoint of the
	// campaign failed its probe (or none is active).
	FallbackURL *string

	CreatedAt time.Time
}
