// Package store defines the persistence boundary of the resolution engine.
// The engine reads campaigns, endpoints and links, and writes back only the
// per-endpoint health fields. Everything else (CRUD, ownership, sessions)
// belongs to the external admin surface.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// HealthUpdate describes one health write-back. Nil / false fields are left
// untouched. IncrementFailures must be applied atomically at the backend
// (SQL increment, Redis HINCRBY) so concurrent resolutions never lose a
// count; the updated endpoint is returned so the caller observes the
// post-increment value.
type HealthUpdate struct {
	IsActive          *bool
	ResetFailures     bool
	IncrementFailures bool
	LastError         *string
	ClearLastError    bool
	TouchCheckedAt    *time.Time
	TouchUsedAt       *time.Time
}

// CampaignWithContext bundles what the auto-checker needs per campaign:
// the campaign itself, its endpoints, and one link slug for notifications.
type CampaignWithContext struct {
	Campaign  domain.Campaign
	Endpoints []domain.Endpoint
	LinkSlug  string
}

// Store is the persistence interface consumed by the core. Implementations
// must be safe for concurrent use.
type Store interface {
	// FindLinkBySlug matches exactly and case-sensitively.
	FindLinkBySlug(ctx context.Context, slug string) (*domain.Link, error)

	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	GetEndpoint(ctx context.Context, id string) (*domain.Endpoint, error)
	ListEndpointsForCampaign(ctx context.Context, campaignID string) ([]domain.Endpoint, error)

	// ListCampaignsWithAutoCheckEnabled returns every campaign with
	// auto-checking turned on, with endpoints and link context attached.
	ListCampaignsWithAutoCheckEnabled(ctx context.Context) ([]CampaignWithContext, error)

	// UpdateEndpointHealth applies upd and returns the endpoint as stored
	// after the update.
	UpdateEndpointHealth(ctx context.Context, id string, upd HealthUpdate) (*domain.Endpoint, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close()
}
