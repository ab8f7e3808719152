// Package memory is a mutex-guarded in-memory Store. It backs the dev mode
// (seeded from a YAML file) and the engine's test suites; it is not meant
// for multi-instance deployments since health state would diverge.
package memory

import (
	"context"
	"sync"

	"github.com/Joaobneto1/Redirect-Offer/internal/domain"
	"github.com/Joaobneto1/Redirect-Offer/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	campaigns map[string]domain.Campaign
	endpoints map[string]domain.Endpoint
	links     map[string]domain.Link // keyed by slug
}

func New() *Store {
	return &Store{
		campaigns: make(map[string]domain.Campaign),
		endpoints: make(map[string]domain.Endpoint),
		links:     make(map[string]domain.Link),
	}
}

// Seed replaces the store contents. Used at startup (dev seed file) and by
// tests; not part of the store.Store interface.
func (s *Store) Seed(campaigns []domain.Campaign, endpoints []domain.Endpoint, links []domain.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.campaigns = make(map[string]domain.Campaign, len(campaigns))
	for _, c := range campaigns {
		s.campaigns[c.ID] = c
	}
	s.endpoints = make(map[string]domain.Endpoint, len(endpoints))
	for _, e := range endpoints {
		s.endpoints[e.ID] = e
	}
	s.links = make(map[string]domain.Link, len(links))
	for _, l := range links {
		s.links[l.Slug] = l
	}
}

func (s *Store) FindLinkBySlug(_ context.Context, slug string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.links[slug]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := l
	return &out, nil
}

func (s *Store) GetCampaign(_ context.Context, id string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := c
	return &out, nil
}

func (s *Store) GetEndpoint(_ context.Context, id string) (*domain.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.endpoints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneEndpoint(e)
	return &out, nil
}

func (s *Store) ListEndpointsForCampaign(_ context.Context, campaignID string) ([]domain.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.endpointsForLocked(campaignID), nil
}

func (s *Store) ListCampaignsWithAutoCheckEnabled(_ context.Context) ([]store.CampaignWithContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.CampaignWithContext
	for _, c := range s.campaigns {
		if !c.AutoCheckEnabled {
			continue
		}
		cwc := store.CampaignWithContext{
			Campaign:  c,
			Endpoints: s.endpointsForLocked(c.ID),
		}
		for _, l := range s.links {
			if l.CampaignID == c.ID {
				cwc.LinkSlug = l.Slug
				break
			}
		}
		out = append(out, cwc)
	}
	return out, nil
}

func (s *Store) UpdateEndpointHealth(_ context.Context, id string, upd store.HealthUpdate) (*domain.Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.endpoints[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	if upd.ResetFailures {
		e.ConsecutiveFailures = 0
	}
	if upd.IncrementFailures {
		e.ConsecutiveFailures++
	}
	if upd.IsActive != nil {
		e.IsActive = *upd.IsActive
	}
	if upd.ClearLastError {
		e.LastError = nil
	}
	if upd.LastError != nil {
		msg := *upd.LastError
		e.LastError = &msg
	}
	if upd.TouchCheckedAt != nil {
		at := *upd.TouchCheckedAt
		e.LastCheckedAt = &at
	}
	if upd.TouchUsedAt != nil {
		at := *upd.TouchUsedAt
		e.LastUsedAt = &at
	}

	s.endpoints[id] = e
	out := cloneEndpoint(e)
	return &out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

// endpointsForLocked returns copies of a campaign's endpoints. Caller holds
// at least the read lock.
func (s *Store) endpointsForLocked(campaignID string) []domain.Endpoint {
	out := make([]domain.Endpoint, 0)
	for _, e := range s.endpoints {
		if e.CampaignID == campaignID {
			out = append(out, cloneEndpoint(e))
		}
	}
	return out
}

// cloneEndpoint deep-copies the pointer fields so callers cannot mutate
// stored state behind the lock.
func cloneEndpoint(e domain.Endpoint) domain.Endpoint {
	if e.LastError != nil {
		v := *e.LastError
		e.LastError = &v
	}
	if e.LastCheckedAt != nil {
		v := *e.LastCheckedAt
		e.LastCheckedAt = &v
	}
	if e.LastUsedAt != nil {
		v := *e.LastUsedAt
		e.LastUsedAt = &v
	}
	return e
}

var _ store.Store = (*Store)(nil)
