// Package redis is the Redis Store backend. Static records (campaigns,
// endpoints, links) are JSON values; the mutable health fields live in a
// per-endpoint hash so the failure counter increments atomically with
// HINCRBY across many server instances.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Joaobneto1/Redirect-Offer/internal/domain"
	"github.com/Joaobneto1/Redirect-Offer/internal/store"
)

const (
	fieldIsActive      = "is_active"
	fieldFailures      = "consecutive_failures"
	fieldLastError     = "last_error"
	fieldLastCheckedAt = "last_checked_at"
	fieldLastUsedAt    = "last_used_at"
)

type Store struct {
	client *goredis.Client
}

func NewStore(client *goredis.Client) *Store {
	return &Store{client: client}
}

type campaignRecord struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	RotationStrategy     string    `json:"rotation_strategy"`
	AutoCheckEnabled     bool      `json:"auto_check_enabled"`
	AutoCheckIntervalSec int       `json:"auto_check_interval_sec"`
	CreatedAt            time.Time `json:"created_at"`
}

type endpointRecord struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	URL        string    `json:"url"`
	Priority   int       `json:"priority"`
	CreatedAt  time.Time `json:"created_at"`
}

type linkRecord struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	CampaignID  string    `json:"campaign_id"`
	FallbackURL *string   `json:"fallback_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Store) FindLinkBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	data, err := s.client.Get(ctx, LinkKey(slug)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	var rec linkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}
	return &domain.Link{
		ID:          rec.ID,
		Slug:        rec.Slug,
		CampaignID:  rec.CampaignID,
		FallbackURL: rec.FallbackURL,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	data, err := s.client.Get(ctx, CampaignKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	var rec campaignRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal campaign: %w", err)
	}
	return &domain.Campaign{
		ID:                rec.ID,
		Name:              rec.Name,
		RotationStrategy:  domain.RotationStrategy(rec.RotationStrategy),
		AutoCheckEnabled:  rec.AutoCheckEnabled,
		AutoCheckInterval: time.Duration(rec.AutoCheckIntervalSec) * time.Second,
		CreatedAt:         rec.CreatedAt,
	}, nil
}

func (s *Store) GetEndpoint(ctx context.Context, id string) (*domain.Endpoint, error) {
	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, EndpointKey(id))
	healthCmd := pipe.HGetAll(ctx, EndpointHealthKey(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("failed to get endpoint: %w", err)
	}

	data, err := getCmd.Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint: %w", err)
	}

	return decodeEndpoint(data, healthCmd.Val())
}

func (s *Store) ListEndpointsForCampaign(ctx context.Context, campaignID string) ([]domain.Endpoint, error) {
	ids, err := s.client.SMembers(ctx, CampaignEndpointsKey(campaignID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint IDs: %w", err)
	}

	endpoints := make([]domain.Endpoint, 0, len(ids))
	for _, id := range ids {
		ep, err := s.GetEndpoint(ctx, id)
		if err != nil {
			// Skip entries that vanished between SMEMBERS and GET.
			continue
		}
		endpoints = append(endpoints, *ep)
	}
	return endpoints, nil
}

func (s *Store) ListCampaignsWithAutoCheckEnabled(ctx context.Context) ([]store.CampaignWithContext, error) {
	ids, err := s.client.SMembers(ctx, KeyAutoCheckCampaigns).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get auto-check campaign IDs: %w", err)
	}
	sort.Strings(ids)

	out := make([]store.CampaignWithContext, 0, len(ids))
	for _, id := range ids {
		campaign, err := s.GetCampaign(ctx, id)
		if err != nil {
			continue
		}
		endpoints, err := s.ListEndpointsForCampaign(ctx, id)
		if err != nil {
			return nil, err
		}

		cwc := store.CampaignWithContext{Campaign: *campaign, Endpoints: endpoints}
		if slugs, err := s.client.SMembers(ctx, CampaignLinksKey(id)).Result(); err == nil && len(slugs) > 0 {
			sort.Strings(slugs)
			cwc.LinkSlug = slugs[0]
		}
		out = append(out, cwc)
	}
	return out, nil
}

func (s *Store) UpdateEndpointHealth(ctx context.Context, id string, upd store.HealthUpdate) (*domain.Endpoint, error) {
	key := EndpointHealthKey(id)

	// Verify the endpoint exists before touching its health hash;
	// otherwise a stale caller would resurrect deleted endpoints.
	exists, err := s.client.Exists(ctx, EndpointKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check endpoint: %w", err)
	}
	if exists == 0 {
		return nil, store.ErrNotFound
	}

	pipe := s.client.TxPipeline()
	var incrCmd *goredis.IntCmd

	if upd.ResetFailures {
		pipe.HSet(ctx, key, fieldFailures, 0)
	}
	if upd.IncrementFailures {
		incrCmd = pipe.HIncrBy(ctx, key, fieldFailures, 1)
	}
	if upd.IsActive != nil {
		pipe.HSet(ctx, key, fieldIsActive, boolField(*upd.IsActive))
	}
	if upd.ClearLastError {
		pipe.HDel(ctx, key, fieldLastError)
	}
	if upd.LastError != nil {
		pipe.HSet(ctx, key, fieldLastError, *upd.LastError)
	}
	if upd.TouchCheckedAt != nil {
		pipe.HSet(ctx, key, fieldLastCheckedAt, upd.TouchCheckedAt.Format(time.RFC3339Nano))
	}
	if upd.TouchUsedAt != nil {
		pipe.HSet(ctx, key, fieldLastUsedAt, upd.TouchUsedAt.Format(time.RFC3339Nano))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to update endpoint health: %w", err)
	}

	ep, err := s.GetEndpoint(ctx, id)
	if err != nil {
		return nil, err
	}
	if incrCmd != nil {
		// The pipeline's HINCRBY result is the authoritative post-update
		// count even if another writer raced the read-back above.
		ep.ConsecutiveFailures = int(incrCmd.Val())
	}
	return ep, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() {
	_ = s.client.Close()
}

func decodeEndpoint(data []byte, health map[string]string) (*domain.Endpoint, error) {
	var rec endpointRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal endpoint: %w", err)
	}

	ep := domain.Endpoint{
		ID:         rec.ID,
		CampaignID: rec.CampaignID,
		URL:        rec.URL,
		Priority:   rec.Priority,
		CreatedAt:  rec.CreatedAt,
		IsActive:   true,
	}

	if v, ok := health[fieldIsActive]; ok {
		ep.IsActive = v == "1"
	}
	if v, ok := health[fieldFailures]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			ep.ConsecutiveFailures = n
		}
	}
	if v, ok := health[fieldLastError]; ok && v != "" {
		ep.LastError = &v
	}
	if v, ok := health[fieldLastCheckedAt]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			ep.LastCheckedAt = &t
		}
	}
	if v, ok := health[fieldLastUsedAt]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			ep.LastUsedAt = &t
		}
	}

	return &ep, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

var _ store.Store = (*Store)(nil)
