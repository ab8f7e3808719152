// Package postgres is the relational Store backend, mirroring the schema
// the admin surface maintains. Health writes use single-statement atomic
// increments so concurrent resolutions and the auto-checker never lose a
// failure count.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Joaobneto1/Redirect-Offer/internal/domain"
	"github.com/Joaobneto1/Redirect-Offer/internal/store"
)

type Store struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, connStr string) (*Store, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &Store{db: db}, nil
}

// EnsureSchema creates the tables when they do not exist yet. The admin
// surface owns the data; this only guarantees a fresh database can serve.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	rotation_strategy   TEXT NOT NULL DEFAULT 'priority',
	auto_check_enabled  BOOLEAN NOT NULL DEFAULT FALSE,
	auto_check_interval INTEGER NOT NULL DEFAULT 60,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS endpoints (
	id                   TEXT PRIMARY KEY,
	campaign_id          TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
	url                  TEXT NOT NULL,
	priority             INTEGER NOT NULL DEFAULT 0,
	is_active            BOOLEAN NOT NULL DEFAULT TRUE,
	consecutive_failures INTEGER NOT NULL DEFAULT 0,
	last_error           TEXT,
	last_checked_at      TIMESTAMPTZ,
	last_used_at         TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_endpoints_campaign ON endpoints(campaign_id);

CREATE TABLE IF NOT EXISTS links (
	id           TEXT PRIMARY KEY,
	slug         TEXT NOT NULL UNIQUE,
	campaign_id  TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
	fallback_url TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const endpointColumns = `id, campaign_id, url, priority, is_active,
	consecutive_failures, last_error, last_checked_at, last_used_at, created_at`

func (s *Store) FindLinkBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	var l domain.Link
	err := s.db.QueryRow(ctx,
		`SELECT id, slug, campaign_id, fallback_url, created_at FROM links WHERE slug = $1`,
		slug,
	).Scan(&l.ID, &l.Slug, &l.CampaignID, &l.FallbackURL, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	return &l, nil
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, name, rotation_strategy, auto_check_enabled, auto_check_interval, created_at
		 FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

func (s *Store) GetEndpoint(ctx context.Context, id string) (*domain.Endpoint, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+endpointColumns+` FROM endpoints WHERE id = $1`, id)
	e, err := scanEndpoint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint: %w", err)
	}
	return e, nil
}

func (s *Store) ListEndpointsForCampaign(ctx context.Context, campaignID string) ([]domain.Endpoint, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+endpointColumns+` FROM endpoints WHERE campaign_id = $1 ORDER BY created_at`,
		campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoints: %w", err)
	}
	defer rows.Close()

	var out []domain.Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan endpoint: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) ListCampaignsWithAutoCheckEnabled(ctx context.Context) ([]store.CampaignWithContext, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, rotation_strategy, auto_check_enabled, auto_check_interval, created_at
		 FROM campaigns WHERE auto_check_enabled ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	var ids []string
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, nil
	}

	endpoints, err := s.endpointsByCampaign(ctx, ids)
	if err != nil {
		return nil, err
	}
	slugs, err := s.slugsByCampaign(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]store.CampaignWithContext, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, store.CampaignWithContext{
			Campaign:  c,
			Endpoints: endpoints[c.ID],
			LinkSlug:  slugs[c.ID],
		})
	}
	return out, nil
}

func (s *Store) UpdateEndpointHealth(ctx context.Context, id string, upd store.HealthUpdate) (*domain.Endpoint, error) {
	var set []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if upd.ResetFailures {
		set = append(set, "consecutive_failures = 0")
	}
	if upd.IncrementFailures {
		set = append(set, "consecutive_failures = consecutive_failures + 1")
	}
	if upd.IsActive != nil {
		set = append(set, "is_active = "+arg(*upd.IsActive))
	}
	if upd.ClearLastError {
		set = append(set, "last_error = NULL")
	}
	if upd.LastError != nil {
		set = append(set, "last_error = "+arg(*upd.LastError))
	}
	if upd.TouchCheckedAt != nil {
		set = append(set, "last_checked_at = "+arg(*upd.TouchCheckedAt))
	}
	if upd.TouchUsedAt != nil {
		set = append(set, "last_used_at = "+arg(*upd.TouchUsedAt))
	}

	if len(set) == 0 {
		return s.GetEndpoint(ctx, id)
	}

	query := fmt.Sprintf(
		`UPDATE endpoints SET %s WHERE id = %s RETURNING `+endpointColumns,
		strings.Join(set, ", "), arg(id))

	e, err := scanEndpoint(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update endpoint health: %w", err)
	}
	return e, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) endpointsByCampaign(ctx context.Context, campaignIDs []string) (map[string][]domain.Endpoint, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+endpointColumns+` FROM endpoints WHERE campaign_id = ANY($1) ORDER BY created_at`,
		campaignIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoints: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Endpoint)
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan endpoint: %w", err)
		}
		out[e.CampaignID] = append(out[e.CampaignID], *e)
	}
	return out, rows.Err()
}

// slugsByCampaign picks the oldest link slug per campaign, used only as
// notification context.
func (s *Store) slugsByCampaign(ctx context.Context, campaignIDs []string) (map[string]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT ON (campaign_id) campaign_id, slug
		 FROM links WHERE campaign_id = ANY($1)
		 ORDER BY campaign_id, created_at`,
		campaignIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list link slugs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var campaignID, slug string
		if err := rows.Scan(&campaignID, &slug); err != nil {
			return nil, fmt.Errorf("failed to scan link slug: %w", err)
		}
		out[campaignID] = slug
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCampaign(row scannable) (*domain.Campaign, error) {
	var c domain.Campaign
	var intervalSec int
	err := row.Scan(&c.ID, &c.Name, &c.RotationStrategy, &c.AutoCheckEnabled, &intervalSec, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.AutoCheckInterval = time.Duration(intervalSec) * time.Second
	return &c, nil
}

func scanEndpoint(row scannable) (*domain.Endpoint, error) {
	var e domain.Endpoint
	err := row.Scan(&e.ID, &e.CampaignID, &e.URL, &e.Priority, &e.IsActive,
		&e.ConsecutiveFailures, &e.LastError, &e.LastCheckedAt, &e.LastUsedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

var _ store.Store = (*Store)(nil)
