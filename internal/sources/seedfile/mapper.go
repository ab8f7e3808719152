package seedfile

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/domain"
)

// Mapper converts a seed Config into domain entities.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// Map validates the config and returns the campaigns, endpoints and links
// in the order they appear in the file.
func (m *Mapper) Map(config *Config) ([]domain.Campaign, []domain.Endpoint, []domain.Link, error) {
	if config == nil || len(config.Campaigns) == 0 {
		return nil, nil, nil, fmt.Errorf("no campaigns in seed file")
	}

	now := time.Now()
	var (
		campaigns []domain.Campaign
		endpoints []domain.Endpoint
		links     []domain.Link
	)
	seenSlugs := make(map[string]bool)

	for i, spec := range config.Campaigns {
		if spec.ID == "" {
			return nil, nil, nil, fmt.Errorf("campaign #%d: missing id", i+1)
		}
		if spec.Name == "" {
			return nil, nil, nil, fmt.Errorf("campaign %s: missing name", spec.ID)
		}

		interval := time.Duration(0)
		if spec.AutoCheckInterval != "" {
			d, err := time.ParseDuration(spec.AutoCheckInterval)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("campaign %s: bad auto_check_interval: %w", spec.ID, err)
			}
			interval = d
		}

		campaigns = append(campaigns, domain.Campaign{
			ID:                spec.ID,
			Name:              spec.Name,
			RotationStrategy:  domain.RotationStrategy(spec.RotationStrategy),
			AutoCheckEnabled:  spec.AutoCheckEnabled,
			AutoCheckInterval: interval,
			CreatedAt:         now,
		})

		for j, eps := range spec.Endpoints {
			if eps.ID == "" {
				return nil, nil, nil, fmt.Errorf("campaign %s: endpoint #%d missing id", spec.ID, j+1)
			}
			if _, err := url.ParseRequestURI(eps.URL); err != nil {
				return nil, nil, nil, fmt.Errorf("campaign %s: endpoint %s: bad url: %w", spec.ID, eps.ID, err)
			}

			active := true
			if eps.Active != nil {
				active = *eps.Active
			}
			endpoints = append(endpoints, domain.Endpoint{
				ID:         eps.ID,
				CampaignID: spec.ID,
				URL:        eps.URL,
				Priority:   eps.Priority,
				IsActive:   active,
				CreatedAt:  now.Add(time.Duration(j) * time.Millisecond), // preserve file order as tiebreak
			})
		}

		for k, ls := range spec.Links {
			if ls.ID == "" {
				return nil, nil, nil, fmt.Errorf("campaign %s: link #%d missing id", spec.ID, k+1)
			}
			if ls.Slug == "" {
				return nil, nil, nil, fmt.Errorf("campaign %s: link %s missing slug", spec.ID, ls.ID)
			}
			if seenSlugs[ls.Slug] {
				return nil, nil, nil, fmt.Errorf("duplicate slug %q", ls.Slug)
			}
			seenSlugs[ls.Slug] = true

			var fallback *string
			if ls.FallbackURL != "" {
				fb := ls.FallbackURL
				fallback = &fb
			}
			links = append(links, domain.Link{
				ID:          ls.ID,
				Slug:        ls.Slug,
				CampaignID:  spec.ID,
				FallbackURL: fallback,
				CreatedAt:   now,
			})
		}
	}

	return campaigns, endpoints, links, nil
}
