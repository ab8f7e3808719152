package domain

import (
	"sort"
	"time"
)

// OrderEndpoints returns the active subset of eps ordered for a resolution
// attempt under the given strategy. The input slice is never mutated and
// inactive endpoints are excluded entirely; they are not probed.
//
// Ordering is total: every strategy falls back to CreatedAt (oldest first)
// so repeated calls on unchanged input produce the same sequence.
func OrderEndpoints(eps []Endpoint, strategy RotationStrategy) []Endpoint {
	active := make([]Endpoint, 0, len(eps))
	for _, ep := range eps {
		if ep.IsActive {
			active = append(active, ep)
		}
	}

	switch strategy {
	case RotationPriorityDesc:
		sort.SliceStable(active, func(i, j int) bool {
			if active[i].Priority != active[j].Priority {
				return active[i].Priority > active[j].Priority
			}
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		})
	case RotationRoundRobin:
		sort.SliceStable(active, func(i, j int) bool {
			a, b := lastUsed(active[i]), lastUsed(active[j])
			if !a.Equal(b) {
				return a.Before(b)
			}
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		})
	default: // RotationPriority
		sort.SliceStable(active, func(i, j int) bool {
			if active[i].Priority != active[j].Priority {
				return active[i].Priority < active[j].Priority
			}
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		})
	}

	return active
}

// lastUsed treats never-used endpoints as the zero time so they sort first
// under round-robin.
func lastUsed(ep Endpoint) time.Time {
	if ep.LastUsedAt == nil {
		return time.Time{}
	}
	return *ep.LastUsedAt
}
