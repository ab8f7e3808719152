package domain

import (
	"testing"
	"time"
)

func ep(id string, priority int, active bool, created time.Time) Endpoint {
	return Endpoint{
		ID:        id,
		URL:       "https://pay.example.com/" + id,
		Priority:  priority,
		IsActive:  active,
		CreatedAt: created,
	}
}

func ids(eps []Endpoint) []string {
	out := make([]string, 0, len(eps))
	for _, e := range eps {
		out = append(out, e.ID)
	}
	return out
}

func equalIDs(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOrderEndpoints(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	used := func(e Endpoint, at time.Time) Endpoint {
		e.LastUsedAt = &at
		return e
	}

	tests := []struct {
		name     string
		eps      []Endpoint
		strategy RotationStrategy
		want     []string
	}{
		{
			name: "priority ascending with creation tiebreak",
			eps: []Endpoint{
				ep("b", 1, true, base.Add(2*time.Hour)),
				ep("c", 0, true, base.Add(time.Hour)),
				ep("a", 0, true, base),
			},
			strategy: RotationPriority,
			want:     []string{"a", "c", "b"},
		},
		{
			name: "inactive endpoints excluded",
			eps: []Endpoint{
				ep("down", 0, false, base),
				ep("up", 5, true, base),
			},
			strategy: RotationPriority,
			want:     []string{"up"},
		},
		{
			name: "legacy priority descending",
			eps: []Endpoint{
				ep("low", 1, true, base),
				ep("high", 9, true, base.Add(time.Minute)),
			},
			strategy: RotationPriorityDesc,
			want:     []string{"high", "low"},
		},
		{
			name: "round robin prefers never used then oldest use",
			eps: []Endpoint{
				used(ep("recent", 0, true, base), base.Add(3*time.Hour)),
				used(ep("stale", 0, true, base), base.Add(time.Hour)),
				ep("never", 0, true, base.Add(2*time.Hour)),
			},
			strategy: RotationRoundRobin,
			want:     []string{"never", "stale", "recent"},
		},
		{
			name:     "empty input",
			eps:      nil,
			strategy: RotationPriority,
			want:     []string{},
		},
		{
			name: "unknown strategy falls back to priority",
			eps: []Endpoint{
				ep("second", 2, true, base),
				ep("first", 1, true, base),
			},
			strategy: RotationStrategy("bogus"),
			want:     []string{"first", "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrderEndpoints(tt.eps, tt.strategy)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("OrderEndpoints() = %v, want %v", ids(got), tt.want)
			}
			for _, e := range got {
				if !e.IsActive {
					t.Errorf("OrderEndpoints() returned inactive endpoint %s", e.ID)
				}
			}
		})
	}
}

func TestOrderEndpointsStable(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	eps := []Endpoint{
		ep("a", 0, true, base),
		ep("b", 0, true, base.Add(time.Second)),
		ep("c", 1, true, base),
		ep("d", 0, false, base),
	}

	first := ids(OrderEndpoints(eps, RotationPriority))
	for i := 0; i < 10; i++ {
		again := ids(OrderEndpoints(eps, RotationPriority))
		if !equalIDs(first, again) {
			t.Fatalf("ordering not stable: run %d got %v, want %v", i, again, first)
		}
	}
}

func TestOrderEndpointsDoesNotMutateInput(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	eps := []Endpoint{
		ep("z", 9, true, base),
		ep("a", 0, true, base),
	}

	_ = OrderEndpoints(eps, RotationPriority)

	if eps[0].ID != "z" || eps[1].ID != "a" {
		t.Errorf("input slice was reordered: %v", ids(eps))
	}
}
