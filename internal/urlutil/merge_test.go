package urlutil

import (
	"net/url"
	"strings"
	"testing"
)

func TestMergeQueryParams(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		params   url.Values
		contains []string
		exact    string
	}{
		{
			name:   "no params returns input untouched",
			rawURL: "https://pay.example.com/ABC?x=1",
			params: nil,
			exact:  "https://pay.example.com/ABC?x=1",
		},
		{
			name:     "params added to bare url",
			rawURL:   "https://pay.example.com/ABC",
			params:   url.Values{"utm_source": {"fb"}},
			contains: []string{"utm_source=fb"},
		},
		{
			name:     "existing params preserved",
			rawURL:   "https://dest/?a=1",
			params:   url.Values{"utm_source": {"x"}},
			contains: []string{"a=1", "utm_source=x"},
		},
		{
			name:     "caller overrides same-named param",
			rawURL:   "https://dest/?utm_source=old&keep=1",
			params:   url.Values{"utm_source": {"new"}},
			contains: []string{"utm_source=new", "keep=1"},
		},
		{
			name:     "multiple caller values kept",
			rawURL:   "https://dest/",
			params:   url.Values{"tag": {"a", "b"}},
			contains: []string{"tag=a", "tag=b"},
		},
		{
			name:     "malformed url falls back to concatenation",
			rawURL:   "https://[broken/checkout",
			params:   url.Values{"utm_source": {"fb"}},
			contains: []string{"https://[broken/checkout?", "utm_source=fb"},
		},
		{
			name:     "malformed url with existing query uses ampersand",
			rawURL:   "https://[broken/checkout?a=1",
			params:   url.Values{"b": {"2"}},
			contains: []string{"a=1&", "b=2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeQueryParams(tt.rawURL, tt.params)
			if tt.exact != "" && got != tt.exact {
				t.Fatalf("MergeQueryParams() = %q, want %q", got, tt.exact)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("MergeQueryParams() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestMergeQueryParamsOverrideRemovesOldValue(t *testing.T) {
	got := MergeQueryParams("https://dest/?utm_source=old", url.Values{"utm_source": {"new"}})
	if strings.Contains(got, "utm_source=old") {
		t.Errorf("MergeQueryParams() = %q, old value should be gone", got)
	}
}
