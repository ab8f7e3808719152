package classify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClassifyURL(t *testing.T) {
	rs := DefaultRules()

	tests := []struct {
		name         string
		url          string
		wantInactive bool
		wantPlatform string
	}{
		{
			name:         "hotmart error page",
			url:          "https://pay.hotmart.com/error?errorMessage=PURCHASE_NOT_AVAILABLE",
			wantInactive: true,
			wantPlatform: PlatformHotmart,
		},
		{
			name:         "hotmart error message query marker",
			url:          "https://example.com/redirect?errorMessage=closed",
			wantInactive: true,
			wantPlatform: PlatformHotmart,
		},
		{
			name:         "hotmart unavailable token",
			url:          "https://www.hotmart.com/pt/unavailable",
			wantInactive: true,
			wantPlatform: PlatformHotmart,
		},
		{
			name:         "eduzz expired",
			url:          "https://mono.eduzz.com/checkout/expired",
			wantInactive: true,
			wantPlatform: PlatformEduzz,
		},
		{
			name:         "live hotmart checkout",
			url:          "https://pay.hotmart.com/B104050761G",
			wantInactive: false,
		},
		{
			name:         "ordinary page",
			url:          "https://shop.example.com/product/42",
			wantInactive: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := rs.ClassifyURL(tt.url)
			if tt.wantInactive && v == nil {
				t.Fatalf("ClassifyURL(%q) = nil, want inactive verdict", tt.url)
			}
			if !tt.wantInactive && v != nil {
				t.Fatalf("ClassifyURL(%q) = %+v, want nil", tt.url, v)
			}
			if v != nil && v.Platform != tt.wantPlatform {
				t.Errorf("platform = %q, want %q", v.Platform, tt.wantPlatform)
			}
		})
	}
}

func TestClassifyBodyPhrases(t *testing.T) {
	rs := DefaultRules()

	tests := []struct {
		name         string
		body         string
		wantInactive bool
		wantPlatform string
	}{
		{
			name:         "portuguese offer ended",
			body:         "<html><body><h1>Oferta encerrada</h1></body></html>",
			wantInactive: true,
			wantPlatform: PlatformHotmart,
		},
		{
			name:         "english sales closed",
			body:         "<p>Sales of this product are temporarily closed.</p>",
			wantInactive: true,
			wantPlatform: PlatformHotmart,
		},
		{
			name:         "generic 404 page",
			body:         "<title>404 Not Found</title>",
			wantInactive: true,
			wantPlatform: PlatformGeneric,
		},
		{
			name:         "healthy page",
			body:         "<html><body>Buy now for $10</body></html>",
			wantInactive: false,
		},
		{
			name:         "case insensitive match",
			body:         "OFERTA ENCERRADA",
			wantInactive: true,
			wantPlatform: PlatformHotmart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := rs.ClassifyBody([]byte(tt.body))
			if tt.wantInactive && v == nil {
				t.Fatalf("ClassifyBody() = nil, want inactive verdict")
			}
			if !tt.wantInactive && v != nil {
				t.Fatalf("ClassifyBody() = %+v, want nil", v)
			}
			if v != nil && v.Platform != tt.wantPlatform {
				t.Errorf("platform = %q, want %q", v.Platform, tt.wantPlatform)
			}
		})
	}
}

func TestClassifyBodyShortHotmartHeuristic(t *testing.T) {
	rs := DefaultRules()

	t.Run("short hotmart page without form is inactive", func(t *testing.T) {
		body := "<html><head><title>pay.hotmart.com</title></head><body>Algo deu errado.</body></html>"
		v := rs.ClassifyBody([]byte(body))
		if v == nil {
			t.Fatal("ClassifyBody() = nil, want inactive verdict for short formless hotmart page")
		}
		if v.Platform != PlatformHotmart {
			t.Errorf("platform = %q, want %q", v.Platform, PlatformHotmart)
		}
	})

	t.Run("short hotmart page with card form stays active", func(t *testing.T) {
		body := `<html><body>pay.hotmart.com checkout
			<form><input name="cardNumber" /></form></body></html>`
		if v := rs.ClassifyBody([]byte(body)); v != nil {
			t.Errorf("ClassifyBody() = %+v, want nil", v)
		}
	})

	t.Run("short hotmart page with parsed email input stays active", func(t *testing.T) {
		body := `<html><body>Checkout pay.hotmart.com
			<form><input type="email" name="buyer" /></form></body></html>`
		if v := rs.ClassifyBody([]byte(body)); v != nil {
			t.Errorf("ClassifyBody() = %+v, want nil", v)
		}
	})

	t.Run("large hotmart page without form stays active", func(t *testing.T) {
		body := "pay.hotmart.com " + strings.Repeat("x", 20000)
		if v := rs.ClassifyBody([]byte(body)); v != nil {
			t.Errorf("ClassifyBody() = %+v, want nil", v)
		}
	})

	t.Run("non-hotmart short page stays active", func(t *testing.T) {
		if v := rs.ClassifyBody([]byte("<html>tiny page</html>")); v != nil {
			t.Errorf("ClassifyBody() = %+v, want nil", v)
		}
	})
}

func TestClassifyBodyScanCap(t *testing.T) {
	rs := DefaultRules()

	// The phrase sits beyond the scan limit, so it must not match.
	body := strings.Repeat("a", BodyScanLimit) + "oferta encerrada"
	if v := rs.ClassifyBody([]byte(body)); v != nil {
		t.Errorf("ClassifyBody() = %+v, want nil for phrase beyond scan cap", v)
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `
url_patterns:
  - pattern: 'checkout\.acme\.test/(gone|closed)'
    platform: acme
    reason: "Acme checkout closed"
body_phrases:
  - phrase: "offer is no more"
    platform: acme
short_body_limit: 5000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	rs, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}

	if v := rs.ClassifyURL("https://checkout.acme.test/GONE"); v == nil {
		t.Error("custom url pattern did not match case-insensitively")
	} else if v.Reason != "Acme checkout closed" {
		t.Errorf("reason = %q, want %q", v.Reason, "Acme checkout closed")
	}

	if v := rs.ClassifyBody([]byte("sorry, this offer is no more")); v == nil {
		t.Error("custom body phrase did not match")
	} else if v.Platform != "acme" {
		t.Errorf("platform = %q, want %q", v.Platform, "acme")
	}
}

func TestLoadRulesErrors(t *testing.T) {
	if _, err := LoadRules("/does/not/exist.yaml"); err == nil {
		t.Error("LoadRules() on missing file should fail")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("url_patterns:\n  - pattern: '('\n"), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Error("LoadRules() with invalid regex should fail")
	}
}

func TestIsValidHotmartCheckoutURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://pay.hotmart.com/B104050761G", true},
		{"https://pay.hotmart.com/error?errorMessage=x", false},
		{"https://www.hotmart.com/product/thing", false},
		{"https://pay.hotmart.com/", false},
		{"://broken", false},
	}

	for _, tt := range tests {
		if got := IsValidHotmartCheckoutURL(tt.url); got != tt.want {
			t.Errorf("IsValidHotmartCheckoutURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://pay.hotmart.com/ABC", PlatformHotmart},
		{"body mentioning mono.eduzz.com somewhere", PlatformEduzz},
		{"https://shop.example.com", "other"},
	}

	for _, tt := range tests {
		if got := DetectPlatform(tt.in); got != tt.want {
			t.Errorf("DetectPlatform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
