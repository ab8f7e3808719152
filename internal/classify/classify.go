// Package classify decides whether a reachable checkout page is
// commercially inactive: the offer was withdrawn, expired or closed even
// though the URL still answers. Classification is heuristic and
// provider-specific; the pattern tables live in rules.go and can be
// replaced from a YAML file without touching probing.
package classify

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BodyScanLimit caps how much of a response body is inspected. Offer-ended
// pages show their message near the top; scanning more only costs CPU.
const BodyScanLimit = 80 * 1024

// Verdict describes why a page was classified inactive. A nil *Verdict
// means the offer looks active.
type Verdict struct {
	Reason   string
	Platform string
}

// ClassifyURL matches the final (post-redirect) URL against the inactive
// URL patterns. First match wins; no match means active (nil).
func (rs *RuleSet) ClassifyURL(finalURL string) *Verdict {
	for _, rule := range rs.urlRules {
		if rule.re.MatchString(finalURL) {
			return &Verdict{Reason: rule.reason, Platform: rule.platform}
		}
	}
	return nil
}

// ClassifyBody scans at most BodyScanLimit bytes of body for known
// offer-ended phrases, then applies the Hotmart short-body heuristic.
// First match wins; no signal means active (nil).
func (rs *RuleSet) ClassifyBody(body []byte) *Verdict {
	if len(body) > BodyScanLimit {
		body = body[:BodyScanLimit]
	}
	lower := strings.ToLower(string(body))

	for _, rule := range rs.bodyPhrases {
		if strings.Contains(lower, strings.ToLower(rule.phrase)) {
			return &Verdict{Reason: rule.reason, Platform: rule.platform}
		}
	}

	// Hotmart error pages are much smaller than real checkouts and carry
	// no payment form. A short Hotmart page without form markers is dead
	// even when its copy matched none of the phrases above.
	if DetectPlatform(lower) == PlatformHotmart && len(body) < rs.shortBodyLimit {
		if !hasCheckoutForm(body, lower) {
			return &Verdict{
				Reason:   "Hotmart page without checkout form",
				Platform: PlatformHotmart,
			}
		}
	}

	return nil
}

// checkoutFormMarkers are literal fragments that only appear on a live
// checkout page.
var checkoutFormMarkers = []string{
	`name="cardnumber"`,
	`name="card_number"`,
	"payment-method",
	"cartão de crédito",
	"credit card",
	"método de pagamento",
	"payment methods",
	"seu email",
	"your email",
}

// hasCheckoutForm reports whether the page carries anything resembling a
// payment form. It first checks the literal markers, then parses the HTML
// and looks for form elements with card-number or email inputs.
func hasCheckoutForm(body []byte, lower string) bool {
	for _, marker := range checkoutFormMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		// Unparseable HTML: fall back to "no form found".
		return false
	}

	if doc.Find("form input[type='email']").Length() > 0 {
		return true
	}
	found := false
	doc.Find("form input").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		name = strings.ToLower(name)
		if strings.Contains(name, "card") || strings.Contains(name, "payment") {
			found = true
			return false
		}
		return true
	})
	return found
}

// DetectPlatform guesses the checkout provider from a URL or page content.
func DetectPlatform(urlOrHTML string) string {
	lower := strings.ToLower(urlOrHTML)
	switch {
	case strings.Contains(lower, "hotmart.com") || strings.Contains(lower, "pay.hotmart"):
		return PlatformHotmart
	case strings.Contains(lower, "eduzz.com") || strings.Contains(lower, "mono.eduzz"):
		return PlatformEduzz
	default:
		return "other"
	}
}

var hotmartProductPath = regexp.MustCompile(`(?i)^/[A-Z0-9]+`)

// IsValidHotmartCheckoutURL reports whether u looks like a live Hotmart
// checkout: pay.hotmart.com host, a product code in the path, and not the
// provider's error page.
func IsValidHotmartCheckoutURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	if !strings.Contains(parsed.Hostname(), "pay.hotmart.com") {
		return false
	}
	if strings.Contains(parsed.Path, "/error") {
		return false
	}
	return hotmartProductPath.MatchString(parsed.Path)
}
