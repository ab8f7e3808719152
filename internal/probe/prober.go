// Package probe performs single-endpoint liveness checks: a lightweight
// status probe, optionally followed by a deep fetch that chases redirects
// and runs the offer-validity classifier on the final page. Probes never
// return errors; every outcome, including transport failures, is a Result.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/classify"
	"github.com/Joaobneto1/Redirect-Offer/internal/utils"
)

const (
	// DefaultTimeout bounds each individual request inside a probe.
	DefaultTimeout = 5 * time.Second

	userAgent        = "RedirectOffer-HealthCheck/1.0"
	maxRedirectHops  = 10
	shallowBodyLimit = 4 * 1024
)

// DefaultAllowedStatuses are the shallow statuses treated as healthy:
// a plain 200 or the 302 hop checkout providers answer with.
var DefaultAllowedStatuses = []int{http.StatusOK, http.StatusFound}

// Result is the value of one probe. OK=false always carries a Code; deep
// probes that found a withdrawn offer carry CodeInactiveOffer plus the
// classifier's reason.
type Result struct {
	OK             bool
	Status         int
	Code           Code
	Err            string
	InactiveReason string
	Platform       string
	FinalURL       string
}

// FailureReason is the message recorded as the endpoint's lastError.
func (r Result) FailureReason() string {
	if r.InactiveReason != "" {
		return r.InactiveReason
	}
	if r.Err != "" {
		return r.Err
	}
	if r.Status != 0 {
		return fmt.Sprintf("HTTP %d", r.Status)
	}
	return CodeUnknown.Message()
}

// Config tunes a Prober. Zero values fall back to the defaults above.
type Config struct {
	Timeout         time.Duration
	AllowedStatuses []int

	// AllowPrivate skips the private/loopback host rejection.
	// Dev and test use only.
	AllowPrivate bool
}

// Prober runs health checks against endpoint URLs. Safe for concurrent use;
// the underlying clients are shared.
type Prober struct {
	timeout      time.Duration
	allowed      map[int]bool
	allowPrivate bool
	rules        *classify.RuleSet

	shallow *http.Client // never follows redirects
	deep    *http.Client // follows up to maxRedirectHops
}

// New builds a Prober using the given classifier rules. rules may be nil,
// in which case the compiled-in defaults are used.
func New(cfg Config, rules *classify.RuleSet) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	statuses := cfg.AllowedStatuses
	if len(statuses) == 0 {
		statuses = DefaultAllowedStatuses
	}
	if rules == nil {
		rules = classify.DefaultRules()
	}

	allowed := make(map[int]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}

	return &Prober{
		timeout:      cfg.Timeout,
		allowed:      allowed,
		allowPrivate: cfg.AllowPrivate,
		rules:        rules,
		shallow: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		deep: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirectHops {
					return fmt.Errorf("stopped after %d redirects", maxRedirectHops)
				}
				return nil
			},
		},
	}
}

// Probe checks a single endpoint URL. With deep=true an allowed shallow
// status is followed by a redirect-chasing fetch whose final URL and body
// go through the classifier; a deep-fetch transport failure degrades to
// the shallow verdict instead of failing the probe.
//
// Worst case wall time is timeout x 3: shallow request, one retry when the
// provider rejects HEAD, and the deep fetch.
func (p *Prober) Probe(ctx context.Context, rawURL string, deep bool) Result {
	if p.allowPrivate {
		if _, err := validateSyntax(rawURL); err != nil {
			return Result{OK: false, Code: CodeInvalidURL, Err: err.Error()}
		}
	} else if err := ValidateURL(rawURL); err != nil {
		return Result{OK: false, Code: CodeInvalidURL, Err: err.Error()}
	}

	status, err := p.fetchStatus(ctx, http.MethodHead, rawURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		// Some providers (Hotmart among them) reject HEAD outright.
		status, err = p.fetchStatus(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		code := classifyNetError(err)
		return Result{OK: false, Code: code, Err: code.Message()}
	}

	if !p.allowed[status] {
		return Result{
			OK:     false,
			Status: status,
			Code:   CodeHTTPError,
			Err:    fmt.Sprintf("HTTP %d", status),
		}
	}

	result := Result{OK: true, Status: status}
	if !deep {
		return result
	}

	finalURL, body, err := p.fetchDeep(ctx, rawURL)
	if err != nil {
		// Deep fetch is best effort: the shallow check already passed.
		return result
	}
	result.FinalURL = finalURL

	verdict := p.rules.ClassifyURL(finalURL)
	if verdict == nil {
		verdict = p.rules.ClassifyBody(body)
	}
	if verdict != nil {
		result.OK = false
		result.Code = CodeInactiveOffer
		result.Err = CodeInactiveOffer.Message()
		result.InactiveReason = verdict.Reason
		result.Platform = verdict.Platform
	}

	return result
}

// fetchStatus issues one request without following redirects and returns
// only the status code. The body is drained just enough to reuse the
// connection.
func (p *Prober) fetchStatus(ctx context.Context, method, rawURL string) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, http.NoBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.shallow.Do(req)
	if err != nil {
		return 0, err
	}
	defer utils.Close(resp.Body)
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, shallowBodyLimit))

	return resp.StatusCode, nil
}

// fetchDeep follows redirects to completion and returns the final URL plus
// at most classify.BodyScanLimit bytes of the body.
func (p *Prober) fetchDeep(ctx context.Context, rawURL string) (string, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.deep.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer utils.Close(resp.Body)

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, classify.BodyScanLimit))
	if err != nil {
		return "", nil, err
	}

	return finalURL, body, nil
}
