package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testProber(t *testing.T, cfg Config) *Prober {
	t.Helper()
	cfg.AllowPrivate = true // httptest servers listen on loopback
	return New(cfg, nil)
}

func TestProbeShallow(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/moved":
			w.Header().Set("Location", "https://pay.example.com/final")
			w.WriteHeader(http.StatusFound)
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	p := testProber(t, Config{})

	tests := []struct {
		name       string
		path       string
		wantOK     bool
		wantStatus int
		wantCode   Code
	}{
		{name: "200 is healthy", path: "/ok", wantOK: true, wantStatus: http.StatusOK},
		{name: "302 is healthy without following", path: "/moved", wantOK: true, wantStatus: http.StatusFound},
		{name: "404 is an http error", path: "/gone", wantOK: false, wantStatus: http.StatusNotFound, wantCode: CodeHTTPError},
		{name: "500 is an http error", path: "/boom", wantOK: false, wantStatus: http.StatusInternalServerError, wantCode: CodeHTTPError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Probe(context.Background(), ts.URL+tt.path, false)
			if res.OK != tt.wantOK {
				t.Errorf("OK = %v, want %v (result %+v)", res.OK, tt.wantOK, res)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", res.Status, tt.wantStatus)
			}
			if !tt.wantOK && res.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", res.Code, tt.wantCode)
			}
		})
	}
}

func TestProbeRetriesGetOn405(t *testing.T) {
	var sawGet bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sawGet = true
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	p := testProber(t, Config{})
	res := p.Probe(context.Background(), ts.URL, false)

	if !res.OK {
		t.Fatalf("Probe() = %+v, want ok after GET retry", res)
	}
	if !sawGet {
		t.Error("prober never retried with GET after 405")
	}
}

func TestProbeCustomAllowedStatuses(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	p := testProber(t, Config{AllowedStatuses: []int{http.StatusForbidden}})
	if res := p.Probe(context.Background(), ts.URL, false); !res.OK {
		t.Errorf("Probe() = %+v, want ok with 403 allowed", res)
	}
}

func TestProbeInvalidURL(t *testing.T) {
	p := New(Config{}, nil)

	tests := []struct {
		name string
		url  string
	}{
		{name: "bad scheme", url: "ftp://files.example.com/offer"},
		{name: "no host", url: "https:///path-only"},
		{name: "loopback ip", url: "http://127.0.0.1:8080/admin"},
		{name: "private ip", url: "http://10.0.0.5/internal"},
		{name: "localhost", url: "http://localhost/x"},
		{name: "link local", url: "http://169.254.169.254/latest/meta-data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Probe(context.Background(), tt.url, false)
			if res.OK {
				t.Fatalf("Probe(%q) ok, want rejection", tt.url)
			}
			if res.Code != CodeInvalidURL {
				t.Errorf("Code = %s, want %s", res.Code, CodeInvalidURL)
			}
		})
	}
}

func TestProbeTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	p := testProber(t, Config{Timeout: 50 * time.Millisecond})
	res := p.Probe(context.Background(), ts.URL, false)

	if res.OK {
		t.Fatalf("Probe() = %+v, want timeout failure", res)
	}
	if res.Code != CodeTimeout {
		t.Errorf("Code = %s, want %s", res.Code, CodeTimeout)
	}
	if res.Err != CodeTimeout.Message() {
		t.Errorf("Err = %q, want %q", res.Err, CodeTimeout.Message())
	}
}

func TestProbeConnectionRefused(t *testing.T) {
	// Reserve a port and close it so nothing listens there.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	p := testProber(t, Config{Timeout: time.Second})
	res := p.Probe(context.Background(), url, false)

	if res.OK {
		t.Fatalf("Probe() = %+v, want failure", res)
	}
	if res.Code != CodeConnectionRefused && res.Code != CodeNetworkError {
		t.Errorf("Code = %s, want %s or %s", res.Code, CodeConnectionRefused, CodeNetworkError)
	}
}

func TestProbeDeepInactiveBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("<html><body><h1>Oferta encerrada</h1></body></html>"))
		}
	}))
	defer ts.Close()

	p := testProber(t, Config{})
	res := p.Probe(context.Background(), ts.URL, true)

	if res.OK {
		t.Fatalf("Probe() = %+v, want inactive verdict", res)
	}
	if res.Code != CodeInactiveOffer {
		t.Errorf("Code = %s, want %s", res.Code, CodeInactiveOffer)
	}
	if res.InactiveReason == "" {
		t.Error("InactiveReason is empty")
	}
}

func TestProbeDeepInactiveFinalURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/offer":
			http.Redirect(w, r, "/error?errorMessage=SALES_CLOSED", http.StatusFound)
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("<html>nothing to see</html>"))
		}
	}))
	defer ts.Close()

	p := testProber(t, Config{})
	res := p.Probe(context.Background(), ts.URL+"/offer", true)

	if res.OK {
		t.Fatalf("Probe() = %+v, want inactive verdict from final URL", res)
	}
	if res.Code != CodeInactiveOffer {
		t.Errorf("Code = %s, want %s", res.Code, CodeInactiveOffer)
	}
	if res.FinalURL == "" {
		t.Error("FinalURL not captured")
	}
}

func TestProbeDeepHealthyCheckout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<html><body><form><input name="card_number"/></form>Pay now</body></html>`))
	}))
	defer ts.Close()

	p := testProber(t, Config{})
	res := p.Probe(context.Background(), ts.URL, true)

	if !res.OK {
		t.Fatalf("Probe() = %+v, want ok", res)
	}
}

func TestProbeDeepFailureDegradesToShallow(t *testing.T) {
	// First (shallow) hit succeeds, every later request hangs past the
	// deep fetch's deadline. The probe must keep the shallow verdict.
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits > 1 {
			time.Sleep(400 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	p := testProber(t, Config{Timeout: 150 * time.Millisecond})
	res := p.Probe(context.Background(), ts.URL, true)

	if !res.OK {
		t.Fatalf("Probe() = %+v, want shallow ok despite deep failure", res)
	}
	if res.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", res.Status)
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "inactive reason wins",
			res:  Result{InactiveReason: "Hotmart offer closed", Err: "offer is inactive"},
			want: "Hotmart offer closed",
		},
		{
			name: "error message next",
			res:  Result{Err: "request timed out"},
			want: "request timed out",
		},
		{
			name: "status fallback",
			res:  Result{Status: 404},
			want: "HTTP 404",
		},
		{
			name: "unknown fallback",
			res:  Result{},
			want: CodeUnknown.Message(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.FailureReason(); got != tt.want {
				t.Errorf("FailureReason() = %q, want %q", got, tt.want)
			}
		})
	}
}
