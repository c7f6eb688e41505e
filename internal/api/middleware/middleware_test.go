package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"netlify", map[string]string{"X-Nf-Client-Connection-Ip": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"}, "3.3.3.3:1", "1.1.1.1"},
		{"fly", map[string]string{"Fly-Client-IP": "4.4.4.4"}, "3.3.3.3:1", "4.4.4.4"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "5.5.5.5, 10.0.0.1"}, "3.3.3.3:1", "5.5.5.5"},
		{"real ip", map[string]string{"X-Real-IP": "6.6.6.6"}, "3.3.3.3:1", "6.6.6.6"},
		{"remote addr", nil, "7.7.7.7:4242", "7.7.7.7"},
		{"remote addr without port", nil, "8.8.8.8", "8.8.8.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := RealIP(r); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRuleFor(t *testing.T) {
	rl := NewRateLimiter(nil, zerolog.Nop(), RateLimiterConfig{})

	tests := []struct {
		method, path string
		wantName     string
		wantRequests int
	}{
		{http.MethodPost, "/api/signup", "signup", DefaultSignupsPerHour},
		{http.MethodPost, "/.netlify/functions/send-confirmation", "signup", DefaultSignupsPerHour},
		{http.MethodGet, "/api/intro", "intro", 120},
		{http.MethodGet, "/health", "", 0},
		{http.MethodGet, "/api/signup", "", 0},
	}

	for _, tt := range tests {
		rule, ok := rl.ruleFor(httptest.NewRequest(tt.method, tt.path, nil))
		if ok != (tt.wantName != "") || rule.Name != tt.wantName || rule.Requests != tt.wantRequests {
			t.Errorf("%s %s: got %+v (matched %v)", tt.method, tt.path, rule, ok)
		}
	}
}

func TestRateLimiterWithoutRedisPassesThrough(t *testing.T) {
	rl := NewRateLimiter(nil, zerolog.Nop(), RateLimiterConfig{})
	h := rl.Middleware(okHandler)

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/signup", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected pass-through, got %d", i, rec.Code)
		}
	}
}

func TestWhitelist(t *testing.T) {
	rl := NewRateLimiter(nil, zerolog.Nop(), RateLimiterConfig{
		Whitelist: []string{"10.1.2.3", "192.168.0.0/16", "not-a-cidr/99"},
	})

	for ip, want := range map[string]bool{
		"10.1.2.3":    true,
		"192.168.4.5": true,
		"10.1.2.4":    false,
		"garbage":     false,
	} {
		if got := rl.isWhitelisted(ip); got != want {
			t.Errorf("isWhitelisted(%s) = %v, want %v", ip, got, want)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "form-action 'self'") {
		t.Fatalf("landing page CSP must allow the signup form, got %q", csp)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/signup", nil))
	if csp := rec.Header().Get("Content-Security-Policy"); csp != "default-src 'none'" {
		t.Fatalf("expected strict CSP on API, got %q", csp)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff")
	}
}

func TestValidateRequest(t *testing.T) {
	h := ValidateRequest(okHandler)

	tests := []struct {
		target string
		want   int
	}{
		{"/api/signup", http.StatusNoContent},
		{"/.netlify/functions/send-confirmation", http.StatusNoContent},
		{"/static/../secret", http.StatusBadRequest},
		{"/?q=<script>alert(1)</script>", http.StatusBadRequest},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("email=a%40b.co"))
		r.URL.Path, r.URL.RawQuery, _ = strings.Cut(tt.target, "?")
		r.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		h.ServeHTTP(rec, r)
		if rec.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.target, tt.want, rec.Code)
		}
	}
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(16)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(strings.Repeat("x", 17))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestNormalizePath(t *testing.T) {
	for path, want := range map[string]string{
		"/api/signup":     "/api/signup",
		"/static/app.js":  "/static/*",
		"/wp-login.php":   "other",
		"/health":         "/health",
		"/api/intro/zzzz": "other",
	} {
		if got := normalizePath(path); got != want {
			t.Errorf("normalizePath(%s) = %s, want %s", path, got, want)
		}
	}
}
