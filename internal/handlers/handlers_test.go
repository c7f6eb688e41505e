package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/namahsea/sellmo-landing-page/internal/brevo"
	"github.com/namahsea/sellmo-landing-page/internal/models"
	"github.com/namahsea/sellmo-landing-page/internal/notify"
	"github.com/namahsea/sellmo-landing-page/internal/relay"
)

// provider stands in for the Brevo API and counts calls.
type provider struct {
	srv    *httptest.Server
	calls  atomic.Int32
	status int
	body   string
}

func newProvider(t *testing.T, status int, body string) *provider {
	t.Helper()
	p := &provider{status: status, body: body}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(p.status)
		w.Write([]byte(p.body))
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func newTestHandler(t *testing.T, p *provider, key string) *Handler {
	t.Helper()
	tmpl, err := notify.Load("")
	if err != nil {
		t.Fatal(err)
	}
	keyFunc := func() string { return key }
	rl := relay.New(brevo.NewClient(p.srv.URL, zerolog.Nop()), tmpl, relay.WithKeyFunc(keyFunc))
	return NewHandler(rl, nil, keyFunc, zerolog.Nop())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestSignupNonPostIsMethodNotAllowed(t *testing.T) {
	tests := []struct {
		name, method, contentType, body string
	}{
		{"get without body", http.MethodGet, "", ""},
		{"get with json body", http.MethodGet, "application/json", `{"email":"ada@example.com","form-name":"beta-signup"}`},
		{"get with form body", http.MethodGet, "application/x-www-form-urlencoded", "email=ada%40example.com"},
		{"put with json body", http.MethodPut, "application/json", `{"email":"ada@example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(t, http.StatusCreated, `{"messageId":"m"}`)
			h := newTestHandler(t, p, "secret")

			r := httptest.NewRequest(tt.method, "/api/signup?email=ada@example.com", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.Signup(rec, r)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Fatalf("expected 405, got %d", rec.Code)
			}
			if body := decode(t, rec); body["error"] != "Method not allowed" {
				t.Fatalf("unexpected body %v", body)
			}
			if p.calls.Load() != 0 {
				t.Fatal("provider must not be called")
			}
		})
	}
}

func TestSignupMalformedJSON(t *testing.T) {
	p := newProvider(t, http.StatusCreated, `{"messageId":"m"}`)
	h := newTestHandler(t, p, "secret")

	r := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(`{"email":`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decode(t, rec); body["error"] == "" {
		t.Fatal("expected error field")
	}
	if p.calls.Load() != 0 {
		t.Fatal("provider must not be called")
	}
}

func TestSignupJSONSuccess(t *testing.T) {
	p := newProvider(t, http.StatusCreated, `{"messageId":"<42@relay>"}`)
	h := newTestHandler(t, p, "secret")

	r := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(`{"email":"ada@example.com","form-name":"chat-signup"}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["email"] != "ada@example.com" || body["message"] != "Welcome email sent successfully!" {
		t.Fatalf("unexpected body %v", body)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected permissive CORS header")
	}
	if p.calls.Load() != 1 {
		t.Fatalf("expected one provider call, got %d", p.calls.Load())
	}
}

func TestSignupProviderFailure(t *testing.T) {
	p := newProvider(t, http.StatusBadRequest, `{"code":"invalid_parameter","message":"sender not verified"}`)
	h := newTestHandler(t, p, "secret")

	r := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(`{"email":"ada@example.com"}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != "Failed to send welcome email" || !strings.Contains(body["details"], "sender not verified") {
		t.Fatalf("unexpected body %v", body)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected permissive CORS header on failure")
	}
}

func TestSignupNativeFormRedirects(t *testing.T) {
	p := newProvider(t, http.StatusCreated, `{"messageId":"m"}`)
	h := newTestHandler(t, p, "secret")

	r := httptest.NewRequest(http.MethodPost, "/.netlify/functions/send-confirmation", strings.NewReader("form-name=beta-signup&email=ada%40example.com"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/?signup=ok" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestSignupFormWithoutHTMLGetsJSON(t *testing.T) {
	p := newProvider(t, http.StatusCreated, `{"messageId":"m"}`)
	h := newTestHandler(t, p, "secret")

	r := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader("email=ada%40example.com"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode(t, rec); body["email"] != "ada@example.com" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestSignupMissingCredential(t *testing.T) {
	p := newProvider(t, http.StatusCreated, `{"messageId":"m"}`)
	h := newTestHandler(t, p, "")

	r := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(`{"email":"ada@example.com"}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if p.calls.Load() != 0 {
		t.Fatal("provider must not be called without a credential")
	}
}

func TestIntro(t *testing.T) {
	p := newProvider(t, http.StatusCreated, `{}`)
	h := newTestHandler(t, p, "secret")

	var runs []string
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.Intro(rec, httptest.NewRequest(http.MethodGet, "/api/intro", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var tl models.IntroTimeline
		if err := json.Unmarshal(rec.Body.Bytes(), &tl); err != nil {
			t.Fatal(err)
		}
		if len(tl.Entries) != 5 || tl.Entries[1].ID != "chat1" || tl.Entries[1].RevealAtMs != 1000 {
			t.Fatalf("unexpected timeline %+v", tl.Entries)
		}
		if tl.Entries[4].ID != "chatInputContainer" || tl.Entries[4].RevealAtMs != 5500 {
			t.Fatalf("unexpected final entry %+v", tl.Entries[4])
		}
		runs = append(runs, tl.RunID)
	}
	if runs[0] == runs[1] {
		t.Fatal("each load must get a fresh run id")
	}
}

func TestHealth(t *testing.T) {
	p := newProvider(t, http.StatusCreated, `{}`)

	rec := httptest.NewRecorder()
	newTestHandler(t, p, "secret").Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	newTestHandler(t, p, "").Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without credential, got %d", rec.Code)
	}
}
