package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubWebhook struct {
	calls int
}

func (s *stubWebhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.calls++
	w.WriteHeader(http.StatusOK)
}

func TestHealthEndpoints(t *testing.T) {
	srv := NewServer(":0", &stubWebhook{})
	defer srv.rateLimiter.stop()

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestCallbackRejectsNonPost(t *testing.T) {
	wh := &stubWebhook{}
	srv := NewServer(":0", wh)
	defer srv.rateLimiter.stop()

	req := httptest.NewRequest(http.MethodGet, "/callback", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /callback = %d, want 405", rec.Code)
	}
	if wh.calls != 0 {
		t.Fatal("webhook must not see non-POST requests")
	}
}

func TestCallbackReachesWebhook(t *testing.T) {
	wh := &stubWebhook{}
	srv := NewServer(":0", wh)
	defer srv.rateLimiter.stop()

	req := httptest.NewRequest(http.MethodPost, "/callback", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /callback = %d, want 200", rec.Code)
	}
	if wh.calls != 1 {
		t.Fatalf("webhook calls = %d, want 1", wh.calls)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("198.51.100.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("198.51.100.1") {
		t.Fatal("61st request within a minute should be rejected")
	}
	if !rl.allow("198.51.100.2") {
		t.Fatal("other clients are unaffected")
	}
}

func TestRateLimitedCallback(t *testing.T) {
	wh := &stubWebhook{}
	srv := NewServer(":0", wh)
	defer srv.rateLimiter.stop()

	var last int
	for i := 0; i < 61; i++ {
		req := httptest.NewRequest(http.MethodPost, "/callback", nil)
		req.RemoteAddr = "198.51.100.3:1234"
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("61st request = %d, want 429", last)
	}
	if wh.calls != 60 {
		t.Fatalf("webhook calls = %d, want 60", wh.calls)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct", "203.0.113.5:9999", "", "203.0.113.5"},
		{"trusted proxy forwards", "127.0.0.1:9999", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"untrusted proxy ignored", "203.0.113.5:9999", "198.51.100.9", "203.0.113.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/callback", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
