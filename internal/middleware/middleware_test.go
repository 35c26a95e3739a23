package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type stubBlacklist map[string]bool

func (s stubBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s[token], nil
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", rr.Body.String(), err)
	}
	if body.Success {
		t.Fatalf("expected success=false, got %s", rr.Body.String())
	}
	return body.Message
}

func TestJWTAuth_Middleware(t *testing.T) {
	auth := NewJWTAuth("test-secret", time.Hour)
	valid, err := auth.GenerateToken("ada", "USER")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	revoked, err := auth.GenerateToken("grace", "USER")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	expired, err := NewJWTAuth("test-secret", -time.Minute).GenerateToken("ada", "USER")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	foreign, err := NewJWTAuth("other-secret", time.Hour).GenerateToken("ada", "USER")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	auth.Blacklist = stubBlacklist{revoked: true}

	var gotUser, gotToken string
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUsername(r.Context())
		gotToken = GetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Missing or invalid authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Missing or invalid authorization header"},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid token"},
		{"other key", "Bearer " + foreign, http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token has expired"},
		{"no subject", "Bearer " + noSubject, http.StatusUnauthorized, "Invalid token subject"},
		{"revoked", "Bearer " + revoked, http.StatusUnauthorized, "Token has been revoked"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser, gotToken = "", ""
			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			if tt.status != http.StatusOK {
				if msg := decodeMessage(t, rr); msg != tt.message {
					t.Fatalf("expected message %q, got %q", tt.message, msg)
				}
				return
			}
			if gotUser != "ada" || gotToken != valid {
				t.Fatalf("context not populated: user=%q token=%q", gotUser, gotToken)
			}
		})
	}
}

func TestJWTAuth_RemainingLifetime(t *testing.T) {
	auth := NewJWTAuth("test-secret", time.Hour)
	token, _ := auth.GenerateToken("ada", "USER")

	if d := auth.RemainingLifetime(token); d <= 59*time.Minute || d > time.Hour {
		t.Fatalf("unexpected lifetime %v", d)
	}
	if d := auth.RemainingLifetime("garbage"); d != 0 {
		t.Fatalf("expected 0 for garbage, got %v", d)
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i, want := range []bool{true, true, false} {
		if got := rl.Allow("10.0.0.1"); got != want {
			t.Fatalf("request %d: expected %v, got %v", i+1, want, got)
		}
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("limits are per client")
	}

	now = now.Add(2 * time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("expected the window to reset")
	}
}

func TestRateLimiter_SteadyClientIsNotLockedOut(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var now time.Time
	rl.now = func() time.Time { return now }

	// One request every 50s: the window opened at t=0 holds t=0 and t=50,
	// t=100 opens a fresh window.
	tests := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{50 * time.Second, true},
		{100 * time.Second, true},
		{150 * time.Second, true},
		{200 * time.Second, true},
	}
	for _, tt := range tests {
		now = start.Add(tt.at)
		if got := rl.Allow("10.0.0.1"); got != tt.want {
			t.Fatalf("t=%v: expected %v, got %v", tt.at, tt.want, got)
		}
	}
}

func TestRateLimiter_RejectedRequestsDoNotExtendWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var now time.Time
	rl.now = func() time.Time { return now }

	steps := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{10 * time.Second, true},
		{20 * time.Second, false},
		{50 * time.Second, false},
		{59 * time.Second, false},
		{61 * time.Second, true},
		{62 * time.Second, true},
		{63 * time.Second, false},
	}
	for _, st := range steps {
		now = start.Add(st.at)
		if got := rl.Allow("10.0.0.1"); got != st.want {
			t.Fatalf("t=%v: expected %v, got %v", st.at, st.want, got)
		}
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := send(); rr.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rr.Code)
	}
	rr := send()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rr.Code)
	}
	if msg := decodeMessage(t, rr); msg != "Too many requests. Please try again later." {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rr.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected a generated id echoed back, got request=%q response=%q", seen, rr.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if seen != "abc-123" || rr.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected caller id to be kept, got %q", rr.Header().Get(RequestIDHeader))
	}
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS("http://localhost:5173/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || called {
		t.Fatalf("preflight: status=%d called=%v", rr.Code, called)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if !called || rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin must pass through without CORS headers")
	}
}
