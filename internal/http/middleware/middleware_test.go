package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitThrottlesPerIP(t *testing.T) {
	h := RateLimit(1, 2)(okHandler())

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/turnos", nil)
		req.Header.Set("X-Real-Ip", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if send("10.0.0.1") != http.StatusOK || send("10.0.0.1") != http.StatusOK {
		t.Fatal("burst requests must pass")
	}
	if send("10.0.0.1") != http.StatusTooManyRequests {
		t.Fatal("request over burst must be rejected")
	}
	// A different client keeps its own bucket.
	if send("10.0.0.2") != http.StatusOK {
		t.Fatal("other clients must not be throttled")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(100, 1)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request must pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("bucket must be empty")
	}
	time.Sleep(20 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("bucket must refill over time")
	}
}

func TestCORSAllowlist(t *testing.T) {
	h := CORS([]string{"https://portal.bomberostulcan.gob.ec"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://portal.bomberostulcan.gob.ec")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://portal.bomberostulcan.gob.ec" {
		t.Fatalf("allowed origin not echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not receive CORS headers")
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"*"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/turnos", nil)
	req.Header.Set("Origin", "https://portal.bomberostulcan.gob.ec")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight must short-circuit with 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatal("preflight response missing allowed methods")
	}
}

func TestStaffJWT(t *testing.T) {
	const secret = "test-secret"
	var gotSubject string
	h := StaffJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := StaffClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("claims missing from context")
		}
		gotSubject = claims.Subject
		w.WriteHeader(http.StatusOK)
	}))

	sign := func(secret string) string {
		claims := jwt.RegisteredClaims{
			Subject:   "inspector-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		return token
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/turnos/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header must yield 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/turnos/stats", nil)
	req.Header.Set("Authorization", "Bearer "+sign("other-secret"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged token must yield 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/turnos/stats", nil)
	req.Header.Set("Authorization", "Bearer "+sign(secret))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token must pass, got %d", rec.Code)
	}
	if gotSubject != "inspector-1" {
		t.Fatalf("subject not propagated, got %q", gotSubject)
	}
}
