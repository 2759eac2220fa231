package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Oversized posts outside the upload route are rejected with 413.
func TestBodySizeLimit(t *testing.T) {
	env := newEnv(t)

	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest("POST", "/cart/add", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: env.csrf})
	resp := env.do(t, req)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversize, got %d body=%s", resp.StatusCode, readBody(t, resp))
	}

	req = httptest.NewRequest("POST", "/api/analytics/events", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/json")
	if got := env.do(t, req).StatusCode; got != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversize json, got %d", got)
	}
}

// Payment intent creation allows ten calls a minute per client.
func TestPaymentIntentRateLimit(t *testing.T) {
	env := newEnv(t)
	body := map[string]any{"items": []any{}}
	for i := 0; i < 10; i++ {
		resp := env.postJSON(t, "/api/create-payment-intent", body)
		if resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("hit rate limit too early at %d", i)
		}
	}
	resp := env.postJSON(t, "/api/create-payment-intent", body)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
	}
	var out intentResp
	decodeJSON(t, resp, &out)
	if out.Error == "" {
		t.Fatal("rate limit response should carry a JSON error")
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newEnv(t)
	resp := env.get(t, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("helmet headers missing")
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
}

func TestMediaTraversalBlocked(t *testing.T) {
	env := newEnv(t)
	for _, p := range []string{"/media/../go.mod", "/media/%2e%2e/go.mod", "/media/..%2fsecret"} {
		if got := env.get(t, p, "").StatusCode; got != http.StatusNotFound {
			t.Fatalf("%s expected 404, got %d", p, got)
		}
	}
}
