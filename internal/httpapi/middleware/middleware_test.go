package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireAdmin(t *testing.T) {
	guarded := RequireAdmin([]string{"adm_key"})(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/remediate", nil)
	req.Header.Set("X-API-Key", "adm_key")
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin key should pass, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/remediate", nil)
	req.Header.Set("Authorization", "Bearer adm_key")
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer admin key should pass, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/remediate", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong key should be 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/remediate", nil)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing key should be 401, got %d", rec.Code)
	}
}

func TestRequireAdmin_NoKeysConfiguredAllowsAll(t *testing.T) {
	guarded := RequireAdmin(nil)(okHandler)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want open access without configured keys, got %d", rec.Code)
	}
}

func TestRateLimit_AllowsThenBlocks(t *testing.T) {
	h := RateLimit(60, 2)(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:4444"

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: want 200, got %d", i, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429 after burst, got %d", rec.Code)
	}

	// Another client has its own bucket.
	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.10:4444"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("independent client blocked: %d", rec.Code)
	}

	time.Sleep(1100 * time.Millisecond)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 after refill, got %d", rec.Code)
	}
}
