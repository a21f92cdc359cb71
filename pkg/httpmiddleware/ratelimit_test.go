package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimit(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allows requests within the burst", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 3})(testHandler)

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)
			if recorder.Code != http.StatusOK {
				t.Errorf("Request %d: expected status 200, got %d", i, recorder.Code)
			}
		}
	})

	t.Run("rejects requests over the burst with 429", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{RequestsPerSecond: 0.1, Burst: 1})(testHandler)

		req := httptest.NewRequest("GET", "/test", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusOK {
			t.Errorf("First request: expected status 200, got %d", recorder.Code)
		}

		req = httptest.NewRequest("GET", "/test", nil)
		recorder = httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusTooManyRequests {
			t.Errorf("Second request: expected status 429, got %d", recorder.Code)
		}
	})
}

func TestDefaultRateLimitConfig(t *testing.T) {
	config := DefaultRateLimitConfig()
	if config.RequestsPerSecond <= 0 {
		t.Error("Expected positive requests per second")
	}
	if config.Burst <= 0 {
		t.Error("Expected positive burst")
	}
}
