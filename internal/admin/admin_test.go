package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notifier/internal/limiter"
)

func newTestRouter() (http.Handler, *limiter.Limiter) {
	l := limiter.New(limiter.Config{MaxTokens: 10, RefillPerMinute: 60})
	return NewRouter(NewHandlers(l)).Handler(), l
}

func decodeStatus(t *testing.T, body *httptest.ResponseRecorder) limiter.Status {
	t.Helper()
	var status limiter.Status
	if err := json.NewDecoder(body.Body).Decode(&status); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	return status
}

func TestGetStatus(t *testing.T) {
	handler, l := newTestRouter()
	for i := 0; i < 11; i++ {
		l.Acquire("user-1")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/limiter/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	got := decodeStatus(t, rec)
	want := limiter.Status{MaxTokens: 10, RefillPerMinute: 60, ActiveUserCount: 1, OverloadedUserCount: 1}
	if got != want {
		t.Errorf("status = %+v, want %+v", got, want)
	}
}

func TestUpdateConfig(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"valid update", `{"max_tokens": 20, "refill_per_minute": 120}`, http.StatusOK},
		{"below minimum", `{"max_tokens": 5, "refill_per_minute": 60}`, http.StatusBadRequest},
		{"above maximum", `{"max_tokens": 50, "refill_per_minute": 500}`, http.StatusBadRequest},
		{"missing fields", `{}`, http.StatusBadRequest},
		{"malformed body", `{not json`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, l := newTestRouter()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/v1/limiter/config", strings.NewReader(tt.body))
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.wantCode)
			}

			cfg := l.Config()
			if tt.wantCode == http.StatusOK {
				if cfg.MaxTokens != 20 || cfg.RefillPerMinute != 120 {
					t.Errorf("Config() = %+v, want 20/120 applied", cfg)
				}
			} else if cfg.MaxTokens != 10 || cfg.RefillPerMinute != 60 {
				t.Errorf("Config() = %+v, want prior configuration untouched", cfg)
			}
		})
	}
}

func TestUpdateConfig_ResetsUserState(t *testing.T) {
	handler, l := newTestRouter()
	for i := 0; i < 10; i++ {
		l.Acquire("user-1")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/limiter/config",
		strings.NewReader(`{"max_tokens": 20, "refill_per_minute": 120}`))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	got := decodeStatus(t, rec)
	if got.ActiveUserCount != 0 {
		t.Errorf("ActiveUserCount = %d, want 0 after config reset", got.ActiveUserCount)
	}
	if tokens := l.Tokens("user-1"); tokens != 20 {
		t.Errorf("Tokens() = %d, want fresh capacity 20", tokens)
	}
}

func TestClear(t *testing.T) {
	t.Run("single user", func(t *testing.T) {
		handler, l := newTestRouter()
		for i := 0; i < 10; i++ {
			l.Acquire("user-1")
			l.Acquire("user-2")
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/limiter/clear?user_id=user-1", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status code = %d, want 200", rec.Code)
		}
		if tokens := l.Tokens("user-1"); tokens != 10 {
			t.Errorf("Tokens(user-1) = %d, want full bucket after clear", tokens)
		}
		if tokens := l.Tokens("user-2"); tokens != 0 {
			t.Errorf("Tokens(user-2) = %d, want 0 for untouched user", tokens)
		}
	})

	t.Run("all users", func(t *testing.T) {
		handler, l := newTestRouter()
		for i := 0; i < 10; i++ {
			l.Acquire("user-1")
			l.Acquire("user-2")
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/limiter/clear", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status code = %d, want 200", rec.Code)
		}
		got := decodeStatus(t, rec)
		if got.ActiveUserCount != 0 {
			t.Errorf("ActiveUserCount = %d, want 0 after clearing all", got.ActiveUserCount)
		}
	})
}

func TestTokens(t *testing.T) {
	handler, l := newTestRouter()
	l.Acquire("user-1")
	l.Acquire("user-1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/limiter/tokens?user_id=user-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	var resp struct {
		UserID string `json:"user_id"`
		Tokens int    `json:"tokens"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserID != "user-1" || resp.Tokens != 8 {
		t.Errorf("response = %+v, want user-1 with 8 tokens", resp)
	}
}

func TestTokens_MissingUserID(t *testing.T) {
	handler, _ := newTestRouter()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/limiter/tokens", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want 400", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/limiter/status"},
		{http.MethodGet, "/api/v1/limiter/config"},
		{http.MethodGet, "/api/v1/limiter/clear"},
		{http.MethodPut, "/api/v1/limiter/tokens"},
	}

	handler, _ := newTestRouter()
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s = %d, want 405", tt.method, tt.path, rec.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	handler, _ := newTestRouter()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
}
