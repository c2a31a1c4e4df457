// Package admin exposes the narrow administrative control surface for the
// notifier: limiter status, limiter reconfiguration, and state clearing.
// The dashboard that calls it lives elsewhere.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"notifier/internal/limiter"
)

// Handlers wraps dependencies for the admin HTTP handlers.
type Handlers struct {
	limiter *limiter.Limiter
}

// NewHandlers creates a new handlers instance.
func NewHandlers(l *limiter.Limiter) *Handlers {
	return &Handlers{limiter: l}
}

// UpdateConfigRequest represents a request to change limiter parameters.
type UpdateConfigRequest struct {
	MaxTokens       int `json:"max_tokens"`
	RefillPerMinute int `json:"refill_per_minute"`
}

// GetStatus returns the current limiter configuration and user counts.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.limiter.GetStatus())
}

// UpdateConfig applies new limiter parameters. An accepted update discards
// all per-user state; rejected values leave the prior configuration
// untouched and return 400.
func (h *Handlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !h.limiter.UpdateConfig(req.MaxTokens, req.RefillPerMinute) {
		http.Error(w, "max_tokens and refill_per_minute must be between 10 and 200", http.StatusBadRequest)
		return
	}

	slog.Info("Limiter configuration updated",
		"max_tokens", req.MaxTokens,
		"refill_per_minute", req.RefillPerMinute,
	)
	writeJSON(w, http.StatusOK, h.limiter.GetStatus())
}

// Clear discards rate-limit state for one user (?user_id=) or for all
// users when no user_id is given.
func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID != "" {
		h.limiter.ClearUser(userID)
		slog.Info("Cleared rate-limit state for user", "user_id", userID)
	} else {
		h.limiter.ClearAll()
		slog.Info("Cleared rate-limit state for all users")
	}
	writeJSON(w, http.StatusOK, h.limiter.GetStatus())
}

// Tokens returns the tokens currently available to a user.
func (h *Handlers) Tokens(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireQueryParam(w, r, "user_id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"tokens":  h.limiter.Tokens(userID),
	})
}

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux      *http.ServeMux
	handlers *Handlers
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handlers) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		handlers: h,
	}
	r.setupRoutes()
	return r
}

// setupRoutes configures all HTTP routes for the admin API.
func (r *Router) setupRoutes() {
	r.mux.HandleFunc("/api/v1/limiter/status", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			r.handlers.GetStatus(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/api/v1/limiter/config", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPut {
			r.handlers.UpdateConfig(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/api/v1/limiter/clear", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			r.handlers.Clear(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/api/v1/limiter/tokens", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			r.handlers.Tokens(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Health check endpoint
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Handler returns the HTTP handler with CORS middleware applied.
func (r *Router) Handler() http.Handler {
	return corsMiddleware(r.mux)
}

// corsMiddleware applies CORS headers to all requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewServer creates a new HTTP server with the router configured.
func NewServer(port string, h *Handlers) *http.Server {
	router := NewRouter(h)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// decodeJSON decodes the request body as JSON into the provided value.
// Returns true on success, false on error (and writes error response).
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON writes the value as JSON with appropriate headers.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// requireQueryParam extracts a query parameter and validates it's not empty.
func requireQueryParam(w http.ResponseWriter, r *http.Request, paramName string) (string, bool) {
	value := r.URL.Query().Get(paramName)
	if value == "" {
		http.Error(w, paramName+" query parameter is required", http.StatusBadRequest)
		return "", false
	}
	return value, true
}
