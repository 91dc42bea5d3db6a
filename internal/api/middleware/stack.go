// SPDX-License-Identifier: MIT

package middleware

import "github.com/go-chi/chi/v5"

// StackConfig configures the HTTP ingress middleware stack.
type StackConfig struct {
	EnableMetrics   bool
	EnableLogging   bool
	EnableRateLimit bool
	AllowedOrigins  []string // extra origins trusted for unsafe methods
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(Recoverer)
	// 2. RequestID (correlation early)
	r.Use(RequestID)
	// 3. Security headers
	r.Use(SecurityHeaders)
	// 4. CSRF (unsafe methods only)
	r.Use(CSRFProtection(cfg.AllowedOrigins))
	// 5. Metrics (track all requests)
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 6. Logging (wraps handlers, captures full latency)
	if cfg.EnableLogging {
		r.Use(Logging)
	}
	// 7. Rate limit (global protection)
	if cfg.EnableRateLimit {
		r.Use(APIRateLimit())
	}
}
