package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CORSConfig configures cross-origin access for browser clients
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows any origin to call the suggestion endpoints
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", UserHeader},
		MaxAge:         12 * time.Hour,
	}
}

// isOriginAllowed checks if the origin is allowed
func (c *CORSConfig) isOriginAllowed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// writePreflight sets the headers of an OPTIONS preflight response
func (c *CORSConfig) writePreflight(w http.ResponseWriter, r *http.Request) {
	if len(c.AllowedMethods) > 0 {
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(c.AllowedMethods, ", "))
	} else if method := r.Header.Get("Access-Control-Request-Method"); method != "" {
		// If no methods specified, allow the requested method
		w.Header().Set("Access-Control-Allow-Methods", method)
	}

	if len(c.AllowedHeaders) > 0 {
		if c.AllowedHeaders[0] == "*" {
			// Echo back the requested headers
			if headers := r.Header.Get("Access-Control-Request-Headers"); headers != "" {
				w.Header().Set("Access-Control-Allow-Headers", headers)
			}
		} else {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(c.AllowedHeaders, ", "))
		}
	}

	if c.MaxAge > 0 {
		w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%.0f", c.MaxAge.Seconds()))
	}

	if c.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
}
