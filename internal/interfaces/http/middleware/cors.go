package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns the default CORS configuration. AllowOrigins is
// empty on purpose: cross-origin access stays off until origins are configured
// via config.toml or CLINIC_HTTP_CORS_ALLOW_ORIGINS.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:     []string{},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID", "X-Operator", "Idempotency-Key", "Accept", "Origin", "Cache-Control"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// corsHeaders is the request-independent part of the CORS response, computed
// once when the middleware is built.
type corsHeaders struct {
	methods string
	headers string
	expose  string
	maxAge  string
}

func (h corsHeaders) write(dst http.Header) {
	dst.Set("Access-Control-Allow-Methods", h.methods)
	dst.Set("Access-Control-Allow-Headers", h.headers)
	if h.expose != "" {
		dst.Set("Access-Control-Expose-Headers", h.expose)
	}
	if h.maxAge != "" {
		dst.Set("Access-Control-Max-Age", h.maxAge)
	}
}

// CORS returns a middleware that handles CORS with default configuration
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig returns a CORS middleware with custom configuration.
//
// Origins are matched exactly against the whitelist unless it contains "*".
// An empty whitelist disables cross-origin access entirely: requests still
// run, but no CORS headers are written, so browsers block the response.
// Preflight OPTIONS requests are always answered with 204 to keep them from
// falling through to the router as 404s.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	wildcard := false
	allowed := make(map[string]bool, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}

	shared := corsHeaders{
		methods: strings.Join(cfg.AllowMethods, ", "),
		headers: strings.Join(cfg.AllowHeaders, ", "),
		expose:  strings.Join(cfg.ExposeHeaders, ", "),
	}
	if cfg.MaxAge > 0 {
		shared.maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		preflight := c.Request.Method == http.MethodOptions

		grant := ""
		switch {
		case wildcard:
			grant = "*"
		case allowed[origin]:
			grant = origin
		}

		if grant != "" {
			dst := c.Writer.Header()
			dst.Set("Access-Control-Allow-Origin", grant)
			// Browsers reject credentials combined with a "*" origin, so
			// the flag only applies to explicit grants.
			if cfg.AllowCredentials && grant != "*" {
				dst.Set("Access-Control-Allow-Credentials", "true")
			}
			shared.write(dst)
		}

		if preflight {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
