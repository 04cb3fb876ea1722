package security

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ZanzyTHEbar/academic-risk-predictor/internal/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes bounds prediction request bodies
const DefaultMaxBodyBytes int64 = 64 << 10

// Config holds security configuration
type Config struct {
	// AllowedOrigins lists CORS origins; empty or "*" allows any origin
	AllowedOrigins []string      `json:"allowed_origins"`
	MaxBodyBytes   int64         `json:"max_body_bytes"`
	RequestTimeout time.Duration `json:"request_timeout"`
	TrustedProxies []string      `json:"trusted_proxies"`
}

// DefaultConfig returns secure defaults
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: nil,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		RequestTimeout: 30 * time.Second,
		TrustedProxies: []string{"127.0.0.1", "::1"},
	}
}

// ParseOrigins splits a comma separated origin list
func ParseOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// CORS returns the CORS middleware. The prediction API is called from browser forms, so
// preflight requests for JSON POSTs must succeed.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "X-Cache"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}

// BodyLimit rejects bodies larger than max bytes. Declared oversize bodies are refused up
// front; chunked bodies are cut off by http.MaxBytesReader and surface as a read error in
// the handler.
func BodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > max {
			appErr := apperrors.NewValidationError(
				fmt.Sprintf("request body too large: limit is %d bytes", max),
				c.Request.ContentLength,
			)
			apperrors.LogError(c, appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}

// RequestTimeout bounds the request context
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Timeout", strconv.Itoa(int(timeout.Seconds())))

		c.Next()
	}
}
