package monitoring

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	metrics := NewMetrics()
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)

	r := gin.New()
	r.Use(MonitoringMiddleware(metrics, logger, nil))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for _, path := range []string{"/ok", "/ok", "/bad"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats["total_requests"])
	assert.Equal(t, int64(1), stats["error_count"])
	assert.Equal(t, map[int]int64{200: 2, 400: 1}, metrics.GetStatusCodeDistribution())
	assert.Equal(t, 3, strings.Count(buf.String(), "HTTP Request"))
}

func TestSecurityMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		query     string
		userAgent string
		flagged   bool
	}{
		{"clean request", "", "curl/8.0", false},
		{"sql in query", "id=1%20UNION%20SELECT%20*", "curl/8.0", true},
		{"scanner agent", "", "sqlmap/1.7", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(&buf, slog.LevelInfo)

			r := gin.New()
			r.Use(SecurityMonitoringMiddleware(logger, 1024))
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
			req.Header.Set("User-Agent", tt.userAgent)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.flagged, strings.Contains(buf.String(), "Security Event"))
		})
	}
}

func TestRuntimeSamplerRecords(t *testing.T) {
	metrics := NewMetrics()
	logger := NewLoggerWithWriter(&bytes.Buffer{}, slog.LevelInfo)

	NewRuntimeSampler(metrics, logger, 0, 0).sample()

	stats := metrics.GetStats()
	assert.Greater(t, stats["go_heap_sys_bytes"].(int64), int64(0))
	assert.Greater(t, stats["go_goroutines"].(int64), int64(0))
}
