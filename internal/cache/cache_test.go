package cache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSet(t *testing.T) {
	c, err := NewCache(4, time.Minute)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []byte(`{"a":1}`), "application/json")
	entry, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), entry.Data)
	assert.Equal(t, "application/json", entry.ContentType)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c, err := NewCache(4, 10*time.Millisecond)
	require.NoError(t, err)

	c.Set("k", []byte("v"), "text/plain")
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats["expired"])
	assert.Equal(t, int64(0), stats["evictions"])
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewCache(2, time.Minute)
	require.NoError(t, err)

	c.Set("a", []byte("1"), "")
	c.Set("b", []byte("2"), "")
	_, _ = c.Get("a")
	c.Set("c", []byte("3"), "")

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
	assert.Equal(t, int64(1), c.Stats()["evictions"])

	// refreshing a present key makes no room
	c.Set("a", []byte("4"), "")
	c.Delete("c")
	assert.Equal(t, int64(1), c.Stats()["evictions"])
	assert.Equal(t, int64(0), c.Stats()["expired"])
}

func TestNewCacheRejectsBadSize(t *testing.T) {
	_, err := NewCache(0, time.Minute)
	assert.Error(t, err)
}

func TestKeyDependsOnPath(t *testing.T) {
	body := []byte(`{"cgpa":8}`)
	assert.NotEqual(t, Key("/predict_score", body), Key("/predict_risk", body))
	assert.Equal(t, Key("/predict_score", body), Key("/predict_score", body))
}

func TestCacheStats(t *testing.T) {
	c, err := NewCache(8, time.Minute)
	require.NoError(t, err)

	c.Set("a", []byte("1"), "")
	_, _ = c.Get("a")
	_, _ = c.Get("b")

	stats := c.Stats()
	assert.Equal(t, 1, stats["total_items"])
	assert.Equal(t, 8, stats["capacity"])
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, 50.0, stats["hit_rate_percent"])
}

func setupRouter(t *testing.T, c *Cache, metrics *monitoring.Metrics, calls *int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(c.Middleware(metrics, nil, "/predict_score"))
	r.POST("/predict_score", func(ctx *gin.Context) {
		n := atomic.AddInt64(calls, 1)
		body, _ := io.ReadAll(ctx.Request.Body)
		if strings.Contains(string(body), "bad") {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"call": n, "body": string(body)})
	})
	r.POST("/other", func(ctx *gin.Context) {
		atomic.AddInt64(calls, 1)
		ctx.JSON(http.StatusOK, gin.H{})
	})
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	c, err := NewCache(16, time.Minute)
	require.NoError(t, err)
	metrics := monitoring.NewMetrics()
	var calls int64
	r := setupRouter(t, c, metrics, &calls)

	first := post(r, "/predict_score", `{"cgpa":8}`)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := post(r, "/predict_score", `{"cgpa":8}`)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	// different body misses
	post(r, "/predict_score", `{"cgpa":9}`)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats["cache_hits"])
	assert.Equal(t, int64(2), stats["cache_misses"])
}

func TestMiddlewareSkipsErrorsAndOtherPaths(t *testing.T) {
	c, err := NewCache(16, time.Minute)
	require.NoError(t, err)
	var calls int64
	r := setupRouter(t, c, monitoring.NewMetrics(), &calls)

	post(r, "/predict_score", `"bad"`)
	post(r, "/predict_score", `"bad"`)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))

	post(r, "/other", `{}`)
	post(r, "/other", `{}`)
	assert.Equal(t, int64(4), atomic.LoadInt64(&calls))
	assert.Equal(t, 0, c.Size())
}

func TestMiddlewarePassesReadErrors(t *testing.T) {
	c, err := NewCache(16, time.Minute)
	require.NoError(t, err)
	gin.SetMode(gin.TestMode)

	var handlerErr error
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, 4)
		ctx.Next()
	})
	r.Use(c.Middleware(monitoring.NewMetrics(), nil, "/predict_score"))
	r.POST("/predict_score", func(ctx *gin.Context) {
		_, handlerErr = io.ReadAll(ctx.Request.Body)
		ctx.Status(http.StatusBadRequest)
	})

	post(r, "/predict_score", `{"attendance": 90}`)

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, handlerErr, &maxErr)
	assert.Equal(t, 0, c.Size())
}
