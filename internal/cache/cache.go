package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/monitoring"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"
)

// Entry is a cached response with its expiry
type Entry struct {
	Data        []byte
	ContentType string
	ExpiresAt   time.Time
}

// IsExpired checks if the entry has expired
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Cache is a size-bounded LRU of responses with a TTL. It is safe for concurrent use.
type Cache struct {
	items *lru.Cache
	ttl   time.Duration
	size  int

	hits      int64
	misses    int64
	evictions int64 // dropped to make room
	expired   int64 // dropped on lookup after their TTL
}

// NewCache creates a cache holding at most size entries for ttl each
func NewCache(size int, ttl time.Duration) (*Cache, error) {
	items, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cache{items: items, ttl: ttl, size: size}, nil
}

// Key derives a cache key from the request path and raw body
func Key(path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves an unexpired entry
func (c *Cache) Get(key string) (*Entry, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	entry := v.(*Entry)
	if entry.IsExpired() {
		c.Delete(key)
		atomic.AddInt64(&c.expired, 1)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return entry, true
}

// Set stores a response
func (c *Cache) Set(key string, data []byte, contentType string) {
	evicted := c.items.Add(key, &Entry{
		Data:        data,
		ContentType: contentType,
		ExpiresAt:   time.Now().Add(c.ttl),
	})
	if evicted {
		atomic.AddInt64(&c.evictions, 1)
	}
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.items.Remove(key)
}

// Size returns the number of items in the cache, expired ones included
func (c *Cache) Size() int {
	return c.items.Len()
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses) * 100
	}

	return map[string]interface{}{
		"total_items":      c.Size(),
		"capacity":         c.size,
		"ttl_seconds":      c.ttl.Seconds(),
		"hits":             hits,
		"misses":           misses,
		"evictions":        atomic.LoadInt64(&c.evictions),
		"expired":          atomic.LoadInt64(&c.expired),
		"hit_rate_percent": hitRate,
	}
}

// Middleware serves repeated POST bodies on the given paths from the cache. Only 200 responses
// are stored.
func (c *Cache) Middleware(metrics *monitoring.Metrics, instruments *monitoring.Instruments, paths ...string) gin.HandlerFunc {
	cached := make(map[string]bool, len(paths))
	for _, p := range paths {
		cached[p] = true
	}

	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost || !cached[ctx.Request.URL.Path] {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			// hand the handler what was read plus the same error
			ctx.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err}))
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := Key(ctx.Request.URL.Path, body)

		if entry, found := c.Get(key); found {
			slog.Debug("Cache hit", "key", key[:8]+"...")
			metrics.IncrementCacheHit()
			instruments.RecordCacheLookup(ctx.Request.Context(), true)
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, entry.ContentType, entry.Data)
			ctx.Abort()
			return
		}

		metrics.IncrementCacheMiss()
		instruments.RecordCacheLookup(ctx.Request.Context(), false)
		ctx.Header("X-Cache", "MISS")

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		if wrapper.Status() == http.StatusOK {
			c.Set(key, wrapper.body.Bytes(), wrapper.Header().Get("Content-Type"))
			slog.Debug("Response cached", "key", key[:8]+"...")
		}
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
