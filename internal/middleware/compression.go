package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // responses smaller than this go out uncompressed
	CompressionLevel int      // gzip level, 1-9
	ContentTypes     []string // content types eligible for compression
	ExcludePrefixes  []string // paths never compressed
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes:     []string{"application/json", "text/plain"},
		ExcludePrefixes:  []string{"/debug/pprof"},
	}
}

// Compression gzips large JSON responses such as history listings and metrics snapshots
type Compression struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompression creates the compression middleware
func NewCompression(config CompressionConfig) *Compression {
	if config.CompressionLevel < gzip.HuffmanOnly || config.CompressionLevel > gzip.BestCompression {
		config.CompressionLevel = gzip.DefaultCompression
	}
	cm := &Compression{
		config: config,
		stats:  &CompressionStats{},
	}
	cm.pool.New = func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, config.CompressionLevel)
		return gz
	}
	return cm
}

// Handler returns the gin middleware
func (cm *Compression) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") || cm.excluded(c.Request.URL.Path) {
			c.Next()
			return
		}

		w := &gzipResponseWriter{ResponseWriter: c.Writer, cm: cm}
		c.Writer = w
		c.Next()
		w.finish()
	}
}

func (cm *Compression) excluded(path string) bool {
	for _, p := range cm.config.ExcludePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (cm *Compression) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

// GetStats returns compression statistics
func (cm *Compression) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}

// gzipResponseWriter buffers output until MinSize is reached, then decides whether to compress
type gzipResponseWriter struct {
	gin.ResponseWriter
	cm *Compression

	buf         bytes.Buffer
	decided     bool
	compressing bool
	gz          *gzip.Writer
	counter     countingWriter
	rawBytes    int64
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	w.rawBytes += int64(len(data))

	if w.decided {
		if w.compressing {
			return w.gz.Write(data)
		}
		return w.ResponseWriter.Write(data)
	}

	w.buf.Write(data)
	if w.buf.Len() >= w.cm.config.MinSize {
		if err := w.decide(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Written reports buffered output as written so error middleware does not render twice
func (w *gzipResponseWriter) Written() bool {
	return w.buf.Len() > 0 || w.ResponseWriter.Written()
}

func (w *gzipResponseWriter) decide() error {
	w.decided = true

	h := w.Header()
	if h.Get("Content-Encoding") == "" && w.Status() != http.StatusNoContent && w.cm.shouldCompress(h.Get("Content-Type")) {
		w.compressing = true
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")

		w.counter = countingWriter{w: w.ResponseWriter}
		w.gz = w.cm.pool.Get().(*gzip.Writer)
		w.gz.Reset(&w.counter)
		_, err := w.gz.Write(w.buf.Bytes())
		w.buf.Reset()
		return err
	}

	_, err := w.ResponseWriter.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}

func (w *gzipResponseWriter) finish() {
	if !w.decided {
		// below MinSize: send as is
		if w.buf.Len() > 0 {
			w.decided = true
			w.ResponseWriter.Write(w.buf.Bytes())
			w.buf.Reset()
		}
		w.cm.stats.RecordRequest(w.rawBytes, w.rawBytes, false)
		return
	}

	if w.compressing {
		w.gz.Close()
		w.cm.pool.Put(w.gz)
		w.gz = nil
		w.cm.stats.RecordRequest(w.rawBytes, w.counter.n, true)
		return
	}
	w.cm.stats.RecordRequest(w.rawBytes, w.rawBytes, false)
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	CompressedBytes    int64
}

// RecordRequest records a response's sizes
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	atomic.AddInt64(&cs.TotalRequests, 1)
	atomic.AddInt64(&cs.TotalBytes, originalSize)

	if compressed {
		atomic.AddInt64(&cs.CompressedRequests, 1)
		atomic.AddInt64(&cs.CompressedBytes, compressedSize)
	} else {
		atomic.AddInt64(&cs.CompressedBytes, originalSize)
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	total := atomic.LoadInt64(&cs.TotalBytes)
	compressed := atomic.LoadInt64(&cs.CompressedBytes)

	ratio := float64(1)
	if total > 0 {
		ratio = float64(compressed) / float64(total)
	}

	return map[string]interface{}{
		"total_requests":      atomic.LoadInt64(&cs.TotalRequests),
		"compressed_requests": atomic.LoadInt64(&cs.CompressedRequests),
		"total_bytes":         total,
		"compressed_bytes":    compressed,
		"compression_ratio":   ratio,
	}
}
