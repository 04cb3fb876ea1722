package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/analysis"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/cache"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/database"
	apperrors "github.com/ZanzyTHEbar/academic-risk-predictor/internal/errors"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/middleware"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/monitoring"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// Deps are the collaborators a Handler serves. Analyzer, Metrics and Logger are required;
// the rest may be nil and their endpoints degrade accordingly.
type Deps struct {
	Analyzer    *analysis.Analyzer
	Models      []ModelInfo
	Metrics     *monitoring.Metrics
	Instruments *monitoring.Instruments
	Logger      *monitoring.Logger
	Cache       *cache.Cache
	Compression *middleware.Compression
	RateLimiter *ratelimit.RateLimiter
	HistoryDB   *database.DB
	History     *database.Repository
	Recorder    *database.Recorder
	Version     string
}

// Handler serves the prediction API
type Handler struct {
	Deps
	startedAt time.Time
}

// NewHandler creates the API handler
func NewHandler(deps Deps) *Handler {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handler{Deps: deps, startedAt: time.Now()}
}

// Health godoc
// @Summary Service health
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{
		"status":         "ok",
		"version":        h.Version,
		"timestamp":      time.Now().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"models": gin.H{
			"regressor":  h.Analyzer != nil,
			"classifier": h.Analyzer != nil,
		},
		"history_enabled": h.History != nil,
	}

	// a down Redis only degrades rate limiting to per-replica memory
	if h.RateLimiter != nil {
		limiter := gin.H{"backend": h.RateLimiter.Backend(), "healthy": true}
		if err := h.RateLimiter.Healthy(c.Request.Context()); err != nil {
			limiter["healthy"] = false
			resp["status"] = "degraded"
		}
		resp["rate_limiter"] = limiter
	}

	c.JSON(http.StatusOK, resp)
}

// Models godoc
// @Summary Loaded models and their feature order
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /models [get]
func (h *Handler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": h.Deps.Models})
}

// MetricsSnapshot godoc
// @Summary In-process counters
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics [get]
func (h *Handler) MetricsSnapshot(c *gin.Context) {
	stats := h.Metrics.GetStats()
	if h.Cache != nil {
		stats["cache"] = h.Cache.Stats()
	}
	if h.Compression != nil {
		stats["compression"] = h.Compression.GetStats()
	}
	if h.RateLimiter != nil {
		stats["rate_limiter"] = h.RateLimiter.GetStats()
	}
	if h.HistoryDB != nil {
		stats["history_pool"] = h.HistoryDB.GetPoolStats()
	}
	c.JSON(http.StatusOK, stats)
}

// CacheStats godoc
// @Summary Prediction cache statistics
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /cache/stats [get]
func (h *Handler) CacheStats(c *gin.Context) {
	if h.Cache == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "prediction cache is disabled"})
		return
	}
	c.JSON(http.StatusOK, h.Cache.Stats())
}

// RecentPredictions godoc
// @Summary Most recent predictions, newest first
// @Tags history
// @Produce json
// @Param limit query int false "page size (1-100)" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /predictions/recent [get]
func (h *Handler) RecentPredictions(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "prediction history is disabled"})
		return
	}

	limit := database.DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			appErr := apperrors.NewInvalidInputError("limit", raw)
			apperrors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, ErrorResponse{Error: appErr.Error()})
			return
		}
		limit = database.ClampLimit(n)
	}

	predictions, err := h.History.Recent(c.Request.Context(), limit)
	if err != nil {
		h.internalError(c, "failed to read prediction history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"limit":       limit,
		"count":       len(predictions),
		"predictions": predictions,
	})
}

// PredictionStats godoc
// @Summary Prediction counts and averages per endpoint
// @Tags history
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /predictions/stats [get]
func (h *Handler) PredictionStats(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "prediction history is disabled"})
		return
	}

	stats, err := h.History.Stats(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to aggregate prediction history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"endpoints": stats})
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	appErr := apperrors.NewInternalError(msg, err)
	apperrors.LogError(c, appErr)
	h.Logger.APIErrorLogger(err, c.Request.Method, c.Request.URL.Path, c.ClientIP(), appErr.HTTPStatus)
	c.JSON(appErr.HTTPStatus, ErrorResponse{Error: appErr.Error()})
}
