package api

import (
	"net/http/pprof"
	"time"

	_ "github.com/ZanzyTHEbar/academic-risk-predictor/docs"
	apperrors "github.com/ZanzyTHEbar/academic-risk-predictor/internal/errors"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/monitoring"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/security"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// PredictionPaths are the routes served through the response cache
var PredictionPaths = []string{"/predict_score", "/predict_risk"}

// RouterOptions tune the middleware chain
type RouterOptions struct {
	Security        security.Config
	EnableProfiling bool
}

// NewRouter builds the engine with the full middleware chain and all routes
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	if opts.Security.MaxBodyBytes <= 0 {
		opts.Security.MaxBodyBytes = security.DefaultMaxBodyBytes
	}
	if opts.Security.RequestTimeout <= 0 {
		opts.Security.RequestTimeout = 30 * time.Second
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.Security.TrustedProxies); err != nil {
		h.Logger.SystemLogger("trusted_proxies_rejected", err.Error())
	}

	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.MonitoringMiddleware(h.Metrics, h.Logger, h.Instruments))
	r.Use(monitoring.SecurityMonitoringMiddleware(h.Logger, opts.Security.MaxBodyBytes))
	r.Use(security.SecurityHeadersMiddleware())
	r.Use(security.CORS(opts.Security.AllowedOrigins))
	if h.Compression != nil {
		r.Use(h.Compression.Handler())
	}
	r.Use(apperrors.ErrorHandler())
	r.Use(security.RequestTimeout(opts.Security.RequestTimeout))

	predict := r.Group("/")
	predict.Use(security.BodyLimit(opts.Security.MaxBodyBytes))
	if h.RateLimiter != nil {
		predict.Use(h.RateLimiter.IPRateLimitMiddleware())
	}
	if h.Cache != nil {
		predict.Use(h.Cache.Middleware(h.Metrics, h.Instruments, PredictionPaths...))
	}
	predict.POST("/predict_score", h.PredictScore)
	predict.POST("/predict_risk", h.PredictRisk)

	r.GET("/health", h.Health)
	r.GET("/models", h.Models)
	r.GET("/metrics", h.MetricsSnapshot)
	r.GET("/cache/stats", h.CacheStats)
	r.GET("/predictions/recent", h.RecentPredictions)
	r.GET("/predictions/stats", h.PredictionStats)
	if h.RateLimiter != nil {
		r.GET("/ratelimit/status", h.RateLimiter.HandleRateLimitStatus())
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if opts.EnableProfiling {
		r.GET("/debug/pprof/", gin.WrapF(pprof.Index))
		r.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
		r.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
		r.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
		r.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
		r.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
		r.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	}

	return r
}
