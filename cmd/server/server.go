package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/analysis"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/api"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/cache"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/database"
	apperrors "github.com/ZanzyTHEbar/academic-risk-predictor/internal/errors"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/middleware"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/model"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/monitoring"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/ratelimit"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
)

const (
	serverShutdownWait = 30 * time.Second
	serverReadTimeout  = 15 * time.Second
	serverWriteTimeout = 60 * time.Second
	runtimeSampleEvery = 15 * time.Second
	heapWarnBytes      = 512 << 20
	historySweepEvery  = 24 * time.Hour
)

type config struct {
	Port            int
	ModelDir        string
	RegressorFile   string
	ClassifierFile  string
	LogLevel        string
	GinMode         string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RateLimitPerMin int
	CacheTTL        time.Duration
	CacheSize       int
	HistoryDB       string
	HistoryRetain   time.Duration
	AllowedOrigins  []string
	OTelEndpoint    string
	EnableProfiling bool
}

func configFromContext(c *cli.Context) config {
	return config{
		Port:            c.Int(portFlag.Name),
		ModelDir:        c.String(modelDirFlag.Name),
		RegressorFile:   c.String(regressorFileFlag.Name),
		ClassifierFile:  c.String(classifierFileFlag.Name),
		LogLevel:        c.String(logLevelFlag.Name),
		GinMode:         c.String(ginModeFlag.Name),
		RedisAddr:       c.String(redisAddrFlag.Name),
		RedisPassword:   c.String(redisPasswordFlag.Name),
		RedisDB:         c.Int(redisDBFlag.Name),
		RateLimitPerMin: c.Int(rateLimitFlag.Name),
		CacheTTL:        c.Duration(cacheTTLFlag.Name),
		CacheSize:       c.Int(cacheSizeFlag.Name),
		HistoryDB:       c.String(historyDBFlag.Name),
		HistoryRetain:   c.Duration(historyRetentionFlag.Name),
		AllowedOrigins:  security.ParseOrigins(c.String(allowedOriginsFlag.Name)),
		OTelEndpoint:    c.String(otelEndpointFlag.Name),
		EnableProfiling: c.Bool(profilingFlag.Name),
	}
}

// loadModels reads both artifacts. Either one missing or malformed is fatal.
func loadModels(cfg config) (*analysis.Analyzer, []api.ModelInfo, error) {
	regPath := filepath.Join(cfg.ModelDir, cfg.RegressorFile)
	reg, err := model.LoadFile(regPath, model.KindRegressor)
	if err != nil {
		return nil, nil, apperrors.NewConfigurationError("failed to load regressor", err)
	}

	clfPath := filepath.Join(cfg.ModelDir, cfg.ClassifierFile)
	clf, err := model.LoadFile(clfPath, model.KindClassifier)
	if err != nil {
		return nil, nil, apperrors.NewConfigurationError("failed to load classifier", err)
	}

	analyzer := analysis.NewAnalyzer(reg, clf)
	infos := []api.ModelInfo{
		api.DescribeModel("regressor", regPath, reg, analyzer.ScoreFeatures()),
		api.DescribeModel("classifier", clfPath, clf, analyzer.RiskFeatures()),
	}

	for _, info := range infos {
		slog.Info("Model loaded",
			"name", info.Name,
			"path", info.Path,
			"trees", info.Trees,
			"declares_features", info.Declared,
			"features", info.Features)
	}

	return analyzer, infos, nil
}

func checkModels(cfg config, w io.Writer) error {
	_, infos, err := loadModels(cfg)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(gin.H{"models": infos}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

type server struct {
	router  *gin.Engine
	handler *api.Handler
	closers []func()
}

// buildServer wires every component. Optional components (cache, rate limiter, history) are
// skipped when their configuration disables them.
func buildServer(ctx context.Context, cfg config) (*server, error) {
	gin.SetMode(cfg.GinMode)

	analyzer, infos, err := loadModels(cfg)
	if err != nil {
		return nil, err
	}

	s := &server{}
	metrics := monitoring.NewMetrics()
	logger := monitoring.NewLogger(monitoring.ParseLevel(cfg.LogLevel))

	instruments, err := monitoring.NewGlobalInstruments()
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to create instruments")
	}

	deps := api.Deps{
		Analyzer:    analyzer,
		Models:      infos,
		Metrics:     metrics,
		Instruments: instruments,
		Logger:      logger,
		Compression: middleware.NewCompression(middleware.DefaultCompressionConfig()),
		Version:     version,
	}

	if cfg.CacheTTL > 0 && cfg.CacheSize > 0 {
		deps.Cache, err = cache.NewCache(cfg.CacheSize, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
	}

	if cfg.RateLimitPerMin > 0 {
		store, err := ratelimit.ConnectRedis(ctx, ratelimit.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			// limiter falls back to memory
			logger.SystemLogger("redis_unavailable", err.Error())
		}
		rlCfg := ratelimit.DefaultConfig()
		rlCfg.IPLimitPerMin = cfg.RateLimitPerMin
		deps.RateLimiter = ratelimit.NewRateLimiter(store, rlCfg, metrics)

		s.closers = append(s.closers, func() {
			deps.RateLimiter.Close()
			if store != nil {
				apperrors.SafeClose(store, "redis")
			}
		})
	}

	if cfg.HistoryDB != "" {
		db, err := database.NewDB(cfg.HistoryDB)
		if err != nil {
			s.Close()
			return nil, apperrors.NewConfigurationError("failed to open history database", err)
		}
		deps.HistoryDB = db
		deps.History = database.NewRepository(db)
		deps.Recorder = database.NewRecorder(deps.History, 256, func(error) {
			metrics.IncrementHistoryWriteError()
		})

		s.closers = append(s.closers, func() {
			deps.Recorder.Close()
			apperrors.SafeClose(db, "history database")
		})
	}

	secCfg := security.DefaultConfig()
	secCfg.AllowedOrigins = cfg.AllowedOrigins

	s.handler = api.NewHandler(deps)
	s.router = api.NewRouter(s.handler, api.RouterOptions{
		Security:        secCfg,
		EnableProfiling: cfg.EnableProfiling,
	})
	return s, nil
}

// Close releases components in reverse order of creation
func (s *server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func runServer(ctx context.Context, cfg config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := monitoring.InitMeterProvider(ctx, cfg.OTelEndpoint, name)
	if err != nil {
		return apperrors.NewConfigurationError("failed to initialize metrics exporter", err)
	}

	s, err := buildServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	samplerCtx, cancelSampler := context.WithCancel(ctx)
	defer cancelSampler()
	go monitoring.NewRuntimeSampler(s.handler.Metrics, s.handler.Logger, runtimeSampleEvery, heapWarnBytes).Run(samplerCtx)
	if s.handler.History != nil {
		go database.RunRetention(samplerCtx, s.handler.History, cfg.HistoryRetain, historySweepEvery)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.Port, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWait)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		slog.Warn("Failed to flush metrics", "error", err)
	}

	slog.Info("Server exited")
	return nil
}
