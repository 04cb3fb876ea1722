package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	apperrors "github.com/ZanzyTHEbar/academic-risk-predictor/internal/errors"
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/monitoring"
	"github.com/urfave/cli/v2"
)

var (
	name    = "academic-risk-predictor"
	version = "v0.1.0-default"
	commit  = ""
)

var (
	portFlag = &cli.IntFlag{
		Name:    "port",
		Usage:   "Port on which the server will listen",
		Value:   5000,
		EnvVars: []string{"PORT"},
	}
	modelDirFlag = &cli.StringFlag{
		Name:    "model-dir",
		Usage:   "Directory holding the model artifacts",
		Value:   "./models",
		EnvVars: []string{"MODEL_DIR"},
	}
	regressorFileFlag = &cli.StringFlag{
		Name:    "regressor-file",
		Usage:   "Regressor artifact file name inside the model directory",
		Value:   "RandomForestRegressor.json",
		EnvVars: []string{"REGRESSOR_FILE"},
	}
	classifierFileFlag = &cli.StringFlag{
		Name:    "classifier-file",
		Usage:   "Classifier artifact file name inside the model directory",
		Value:   "RandomForestClassifier.json",
		EnvVars: []string{"CLASSIFIER_FILE"},
	}
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "debug, info, warn or error",
		Value:   "info",
		EnvVars: []string{"LOG_LEVEL"},
	}
	ginModeFlag = &cli.StringFlag{
		Name:    "gin-mode",
		Usage:   "gin mode: debug, release or test",
		Value:   "release",
		EnvVars: []string{"GIN_MODE"},
	}
	redisAddrFlag = &cli.StringFlag{
		Name:    "redis-addr",
		Usage:   "Redis address for distributed rate limiting (optional, in-memory when empty)",
		EnvVars: []string{"REDIS_ADDR"},
	}
	redisPasswordFlag = &cli.StringFlag{
		Name:    "redis-password",
		Usage:   "Redis password",
		EnvVars: []string{"REDIS_PASSWORD"},
	}
	redisDBFlag = &cli.IntFlag{
		Name:    "redis-db",
		Usage:   "Redis database number",
		EnvVars: []string{"REDIS_DB"},
	}
	rateLimitFlag = &cli.IntFlag{
		Name:    "rate-limit-per-min",
		Usage:   "Prediction requests allowed per client IP per minute (0 disables)",
		Value:   60,
		EnvVars: []string{"RATE_LIMIT_PER_MIN"},
	}
	cacheTTLFlag = &cli.DurationFlag{
		Name:    "cache-ttl",
		Usage:   "How long identical prediction requests are served from cache (0 disables)",
		Value:   15 * time.Minute,
		EnvVars: []string{"CACHE_TTL"},
	}
	cacheSizeFlag = &cli.IntFlag{
		Name:    "cache-size",
		Usage:   "Maximum number of cached prediction responses",
		Value:   1024,
		EnvVars: []string{"CACHE_SIZE"},
	}
	historyDBFlag = &cli.StringFlag{
		Name:    "history-db",
		Usage:   "Path to the sqlite prediction history (optional, disabled when empty)",
		EnvVars: []string{"HISTORY_DB"},
	}
	historyRetentionFlag = &cli.DurationFlag{
		Name:    "history-retention",
		Usage:   "Delete recorded predictions older than this (0 keeps them forever)",
		Value:   90 * 24 * time.Hour,
		EnvVars: []string{"HISTORY_RETENTION"},
	}
	allowedOriginsFlag = &cli.StringFlag{
		Name:    "allowed-origins",
		Usage:   "Comma separated CORS origins (any origin when empty)",
		EnvVars: []string{"ALLOWED_ORIGINS"},
	}
	otelEndpointFlag = &cli.StringFlag{
		Name:    "otel-endpoint",
		Usage:   "OTLP gRPC endpoint for metrics export (optional)",
		EnvVars: []string{"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"},
	}
	profilingFlag = &cli.BoolFlag{
		Name:    "enable-profiling",
		Usage:   "Expose pprof under /debug/pprof",
		EnvVars: []string{"ENABLE_PROFILING"},
	}
	checkModelsFlag = &cli.BoolFlag{
		Name:  "check-models",
		Usage: "Load both models, print their schemas and exit",
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:     name,
		Version:  fmt.Sprintf("%s - (commit: %s)", version, commit),
		Compiled: time.Now(),
		Usage:    "Serve academic score and risk predictions over HTTP",
		Flags: []cli.Flag{
			portFlag,
			modelDirFlag,
			regressorFileFlag,
			classifierFileFlag,
			logLevelFlag,
			ginModeFlag,
			redisAddrFlag,
			redisPasswordFlag,
			redisDBFlag,
			rateLimitFlag,
			cacheTTLFlag,
			cacheSizeFlag,
			historyDBFlag,
			historyRetentionFlag,
			allowedOriginsFlag,
			otelEndpointFlag,
			profilingFlag,
			checkModelsFlag,
		},
		Before: func(c *cli.Context) error {
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: monitoring.ParseLevel(c.String(logLevelFlag.Name)),
			}))
			slog.SetDefault(logger)
			return nil
		},
		Action: func(c *cli.Context) error {
			cfg := configFromContext(c)
			if c.Bool(checkModelsFlag.Name) {
				return checkModels(cfg, c.App.Writer)
			}
			return runServer(c.Context, cfg)
		},
	}
}

// exitCode separates bad configuration (missing or malformed models) from runtime failures
func exitCode(err error) int {
	if apperrors.IsCategory(err, apperrors.CategoryConfiguration) {
		return 2
	}
	return 1
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(exitCode(err))
	}
}
