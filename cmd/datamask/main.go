// datamask server: serves database records and external API data with
// sensitive fields masked, over HTTP or as an MCP server on stdio.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/codeready-toolchain/datamask/pkg/api"
	"github.com/codeready-toolchain/datamask/pkg/cleanup"
	"github.com/codeready-toolchain/datamask/pkg/config"
	"github.com/codeready-toolchain/datamask/pkg/database"
	"github.com/codeready-toolchain/datamask/pkg/datasource"
	"github.com/codeready-toolchain/datamask/pkg/masking"
	"github.com/codeready-toolchain/datamask/pkg/mcp"
	"github.com/codeready-toolchain/datamask/pkg/metrics"
	"github.com/codeready-toolchain/datamask/pkg/version"
)

const (
	modeHTTP = "http"
	modeMCP  = "mcp"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupLogging installs a JSON handler on stderr. stdout is reserved for
// the MCP protocol in stdio mode.
func setupLogging() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	// Parse command-line flags
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	mode := flag.String("mode",
		getEnv("DATAMASK_MODE", modeHTTP),
		"Serving mode: http or mcp (stdio)")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	envErr := godotenv.Load(envPath)

	setupLogging()
	if envErr != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", envErr)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	*mode = strings.ToLower(strings.TrimSpace(*mode))
	if *mode != modeHTTP && *mode != modeMCP {
		slog.Error("Unknown mode", "mode", *mode)
		os.Exit(2)
	}

	httpPort := getEnv("HTTP_PORT", "8080")

	slog.Info("Starting datamask",
		"version", version.Full(),
		"mode", *mode,
		"config_dir", *configDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 1. Initialize configuration
	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize database
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	// 3. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(dbClient.DB(), dbConfig.Database),
	)
	m := metrics.New(registry)

	// 4. Masking engine and data service
	engine := masking.NewEngineFromConfig(cfg.Masking, masking.WithObserver(m))
	dataService := datasource.NewService(
		datasource.NewRecordStore(dbClient.DB(), cfg.DataSource),
		datasource.NewUpstreamClient(cfg.Upstream),
		engine,
		cfg.Upstream.CacheTTL,
	)
	slog.Info("Services initialized", "tables", dataService.Tables())

	cacheCleanup := cleanup.NewService(dataService, cfg.Upstream.CacheTTL)
	cacheCleanup.Start(ctx)
	defer cacheCleanup.Stop()

	// 5. Serve
	if *mode == modeMCP {
		if err := mcp.NewServer(dataService, m).RunStdio(ctx); err != nil && ctx.Err() == nil {
			slog.Error("MCP server error", "error", err)
			os.Exit(1)
		}
		slog.Info("Shutdown complete")
		return
	}

	httpServer := api.NewServer(dataService, api.DatabaseHealth(dbClient), m, cfg.Stats())

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(":" + httpPort); err != nil {
			errCh <- err
		}
	}()

	slog.Info("datamask started successfully", "http_port", httpPort)

	// 6. Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 7. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
