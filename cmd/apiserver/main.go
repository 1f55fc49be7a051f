// API server entry point for the solar-potential selection service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KlotzJesse/solar-potential/internal/application/selection"
	"github.com/KlotzJesse/solar-potential/internal/config"
	"github.com/KlotzJesse/solar-potential/internal/domain/building"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/cache"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/geocoding"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/logging"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/prometheus"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/solarapi"
	httpserver "github.com/KlotzJesse/solar-potential/internal/interfaces/http"
	"github.com/KlotzJesse/solar-potential/internal/interfaces/http/handlers"
	"github.com/KlotzJesse/solar-potential/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

// Build-time variables injected via ldflags.
var (
	Version = "dev"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting solar-potential API server",
		logging.String("version", Version),
		logging.Int("port", cfg.Server.Port),
	)

	metrics := prometheus.New()

	// The selection gauge tracks the registry through its change callback.
	registry := building.NewRegistry(func(entries []*building.BuildingEntry) {
		metrics.SelectedBuildings.Set(float64(len(entries)))
	})

	ctx := context.Background()
	insightsCache := newInsightsCache(ctx, cfg, logger)

	provider := solarapi.NewClient(solarapi.Options{
		BaseURL:         cfg.Solar.BaseURL,
		APIKey:          cfg.Solar.APIKey,
		Timeout:         cfg.Solar.Timeout,
		RequiredQuality: cfg.Solar.RequiredQuality,
	}, logger, metrics)

	geocoder := geocoding.NewClient(geocoding.Options{
		BaseURL: cfg.Geocoding.BaseURL,
		APIKey:  cfg.Geocoding.APIKey,
		Timeout: cfg.Geocoding.Timeout,
		Region:  cfg.Geocoding.Region,
	}, logger, metrics)

	svc := selection.NewService(registry, geocoder, provider, insightsCache, selection.Config{
		ProximityThresholdDegrees: cfg.Selection.ProximityThresholdDegrees,
		DcToAcDerate:              cfg.Selection.DcToAcDerate,
		DefaultPanelCapacityWatts: cfg.Selection.DefaultPanelCapacityWatts,
	}, logger, metrics)

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.Server.CORSOrigins
	}

	routerCfg := httpserver.RouterConfig{
		BuildingHandler: handlers.NewBuildingHandler(svc, logger),
		HealthHandler:   handlers.NewHealthHandler(Version),
		CORS:            &cors,
		Logger:          logger,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = metrics
	}

	server := httpserver.NewServer(httpserver.NewRouter(routerCfg), httpserver.ServerOptions{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", logging.Err(err))
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", logging.Err(err))
	}
	logger.Info("server stopped")
}

// loadConfig falls back to environment-driven defaults when the config file
// does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config file %s not found, using environment and defaults\n", path)
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

// newInsightsCache returns the Redis-backed cache when an address is
// configured, with an in-process fallback so the server can run standalone.
func newInsightsCache(ctx context.Context, cfg *config.Config, logger logging.Logger) cache.InsightsCache {
	if cfg.Redis.Addr == "" {
		logger.Info("no redis address configured, using in-memory insights cache")
		return cache.NewMemoryCache(cfg.Redis.DefaultTTL)
	}
	redisCache, err := cache.NewRedisCache(ctx, cache.RedisOptions{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
		KeyPrefix:   cfg.Redis.KeyPrefix,
		TTL:         cfg.Redis.DefaultTTL,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory insights cache", logging.Err(err))
		return cache.NewMemoryCache(cfg.Redis.DefaultTTL)
	}
	logger.Info("insights cache backed by redis", logging.String("addr", cfg.Redis.Addr))
	return redisCache
}
