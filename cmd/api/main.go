package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bikewatch.bluebikes.org/internal/app"
	"bikewatch.bluebikes.org/internal/appconf"
	"bikewatch.bluebikes.org/internal/feeds"
	"bikewatch.bluebikes.org/internal/logging"
	"bikewatch.bluebikes.org/internal/mapengine"
	"bikewatch.bluebikes.org/internal/restapi"
)

// initTimeout bounds the initial feed download.
const initTimeout = 2 * time.Minute

// parseConfig reads the command line. Environment variables loaded from
// .env files supply the access token and act as flag defaults.
func parseConfig(args []string, getenv func(string) string) (appconf.Config, error) {
	var cfg appconf.Config
	var env, corsOrigins string

	defaults := mapengine.DefaultOptions()
	fs := flag.NewFlagSet("bikewatch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.IntVar(&cfg.Port, "port", 4000, "API server port")
	fs.StringVar(&env, "env", "development", "Environment (development|test|production)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	fs.IntVar(&cfg.RateLimit, "rate-limit", 100, "Event requests per second per client (negative disables)")
	fs.StringVar(&cfg.StationsURL, "stations-url", envOr(getenv, "STATIONS_URL", appconf.DefaultStationsURL), "Station feed URL or file path")
	fs.StringVar(&cfg.TripsURL, "trips-url", envOr(getenv, "TRIPS_URL", appconf.DefaultTripsURL), "Trip CSV URL or file path")
	fs.StringVar(&cfg.BostonURL, "boston-url", appconf.DefaultBostonURL, "Boston bike lane GeoJSON URL")
	fs.StringVar(&cfg.CambridgeURL, "cambridge-url", appconf.DefaultCambridgeURL, "Cambridge bike lane GeoJSON URL")
	fs.Float64Var(&cfg.MapCenterLon, "center-lon", defaults.Center[0], "Initial map center longitude")
	fs.Float64Var(&cfg.MapCenterLat, "center-lat", defaults.Center[1], "Initial map center latitude")
	fs.Float64Var(&cfg.MapZoom, "zoom", defaults.Zoom, "Initial map zoom")
	fs.StringVar(&cfg.MapStyle, "style", defaults.Style, "Map style URL")
	fs.BoolVar(&cfg.UseTripIndex, "trip-index", false, "Answer slider windows from an in-memory SQLite index")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Rate limit by X-Forwarded-For (only behind a reverse proxy)")
	fs.StringVar(&corsOrigins, "cors-origins", getenv("CORS_ORIGINS"), "Comma separated origins allowed to call the API")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}

	cfg.Env = appconf.EnvFlagToEnvironment(env)
	cfg.CORSOrigins = appconf.SplitList(corsOrigins)
	cfg.AccessToken = getenv("MAPBOX_ACCESS_TOKEN")
	return cfg, nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	loaded := appconf.LoadEnvFiles()

	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	if len(loaded) > 0 {
		logging.LogOperation(logger, "env_files_loaded", slog.Any("files", loaded))
	}
	if cfg.AccessToken == "" {
		logger.Warn("MAPBOX_ACCESS_TOKEN is not set, the page will not load map tiles")
	}

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

func run(cfg appconf.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger, feeds.NewLoader(nil, logger))
	if err != nil {
		return err
	}
	defer application.Close()

	go func() {
		if err := application.Hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.LogError(logger, "websocket hub stopped", err)
		}
	}()

	// The server has no browser map to wait for, so the engine is loaded
	// as soon as the layers can be added.
	application.Camera.Load()

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	err = application.Session.Init(initCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("loading station traffic: %w", err)
	}

	api := restapi.NewRestAPI(application)
	defer api.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env.String())
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
