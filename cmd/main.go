package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"presencesim/internal/api"
	"presencesim/internal/clock"
	"presencesim/internal/daylight"
	"presencesim/internal/entry"
	"presencesim/internal/ha"
	"presencesim/internal/plugin"
	"presencesim/internal/states"

	// Plugins register themselves via init()
	_ "presencesim/internal/plugins/presence"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	defaultEntriesFile = "config/entries.yaml"
	defaultAPIPort     = 8081
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, using environment variables")
	}

	haURL := os.Getenv("HA_URL")
	haToken := os.Getenv("HA_TOKEN")
	readOnly := os.Getenv("READ_ONLY") == "true"
	entriesFile := envOr("ENTRIES_FILE", defaultEntriesFile)
	apiPort := envInt(logger, "API_PORT", defaultAPIPort)
	latitude := envFloat(logger, "LATITUDE", 0)
	longitude := envFloat(logger, "LONGITUDE", 0)

	if haURL == "" || haToken == "" {
		logger.Fatal("HA_URL and HA_TOKEN environment variables must be set")
	}
	if os.Getenv("LATITUDE") == "" || os.Getenv("LONGITUDE") == "" {
		logger.Warn("LATITUDE/LONGITUDE not set, defaulting to 0,0; only_when_dark will use the wrong sun times",
			zap.Float64("latitude", latitude),
			zap.Float64("longitude", longitude))
	}

	logger.Info("Starting Presence Simulator",
		zap.String("url", haURL),
		zap.Bool("read_only", readOnly),
		zap.String("entries_file", entriesFile))

	// Create HA client and connect
	client := ha.NewClient(haURL, haToken, logger)
	if err := client.Connect(); err != nil {
		logger.Fatal("Failed to connect to Home Assistant", zap.Error(err))
	}
	defer client.Disconnect()

	logger.Info("Connected to Home Assistant")

	// Load config entries
	store := entry.NewStore(entriesFile, logger)
	if err := store.Load(); err != nil {
		logger.Fatal("Failed to load config entries", zap.Error(err))
	}

	// Seed the entity state cache
	tracker := states.NewTracker(client, logger)
	if err := tracker.Sync("light", "automation", "input_boolean"); err != nil {
		logger.Fatal("Failed to sync entity states", zap.Error(err))
	}
	defer tracker.Stop()

	// Instantiate and start plugins
	ctx := &plugin.Context{
		HAClient: client,
		Entries:  store,
		States:   tracker,
		Clock:    clock.NewRealClock(),
		Daylight: daylight.NewCalculator(latitude, longitude, logger),
		Logger:   logger,
		ReadOnly: readOnly,
	}

	plugins, err := plugin.CreateAll(ctx)
	if err != nil {
		logger.Fatal("Failed to create plugins", zap.Error(err))
	}

	started := make([]plugin.Plugin, 0, len(plugins))
	for _, p := range plugins {
		if err := p.Start(); err != nil {
			logger.Error("Failed to start plugin",
				zap.String("plugin", p.Name()),
				zap.Error(err))
			continue
		}
		started = append(started, p)
		logger.Info("Plugin started", zap.String("plugin", p.Name()))
	}

	// Expose the status API; simulations come from the presence plugin if
	// it started
	var sims plugin.StatusProvider
	for _, p := range started {
		if sp, ok := p.(plugin.StatusProvider); ok {
			sims = sp
			break
		}
	}

	apiServer := api.NewServer(store, sims, logger, apiPort)
	if err := apiServer.Start(); err != nil {
		logger.Fatal("Failed to start API server", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Application running. Press Ctrl+C to exit.")
	<-sigChan

	logger.Info("Shutting down gracefully...")

	if err := apiServer.Stop(); err != nil {
		logger.Error("Failed to stop API server", zap.Error(err))
	}
	for i := len(started) - 1; i >= 0; i-- {
		started[i].Stop()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(logger *zap.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("Invalid integer environment variable, using default",
			zap.String("key", key),
			zap.String("value", v),
			zap.Int("default", fallback))
		return fallback
	}
	return n
}

func envFloat(logger *zap.Logger, key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn("Invalid float environment variable, using default",
			zap.String("key", key),
			zap.String("value", v),
			zap.Float64("default", fallback))
		return fallback
	}
	return f
}
