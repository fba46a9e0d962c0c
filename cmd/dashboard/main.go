package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/boyangli/sentinelmap-dashboard/config"
	"github.com/boyangli/sentinelmap-dashboard/dateindex"
	"github.com/boyangli/sentinelmap-dashboard/inference"
	"github.com/boyangli/sentinelmap-dashboard/ingestion"
	"github.com/boyangli/sentinelmap-dashboard/logging"
	"github.com/boyangli/sentinelmap-dashboard/models"
	"github.com/boyangli/sentinelmap-dashboard/producer"
	"github.com/boyangli/sentinelmap-dashboard/render"
	"github.com/boyangli/sentinelmap-dashboard/server"
	"github.com/boyangli/sentinelmap-dashboard/session"
)

// publisher is what main needs from a run event sink
type publisher interface {
	session.Publisher
	Close() error
}

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if envErr != nil {
		logging.Warn().Msg("⚠️  No .env file found, using environment variables")
	}

	logging.Info().
		Str("environment", cfg.Environment).
		Str("addr", cfg.Server.Addr()).
		Str("predictor", cfg.Predictor.Mode).
		Int("workers", cfg.Predictor.Workers).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("🛰️  Starting SentinelMap dashboard")

	index := loadIndex(cfg.Data.TimestampFile)
	aisRecords := loadAIS(cfg.Data.AISFile)

	var predictor inference.Predictor
	switch cfg.Predictor.Mode {
	case "http":
		predictor = inference.NewHTTPPredictor(cfg.Predictor)
	default:
		predictor = inference.NewCSVPredictor(cfg.Predictor.ResultsDir)
	}
	orchestrator := inference.NewOrchestrator(index, predictor, inference.WithWorkers(cfg.Predictor.Workers))

	var pub publisher = producer.NopPublisher{}
	if cfg.Kafka.Enabled {
		kp, err := producer.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			logging.Fatal().Err(err).Msg("❌ Failed to create Kafka producer")
		}
		pub = kp
	}

	sess := session.New(session.Deps{
		Index:     index,
		Runner:    orchestrator,
		Renderer:  render.NewRenderer(render.Coordinate{Lat: cfg.Map.CenterLat, Lon: cfg.Map.CenterLon}, cfg.Map.Zoom, cfg.Map.Style),
		Publisher: pub,
		AIS:       aisRecords,
		AISWindow: cfg.Data.AISWindow,
	})

	srv := server.NewServer(cfg.Server, sess, cfg.Data.ImageDir)

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr()).Msg("🌐 HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logging.Info().Str("signal", sig.String()).Msg("🛑 Received shutdown signal")
	case err := <-serverErr:
		logging.Error().Err(err).Msg("❌ HTTP server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("❌ HTTP server shutdown failed")
	}
	if err := pub.Close(); err != nil {
		logging.Error().Err(err).Msg("❌ Failed to close run event publisher")
	}
	logging.Info().Msg("👋 Shutdown complete")
}

// loadIndex builds the date index. A missing or empty timestamp table leaves
// the dashboard running with navigation disabled.
func loadIndex(path string) *dateindex.Index {
	start := time.Now()
	rows, err := ingestion.NewCSVReader(path).ReadTimestamps()
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("⚠️  Failed to read timestamp table, navigation disabled")
		return nil
	}

	index, err := dateindex.Build(rows)
	if errors.Is(err, dateindex.ErrEmptyIndex) {
		logging.Warn().Str("path", path).Msg("⚠️  Timestamp table is empty, navigation disabled")
		return nil
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Failed to build date index")
	}

	logging.Info().
		Int("dates", index.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("✅ Date index ready")
	return index
}

// loadAIS reads the optional AIS table
func loadAIS(path string) []models.AISRecord {
	if path == "" {
		return nil
	}
	records, err := ingestion.NewCSVReader(path).ReadAIS()
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("⚠️  AIS overlay unavailable")
		return nil
	}
	return records
}
