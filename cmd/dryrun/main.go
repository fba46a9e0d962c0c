package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/boyangli/sentinelmap-dashboard/dateindex"
	"github.com/boyangli/sentinelmap-dashboard/inference"
	"github.com/boyangli/sentinelmap-dashboard/ingestion"
	"github.com/boyangli/sentinelmap-dashboard/logging"
	"github.com/boyangli/sentinelmap-dashboard/models"
)

// One offline run over precomputed results, without Kafka or HTTP
func main() {
	_ = godotenv.Load()

	timestamps := flag.String("timestamps", "data/timestamps.csv", "Path to the SAR timestamp table")
	results := flag.String("results", "data/results", "Directory holding <tile>.csv prediction tables")
	date := flag.String("date", "", "Acquisition date to run (defaults to the first date)")
	workers := flag.Int("workers", 1, "Tiles predicted concurrently")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: "console", Output: os.Stderr})

	rows, err := ingestion.NewCSVReader(*timestamps).ReadTimestamps()
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Failed to read timestamp table")
	}
	index, err := dateindex.Build(rows)
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Failed to build date index")
	}

	if *date == "" {
		*date = index.Dates()[0]
	}
	if !index.Contains(*date) {
		logging.Fatal().Str("date", *date).Strs("dates", index.Dates()).Msg("❌ Date not in timestamp table")
	}
	tiles, _ := index.Tiles(*date)

	logging.Info().
		Str("date", *date).
		Strs("tiles", tiles).
		Str("results", *results).
		Int("workers", *workers).
		Msg("🧪 Dry run")

	orchestrator := inference.NewOrchestrator(index, inference.NewCSVPredictor(*results), inference.WithWorkers(*workers))

	start := time.Now()
	table, err := orchestrator.Run(context.Background(), *date)
	var failure *inference.InferenceFailure
	switch {
	case errors.As(err, &failure):
		logging.Fatal().Str("tile", failure.Tile).Err(failure.Cause).Msg("❌ Run failed")
	case err != nil:
		logging.Fatal().Err(err).Msg("❌ Run failed")
	}

	event := &models.RunEvent{
		RunID:       uuid.NewString(),
		Date:        *date,
		Tiles:       tiles,
		Detections:  table,
		CompletedAt: time.Now().UTC(),
	}
	out, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Failed to encode run event")
	}
	fmt.Println(string(out))

	logging.Info().
		Int("detections", len(table)).
		Dur("elapsed", time.Since(start)).
		Msg("✅ Dry run complete")
}
