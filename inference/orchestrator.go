// Package inference runs the prediction engine over every tile of an
// acquisition date and concatenates the per-tile results into one table.
package inference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/boyangli/sentinelmap-dashboard/dateindex"
	"github.com/boyangli/sentinelmap-dashboard/logging"
	"github.com/boyangli/sentinelmap-dashboard/metrics"
	"github.com/boyangli/sentinelmap-dashboard/models"
)

// TileAsset returns the asset reference handed to the predictor for a tile
func TileAsset(tile string) string {
	return tile + ".tif"
}

// Orchestrator fans a run out over a date's tiles and fans the results back in.
// It keeps no state between runs and never caches predictions.
type Orchestrator struct {
	index     *dateindex.Index
	predictor Predictor
	workers   int
	log       zerolog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithWorkers sets how many tiles are predicted concurrently (default 1)
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// NewOrchestrator creates an orchestrator over an immutable date index
func NewOrchestrator(index *dateindex.Index, predictor Predictor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		index:     index,
		predictor: predictor,
		workers:   1,
		log:       logging.Component("inference"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run predicts every tile of date and concatenates the tables in lexicographic
// tile order, each tile's rows in the order the predictor returned them.
//
// The run is all-or-nothing: the first failing tile cancels the remaining work
// and is reported as *InferenceFailure. A date unknown to the index yields an
// empty table together with ErrUnresolvedDate.
func (o *Orchestrator) Run(ctx context.Context, date string) (models.DetectionTable, error) {
	start := time.Now()

	tiles, ok := o.index.Tiles(date)
	if !ok {
		metrics.RunsTotal.WithLabelValues("unresolved").Inc()
		return models.DetectionTable{}, fmt.Errorf("%w: %q", ErrUnresolvedDate, date)
	}
	if len(tiles) == 0 {
		return models.DetectionTable{}, nil
	}

	o.log.Info().Str("date", date).Int("tiles", len(tiles)).Int("workers", o.workers).Msg("🚀 Starting inference run")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]models.DetectionTable, len(tiles))
	jobs := make(chan int, len(tiles))

	var (
		failOnce sync.Once
		failure  error
	)

	workerCount := min(o.workers, len(tiles))
	var workerWg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		workerWg.Add(1)
		go func(workerID int) {
			defer workerWg.Done()
			for idx := range jobs {
				if runCtx.Err() != nil {
					continue
				}
				table, err := o.predictTile(runCtx, tiles[idx])
				if err != nil {
					failOnce.Do(func() {
						failure = &InferenceFailure{Tile: tiles[idx], Cause: err}
						cancel()
					})
					continue
				}
				results[idx] = table
			}
		}(i)
	}

	for idx := range tiles {
		jobs <- idx
	}
	close(jobs)
	workerWg.Wait()

	if err := ctx.Err(); err != nil {
		metrics.RunsTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("inference run for %q cancelled: %w", date, err)
	}
	if failure != nil {
		metrics.RunsTotal.WithLabelValues("failure").Inc()
		o.log.Error().Err(failure).Str("date", date).Msg("❌ Inference run failed")
		return nil, failure
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	table := make(models.DetectionTable, 0, total)
	for _, r := range results {
		table = append(table, r...)
	}

	elapsed := time.Since(start)
	metrics.RunsTotal.WithLabelValues("success").Inc()
	metrics.RunDuration.Observe(elapsed.Seconds())
	o.log.Info().Str("date", date).Int("detections", len(table)).Dur("elapsed", elapsed).Msg("✅ Inference run complete")
	return table, nil
}

func (o *Orchestrator) predictTile(ctx context.Context, tile string) (models.DetectionTable, error) {
	asset := TileAsset(tile)
	o.log.Debug().Str("asset", asset).Msg("Predictions on tile")

	start := time.Now()
	table, err := o.predictor.Predict(ctx, asset)
	if err == nil {
		err = table.Validate()
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.TilePredictionDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return table, err
}
