package inference

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/boyangli/sentinelmap-dashboard/ingestion"
	"github.com/boyangli/sentinelmap-dashboard/models"
)

// Predictor is the prediction engine boundary: given a tile asset reference
// (e.g. "S1A_..._600C.tif") it returns that tile's detections in
// name, lat, lon, prediction, image order.
type Predictor interface {
	Predict(ctx context.Context, tileAsset string) (models.DetectionTable, error)
}

// PredictorFunc adapts a function to the Predictor interface
type PredictorFunc func(ctx context.Context, tileAsset string) (models.DetectionTable, error)

func (f PredictorFunc) Predict(ctx context.Context, tileAsset string) (models.DetectionTable, error) {
	return f(ctx, tileAsset)
}

// CSVPredictor serves precomputed prediction tables, one <tile>.csv per tile,
// from a results directory.
type CSVPredictor struct {
	dir string
}

// NewCSVPredictor creates a predictor reading tables from dir
func NewCSVPredictor(dir string) *CSVPredictor {
	return &CSVPredictor{dir: dir}
}

func (p *CSVPredictor) Predict(ctx context.Context, tileAsset string) (models.DetectionTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tile := strings.TrimSuffix(filepath.Base(tileAsset), filepath.Ext(tileAsset))
	return ingestion.NewCSVReader(filepath.Join(p.dir, tile+".csv")).ReadPredictions()
}
