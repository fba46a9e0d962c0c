package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/boyangli/sentinelmap-dashboard/config"
	"github.com/boyangli/sentinelmap-dashboard/logging"
	"github.com/boyangli/sentinelmap-dashboard/metrics"
	"github.com/boyangli/sentinelmap-dashboard/models"
)

const breakerName = "predictor"

// predictRequest is the body posted to the model service
type predictRequest struct {
	Image string `json:"image"`
}

// HTTPPredictor calls a remote model service, one POST per tile, behind a
// circuit breaker. While the circuit is open calls fail fast with
// gobreaker.ErrOpenState, which fails the run like any other tile error.
type HTTPPredictor struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[models.DetectionTable]
	log    zerolog.Logger
}

// NewHTTPPredictor creates a remote predictor from configuration
func NewHTTPPredictor(cfg config.PredictorConfig) *HTTPPredictor {
	log := logging.Component("predictor")
	metrics.PredictorBreakerState.WithLabelValues(breakerName).Set(0)

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}

	cb := gobreaker.NewCircuitBreaker[models.DetectionTable](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.PredictorBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// A run cancelled by a newer run says nothing about the service's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &HTTPPredictor{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		cb:     cb,
		log:    log,
	}
}

// Predict posts the tile asset to the model service
func (p *HTTPPredictor) Predict(ctx context.Context, tileAsset string) (models.DetectionTable, error) {
	return p.cb.Execute(func() (models.DetectionTable, error) {
		return p.call(ctx, tileAsset)
	})
}

// State exposes the breaker state for health reporting
func (p *HTTPPredictor) State() gobreaker.State {
	return p.cb.State()
}

func (p *HTTPPredictor) call(ctx context.Context, tileAsset string) (models.DetectionTable, error) {
	body, err := json.Marshal(predictRequest{Image: tileAsset})
	if err != nil {
		return nil, fmt.Errorf("failed to encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request for %s: %w", tileAsset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("predict request for %s: status %d: %s", tileAsset, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var table models.DetectionTable
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("failed to decode predictions for %s: %w", tileAsset, err)
	}
	if table == nil {
		table = models.DetectionTable{}
	}

	p.log.Debug().Str("asset", tileAsset).Int("detections", len(table)).Dur("elapsed", time.Since(start)).Msg("Remote prediction complete")
	return table, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
