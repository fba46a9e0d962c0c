package inference

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/boyangli/sentinelmap-dashboard/config"
)

func predictorConfig(url string) config.PredictorConfig {
	return config.PredictorConfig{
		Mode:            "http",
		URL:             url,
		Timeout:         5 * time.Second,
		Workers:         1,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}
}

func TestHTTPPredictorDecodesRows(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"ship_1","lat":36.5,"lon":22.7,"prediction":0.92,"image":"img/ship_1.png"}]`))
	}))
	defer srv.Close()

	p := NewHTTPPredictor(predictorConfig(srv.URL))
	table, err := p.Predict(context.Background(), "tile_a.tif")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if !strings.Contains(gotBody, `"image":"tile_a.tif"`) {
		t.Errorf("Expected request to carry the tile asset, got %s", gotBody)
	}
	if len(table) != 1 || table[0].Prediction != 0.92 || table[0].Image != "img/ship_1.png" {
		t.Errorf("Unexpected table %+v", table)
	}
}

func TestHTTPPredictorEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	table, err := NewHTTPPredictor(predictorConfig(srv.URL)).Predict(context.Background(), "t.tif")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if table == nil || len(table) != 0 {
		t.Errorf("Expected empty non-nil table, got %v", table)
	}
}

func TestHTTPPredictorOpensCircuit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPPredictor(predictorConfig(srv.URL))
	for i := 0; i < 2; i++ {
		_, err := p.Predict(context.Background(), "t.tif")
		if err == nil || !strings.Contains(err.Error(), "status 500") {
			t.Fatalf("Expected status 500 error, got %v", err)
		}
	}

	if p.State() != gobreaker.StateOpen {
		t.Fatalf("Expected open circuit after 2 failures, got %v", p.State())
	}
	if _, err := p.Predict(context.Background(), "t.tif"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected ErrOpenState, got %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("Expected open circuit to short-circuit the call, server saw %d hits", hits.Load())
	}
}

func TestHTTPPredictorCancellationDoesNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := NewHTTPPredictor(predictorConfig(srv.URL))
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		cancel()
		p.Predict(ctx, "t.tif")
	}
	if p.State() != gobreaker.StateClosed {
		t.Errorf("Expected cancelled calls to leave the circuit closed, got %v", p.State())
	}
}
