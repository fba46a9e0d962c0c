package producer

import (
	"context"
	"testing"
	"time"

	"github.com/boyangli/sentinelmap-dashboard/models"
)

func TestBuildMessage(t *testing.T) {
	event := &models.RunEvent{
		RunID:       "6f1c2a9e-run",
		Date:        "2023-02-15",
		Tiles:       []string{"tile_a"},
		Detections:  models.DetectionTable{{Name: "ship_1", Lat: 36.5, Lon: 22.7, Prediction: 1, Image: "a.png"}},
		CompletedAt: time.Now(),
	}

	msg, err := BuildMessage("sar-run-events", event)
	if err != nil {
		t.Fatalf("BuildMessage failed: %v", err)
	}

	if *msg.TopicPartition.Topic != "sar-run-events" {
		t.Errorf("Expected topic sar-run-events, got %s", *msg.TopicPartition.Topic)
	}
	if string(msg.Key) != "6f1c2a9e-run" {
		t.Errorf("Expected key to be the run ID, got %s", msg.Key)
	}

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["date"] != "2023-02-15" || headers["run_id"] != "6f1c2a9e-run" {
		t.Errorf("Unexpected headers %v", headers)
	}

	parsed, err := models.RunEventFromJSON(msg.Value)
	if err != nil {
		t.Fatalf("Message value is not a run event: %v", err)
	}
	if len(parsed.Detections) != 1 || parsed.Detections[0].Image != "a.png" {
		t.Errorf("Unexpected detections in payload: %+v", parsed.Detections)
	}
}

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	if err := p.PublishRun(context.Background(), &models.RunEvent{}); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}
