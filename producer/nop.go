package producer

import (
	"context"

	"github.com/boyangli/sentinelmap-dashboard/models"
)

// NopPublisher drops run events. Used when Kafka publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishRun(context.Context, *models.RunEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
