package producer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"

	"github.com/boyangli/sentinelmap-dashboard/config"
	"github.com/boyangli/sentinelmap-dashboard/logging"
	"github.com/boyangli/sentinelmap-dashboard/models"
)

// KafkaProducer publishes completed run events
type KafkaProducer struct {
	producer     *kafka.Producer
	config       *config.KafkaConfig
	deliveryChan chan kafka.Event
	log          zerolog.Logger

	// Metrics
	messagesSent   atomic.Int64
	messagesAcked  atomic.Int64
	messagesFailed atomic.Int64

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	maxRetries  int
	baseBackoff time.Duration
}

// NewKafkaProducer creates a new thread-safe Kafka producer
func NewKafkaProducer(cfg *config.KafkaConfig) (*KafkaProducer, error) {
	producerConfig := &kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
		"security.protocol": cfg.SecurityProtocol,

		"compression.type":                      cfg.CompressionType,
		"acks":                                  cfg.Acks,
		"max.in.flight.requests.per.connection": cfg.MaxInFlight,
		"linger.ms":                             cfg.LingerMS,
		"batch.size":                            cfg.BatchSize,

		"enable.idempotence":  true,
		"request.timeout.ms":  30000,
		"delivery.timeout.ms": 120000,
	}
	if cfg.SASLUsername != "" {
		producerConfig.SetKey("sasl.mechanism", cfg.SASLMechanism)
		producerConfig.SetKey("sasl.username", cfg.SASLUsername)
		producerConfig.SetKey("sasl.password", cfg.SASLPassword)
	}

	p, err := kafka.NewProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	kp := &KafkaProducer{
		producer:     p,
		config:       cfg,
		deliveryChan: make(chan kafka.Event, 1000),
		log:          logging.Component("producer"),
		ctx:          ctx,
		cancel:       cancel,
		maxRetries:   5,
		baseBackoff:  100 * time.Millisecond,
	}

	kp.wg.Add(1)
	go kp.handleDeliveryReports()

	kp.log.Info().Str("topic", cfg.Topic).Str("servers", cfg.BootstrapServers).Msg("✅ Kafka producer initialized")
	return kp, nil
}

// handleDeliveryReports processes delivery confirmations in a separate goroutine
func (kp *KafkaProducer) handleDeliveryReports() {
	defer kp.wg.Done()

	for {
		select {
		case <-kp.ctx.Done():
			return
		case e := <-kp.deliveryChan:
			m, ok := e.(*kafka.Message)
			if !ok {
				continue
			}

			if m.TopicPartition.Error != nil {
				kp.messagesFailed.Add(1)
				kp.log.Error().Err(m.TopicPartition.Error).Str("key", string(m.Key)).Msg("❌ Run event delivery failed")
			} else {
				kp.messagesAcked.Add(1)
				kp.log.Debug().Str("key", string(m.Key)).Int32("partition", m.TopicPartition.Partition).
					Str("offset", m.TopicPartition.Offset.String()).Msg("Run event delivered")
			}
		}
	}
}

// BuildMessage turns a run event into a Kafka message keyed by run ID
func BuildMessage(topic string, event *models.RunEvent) (*kafka.Message, error) {
	payload, err := event.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize run event: %w", err)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.RunID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "run_id", Value: []byte(event.RunID)},
			{Key: "date", Value: []byte(event.Date)},
		},
	}, nil
}

// PublishRun enqueues a run event, retrying retriable errors with exponential backoff
func (kp *KafkaProducer) PublishRun(ctx context.Context, event *models.RunEvent) error {
	message, err := BuildMessage(kp.config.Topic, event)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= kp.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := kp.baseBackoff * time.Duration(1<<uint(attempt-1))
			kp.log.Warn().Int("attempt", attempt).Int("max", kp.maxRetries).Dur("backoff", backoff).Msg("🔄 Retrying run event")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := kp.producer.Produce(message, kp.deliveryChan)
		if err == nil {
			kp.messagesSent.Add(1)
			return nil
		}
		lastErr = err

		var kafkaErr kafka.Error
		if errors.As(err, &kafkaErr) && !kafkaErr.IsRetriable() {
			return fmt.Errorf("non-retriable error: %w", err)
		}
	}

	kp.messagesFailed.Add(1)
	return fmt.Errorf("failed after %d retries: %w", kp.maxRetries, lastErr)
}

// Flush waits for all pending messages to be delivered
func (kp *KafkaProducer) Flush(timeout time.Duration) {
	remaining := kp.producer.Flush(int(timeout.Milliseconds()))
	if remaining > 0 {
		kp.log.Warn().Int("remaining", remaining).Msg("⚠️  Messages still in queue after flush timeout")
	}
}

// GetMetrics returns current producer metrics
func (kp *KafkaProducer) GetMetrics() map[string]int64 {
	return map[string]int64{
		"messages_sent":    kp.messagesSent.Load(),
		"messages_acked":   kp.messagesAcked.Load(),
		"messages_failed":  kp.messagesFailed.Load(),
		"messages_pending": kp.messagesSent.Load() - kp.messagesAcked.Load() - kp.messagesFailed.Load(),
	}
}

// Close flushes outstanding events and shuts the producer down
func (kp *KafkaProducer) Close() error {
	kp.log.Info().Msg("🛑 Shutting down Kafka producer...")

	kp.Flush(30 * time.Second)
	kp.cancel()
	kp.wg.Wait()
	kp.producer.Close()

	m := kp.GetMetrics()
	kp.log.Info().Int64("sent", m["messages_sent"]).Int64("acked", m["messages_acked"]).
		Int64("failed", m["messages_failed"]).Msg("✅ Kafka producer closed")
	return nil
}
