package config

// KafkaConfig holds Kafka connection configuration for run event publishing
type KafkaConfig struct {
	Enabled          bool
	BootstrapServers string `validate:"required_if=Enabled true"`
	SecurityProtocol string
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     string
	Topic            string `validate:"required_if=Enabled true"`
	CompressionType  string
	Acks             string
	MaxInFlight      int `validate:"min=1"`
	LingerMS         int `validate:"min=0"`
	BatchSize        int `validate:"min=1"`
}

// NewKafkaConfig creates a new Kafka configuration from environment variables.
// Publishing is off unless KAFKA_ENABLED is set.
func NewKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		Enabled:          getEnvBool("KAFKA_ENABLED", false),
		BootstrapServers: getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092"),
		SecurityProtocol: getEnv("KAFKA_SECURITY_PROTOCOL", "PLAINTEXT"),
		SASLMechanism:    getEnv("KAFKA_SASL_MECHANISM", "PLAIN"),
		SASLUsername:     getEnv("KAFKA_SASL_USERNAME", ""),
		SASLPassword:     getEnv("KAFKA_SASL_PASSWORD", ""),
		Topic:            getEnv("KAFKA_TOPIC", "sar-run-events"),
		CompressionType:  getEnv("KAFKA_COMPRESSION_TYPE", "snappy"),
		Acks:             getEnv("KAFKA_ACKS", "all"),
		MaxInFlight:      getEnvInt("KAFKA_MAX_IN_FLIGHT", 5),
		LingerMS:         getEnvInt("KAFKA_LINGER_MS", 10),
		BatchSize:        getEnvInt("KAFKA_BATCH_SIZE", 16384),
	}
}
