package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all dashboard configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Data        DataConfig
	Predictor   PredictorConfig
	Map         MapConfig
	Log         LogConfig
	Kafka       *KafkaConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DataConfig locates the static input tables and image assets
type DataConfig struct {
	TimestampFile string `validate:"required"`
	AISFile       string
	ImageDir      string
	AISWindow     time.Duration `validate:"min=0"`
}

// PredictorConfig selects and tunes the prediction collaborator
type PredictorConfig struct {
	// Mode is "csv" (precomputed per-tile result tables) or "http" (model service)
	Mode       string `validate:"oneof=csv http"`
	ResultsDir string `validate:"required_if=Mode csv"`
	URL        string `validate:"omitempty,url"`
	Timeout    time.Duration
	Workers    int `validate:"min=1,max=64"`

	// BreakerFailures is the number of consecutive failures that opens the circuit
	BreakerFailures uint32 `validate:"min=1"`
	BreakerTimeout  time.Duration
}

// MapConfig is the base map view used when nothing has been run yet
type MapConfig struct {
	CenterLat float64 `validate:"gte=-90,lte=90"`
	CenterLon float64 `validate:"gte=-180,lte=180"`
	Zoom      float64 `validate:"gte=0,lte=22"`
	Style     string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string `validate:"oneof=json console"`
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8050),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Minute),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Data: DataConfig{
			TimestampFile: getEnv("TIMESTAMP_FILE", "data/timestamps_sar_images.csv"),
			AISFile:       getEnv("AIS_FILE", "data/ais_datalastic_filtered.csv"),
			ImageDir:      getEnv("IMAGE_DIR", "data/results"),
			AISWindow:     getEnvDuration("AIS_WINDOW", 45*time.Minute),
		},
		Predictor: PredictorConfig{
			Mode:            getEnv("PREDICTOR_MODE", "csv"),
			ResultsDir:      getEnv("PREDICTOR_RESULTS_DIR", "results"),
			URL:             getEnv("PREDICTOR_URL", ""),
			Timeout:         getEnvDuration("PREDICTOR_TIMEOUT", 5*time.Minute),
			Workers:         getEnvInt("PREDICTOR_WORKERS", 1),
			BreakerFailures: uint32(getEnvInt("PREDICTOR_BREAKER_FAILURES", 3)),
			BreakerTimeout:  getEnvDuration("PREDICTOR_BREAKER_TIMEOUT", time.Minute),
		},
		Map: MapConfig{
			CenterLat: getEnvFloat("MAP_CENTER_LAT", 36.53353),
			CenterLon: getEnvFloat("MAP_CENTER_LON", 22.721728),
			Zoom:      getEnvFloat("MAP_ZOOM", 9),
			Style:     getEnv("MAP_STYLE", "carto-positron"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Kafka: NewKafkaConfig(),
	}

	return cfg, Validate(cfg)
}

// Validate checks struct constraints on every section
func Validate(cfg Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Predictor.Mode == "http" && cfg.Predictor.URL == "" {
		return fmt.Errorf("invalid configuration: PREDICTOR_URL is required when PREDICTOR_MODE=http")
	}
	return nil
}

// Addr returns the host:port listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
