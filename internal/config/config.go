// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Classifier  ClassifierConfig
	Scoring     ScoringConfig
	Feedback    FeedbackConfig
	Decay       DecayConfig
	Pipeline    PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// ClassifierConfig holds trend classification configuration
type ClassifierConfig struct {
	FallbackTimeout  time.Duration
	DefaultGeography string
}

// ScoringConfig holds relevance scoring and slate selection configuration
type ScoringConfig struct {
	MinScore  float64
	SlateSize int
}

// FeedbackConfig holds affinity feedback loop configuration
type FeedbackConfig struct {
	Alpha          float64
	Lookback       time.Duration
	MinCorrelation float64
	BatchLimit     int
}

// DecayConfig holds affinity decay configuration
type DecayConfig struct {
	Staleness time.Duration
	Factor    float64
	Floor     float64
}

// PipelineConfig holds batch pipeline and scheduler configuration
type PipelineConfig struct {
	Workers          int
	RefreshInterval  time.Duration
	FeedbackInterval time.Duration
	DecayInterval    time.Duration
	EventsTopic      string
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "civicpulse"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Classifier: ClassifierConfig{
			FallbackTimeout:  getEnvAsDuration("CLASSIFIER_FALLBACK_TIMEOUT", 5*time.Second),
			DefaultGeography: getEnv("CLASSIFIER_DEFAULT_GEOGRAPHY", "US"),
		},
		Scoring: ScoringConfig{
			MinScore:  getEnvAsFloat("SCORING_MIN_SCORE", 30.0),
			SlateSize: getEnvAsInt("SCORING_SLATE_SIZE", 10),
		},
		Feedback: FeedbackConfig{
			Alpha:          getEnvAsFloat("FEEDBACK_ALPHA", 0.3),
			Lookback:       getEnvAsDuration("FEEDBACK_LOOKBACK", 7*24*time.Hour),
			MinCorrelation: getEnvAsFloat("FEEDBACK_MIN_CORRELATION", 0.3),
			BatchLimit:     getEnvAsInt("FEEDBACK_BATCH_LIMIT", 100),
		},
		Decay: DecayConfig{
			Staleness: getEnvAsDuration("DECAY_STALENESS", 30*24*time.Hour),
			Factor:    getEnvAsFloat("DECAY_FACTOR", 0.95),
			Floor:     getEnvAsFloat("DECAY_FLOOR", 0.3),
		},
		Pipeline: PipelineConfig{
			Workers:          getEnvAsInt("PIPELINE_WORKERS", 4),
			RefreshInterval:  getEnvAsDuration("PIPELINE_REFRESH_INTERVAL", 1*time.Hour),
			FeedbackInterval: getEnvAsDuration("PIPELINE_FEEDBACK_INTERVAL", 24*time.Hour),
			DecayInterval:    getEnvAsDuration("PIPELINE_DECAY_INTERVAL", 7*24*time.Hour),
			EventsTopic:      getEnv("PIPELINE_EVENTS_TOPIC", "relevance"),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Scoring.SlateSize <= 0 {
		return fmt.Errorf("slate size must be positive")
	}
	if config.Scoring.MinScore < 0 || config.Scoring.MinScore > 100 {
		return fmt.Errorf("minimum score must be within [0, 100]")
	}
	if config.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline worker count must be positive")
	}
	if config.Decay.Factor <= 0 || config.Decay.Factor >= 1 {
		return fmt.Errorf("decay factor must be within (0, 1)")
	}
	if config.Feedback.Alpha < 0 || config.Feedback.Alpha > 1 {
		return fmt.Errorf("feedback alpha must be within [0, 1]")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
