package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"casebrain-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Chunking
	ChunkMaxTokens     int `envconfig:"CHUNK_MAX_TOKENS" default:"800"`
	ChunkOverlapTokens int `envconfig:"CHUNK_OVERLAP_TOKENS" default:"100"`

	// Search and retrieval
	SearchTopK        int     `envconfig:"SEARCH_TOP_K" default:"5"`
	SearchMinScore    float64 `envconfig:"SEARCH_MIN_SCORE" default:"0.7"`
	RetrieveTopK      int     `envconfig:"RETRIEVE_TOP_K" default:"10"`
	RetrieveMaxTokens int     `envconfig:"RETRIEVE_MAX_TOKENS" default:"2000"`

	// Bulk indexing
	BulkBatchSize int           `envconfig:"BULK_BATCH_SIZE" default:"5"`
	BulkCooldown  time.Duration `envconfig:"BULK_COOLDOWN" default:"2s"`

	// Documents stuck in 'indexing' longer than this are reset to pending
	IndexingLease time.Duration `envconfig:"INDEXING_LEASE" default:"10m"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CASEBRAIN", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
