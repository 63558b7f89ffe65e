// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Env               string
	HTTPAddr          string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration

	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBAutoMigrate     bool

	BarcodeAPIURL    string
	BarcodeAppCode   string
	BarcodeCacheSize int
	BarcodeCacheTTL  time.Duration

	OCREndpoint  string
	OCRRegion    string
	OCRSecretID  string
	OCRSecretKey string

	UpstreamTimeout time.Duration

	RabbitMQURI     string
	SalesQueue      string
	ConsumerWorkers int
}

const (
	defaultEnv               = "development"
	defaultHTTPAddr          = ":8080"
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second

	defaultDBMaxOpenConns    = 10
	defaultDBMaxIdleConns    = 5
	defaultDBConnMaxLifetime = time.Hour

	defaultBarcodeAPIURL    = "https://jmbarcode.market.alicloudapi.com/barcode"
	defaultBarcodeCacheSize = 500
	defaultBarcodeCacheTTL  = 24 * time.Hour

	defaultOCREndpoint = "ocr.tencentcloudapi.com"
	defaultOCRRegion   = "ap-guangzhou"

	defaultUpstreamTimeout = 10 * time.Second

	defaultSalesQueue      = "sales"
	defaultConsumerWorkers = 4
)

// LoadDotEnv reads the given files into the process environment.
// Variables already set win; missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration values for the API server, applying defaults where necessary.
func Load() (Config, error) {
	cfg := fromEnv()

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.BarcodeCacheSize < 1 {
		return Config{}, fmt.Errorf("BARCODE_CACHE_SIZE must be positive, got %d", cfg.BarcodeCacheSize)
	}

	return cfg, nil
}

// LoadConsumer reads configuration for the sales event consumer.
func LoadConsumer() (Config, error) {
	cfg := fromEnv()

	if cfg.RabbitMQURI == "" {
		return Config{}, fmt.Errorf("RABBITMQ_URI is required")
	}

	return cfg, nil
}

func fromEnv() Config {
	cfg := Config{
		Env:               getEnv("APP_ENV", defaultEnv),
		HTTPAddr:          getEnv("HTTP_ADDR", defaultHTTPAddr),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		ReadHeaderTimeout: getDuration("READ_HEADER_TIMEOUT", defaultReadHeaderTimeout),

		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", defaultDBMaxOpenConns),
		DBMaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", defaultDBMaxIdleConns),
		DBConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", defaultDBConnMaxLifetime),
		DBAutoMigrate:     getBool("DB_AUTO_MIGRATE", true),

		BarcodeAPIURL:    getEnv("BARCODE_API_URL", defaultBarcodeAPIURL),
		BarcodeAppCode:   os.Getenv("BARCODE_APP_CODE"),
		BarcodeCacheSize: getInt("BARCODE_CACHE_SIZE", defaultBarcodeCacheSize),
		BarcodeCacheTTL:  getDuration("BARCODE_CACHE_TTL", defaultBarcodeCacheTTL),

		OCREndpoint:  getEnv("OCR_ENDPOINT", defaultOCREndpoint),
		OCRRegion:    getEnv("OCR_REGION", defaultOCRRegion),
		OCRSecretID:  os.Getenv("OCR_SECRET_ID"),
		OCRSecretKey: os.Getenv("OCR_SECRET_KEY"),

		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", defaultUpstreamTimeout),

		RabbitMQURI:     os.Getenv("RABBITMQ_URI"),
		SalesQueue:      getEnv("SALES_QUEUE", defaultSalesQueue),
		ConsumerWorkers: getInt("CONSUMER_WORKERS", defaultConsumerWorkers),
	}

	if cfg.ConsumerWorkers < 1 {
		cfg.ConsumerWorkers = 1
	}
	return cfg
}

func getEnv(key string, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
