// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Server configuration defaults
const (
	// DefaultPort is the default HTTP listen port
	DefaultPort = "8080"
	// DefaultBucket is the default object store bucket
	DefaultBucket = "mapgen"
)

// Broker holds the RabbitMQ connection settings and the queue names for the
// three logical channels.
type Broker struct {
	URL           string
	ConfigQueue   string
	ResultsQueue  string
	ProgressQueue string
}

// Store holds the MinIO object store settings.
type Store struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Database holds the Postgres connection settings.
type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Config is the full service configuration.
type Config struct {
	Port       string
	APIBaseURL string
	Broker     Broker
	Store      Store
	Database   Database
}

// GetEnv retrieves the value of an environment variable with a fallback value
// if not set.
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Load reads the configuration from the environment. The broker URL and the
// object store endpoint are required; a missing value is a startup failure.
func Load() (*Config, error) {
	brokerURL := os.Getenv("RABBITMQ_URL")
	if brokerURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required")
	}

	storeEndpoint := os.Getenv("MINIO_ENDPOINT")
	if storeEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required")
	}

	dbPort, err := strconv.Atoi(GetEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	port := GetEnv("PORT", DefaultPort)

	return &Config{
		Port:       port,
		APIBaseURL: GetEnv("API_BASE_URL", "http://localhost:"+port),
		Broker: Broker{
			URL:           brokerURL,
			ConfigQueue:   GetEnv("CONFIG_QUEUE", "config_queue"),
			ResultsQueue:  GetEnv("RESULTS_QUEUE", "results_queue"),
			ProgressQueue: GetEnv("PROGRESS_QUEUE", "progress_queue"),
		},
		Store: Store{
			Endpoint:  storeEndpoint,
			AccessKey: GetEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: GetEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    GetEnv("MINIO_BUCKET", DefaultBucket),
			UseSSL:    GetEnv("MINIO_USE_SSL", "false") == "true",
		},
		Database: Database{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     GetEnv("DB_USER", "postgres"),
			Password: GetEnv("DB_PASSWORD", "postgres"),
			DBName:   GetEnv("DB_NAME", "mapgen"),
		},
	}, nil
}
