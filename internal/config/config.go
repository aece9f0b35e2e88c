package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"aurora-dataapi/internal/dataapi"
	"aurora-dataapi/internal/typecast"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// AppEnv is the running environment (development/production).
	AppEnv string
	// Dialect selects the database family behind the Data API: "mysql" or "postgres".
	Dialect string
	// Port is the nominal database port; zero lets the dialect pick its default.
	Port int
	// AWSRegion is the region of the Aurora cluster and the S3 bucket.
	AWSRegion string
	// DataAPIEndpoint overrides the Data API endpoint (local emulators).
	DataAPIEndpoint string
	SecretArn       string
	ResourceArn     string
	Database        string
	Schema          string
	// Timezone is applied to naive DATETIME/TIMESTAMP values.
	Timezone string
	// DecimalNumbers decodes DECIMAL columns as float64.
	DecimalNumbers bool
	// WorkerCount is the number of concurrent export jobs allowed.
	WorkerCount int
	// MaxStatementConcurrency caps in-flight Data API statements across workers.
	MaxStatementConcurrency int64
	// DefaultTimeout is the maximum duration for an export job.
	DefaultTimeout time.Duration
	// StorageType determines where to save exports: "local" or "s3".
	StorageType      string
	LocalStoragePath string
	S3Bucket         string
	// S3Endpoint is an optional custom endpoint for non-AWS S3 providers.
	S3Endpoint  string
	S3PathStyle bool
	// Compression gzips exports.
	Compression bool
}

func Load() *Config {
	return &Config{
		AppEnv:                  getEnv("APP_ENV", "development"),
		Dialect:                 strings.ToLower(getEnv("DATAAPI_DIALECT", "mysql")),
		Port:                    getEnvInt("DATAAPI_PORT", 0),
		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
		DataAPIEndpoint:         getEnv("DATAAPI_ENDPOINT", ""),
		SecretArn:               getEnv("DATAAPI_SECRET_ARN", ""),
		ResourceArn:             getEnv("DATAAPI_RESOURCE_ARN", ""),
		Database:                getEnv("DATAAPI_DATABASE", ""),
		Schema:                  getEnv("DATAAPI_SCHEMA", ""),
		Timezone:                getEnv("DATAAPI_TIMEZONE", "+00:00"),
		DecimalNumbers:          getEnvBool("DATAAPI_DECIMAL_NUMBERS", false),
		WorkerCount:             getEnvInt("WORKER_COUNT", 4),
		MaxStatementConcurrency: int64(getEnvInt("MAX_STATEMENT_CONCURRENCY", 2)),
		DefaultTimeout:          getEnvDuration("DEFAULT_TIMEOUT", 15*time.Minute),
		StorageType:             getEnv("STORAGE_TYPE", "local"),
		LocalStoragePath:        getEnv("LOCAL_STORAGE_PATH", "./exports"),
		S3Bucket:                getEnv("S3_BUCKET", ""),
		S3Endpoint:              getEnv("S3_ENDPOINT", ""),
		S3PathStyle:             getEnvBool("S3_PATH_STYLE", false),
		Compression:             getEnvBool("COMPRESSION", false),
	}
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if _, ok := dataapi.DialectByName(c.Dialect); !ok {
		return fmt.Errorf("unsupported DATAAPI_DIALECT %q", c.Dialect)
	}
	if c.SecretArn == "" || c.ResourceArn == "" {
		return fmt.Errorf("DATAAPI_SECRET_ARN and DATAAPI_RESOURCE_ARN are required")
	}
	if c.StorageType == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when STORAGE_TYPE=s3")
	}
	if c.WorkerCount < 1 || c.MaxStatementConcurrency < 1 {
		return fmt.Errorf("WORKER_COUNT and MAX_STATEMENT_CONCURRENCY must be positive")
	}
	if _, err := typecast.ParseLocation(c.Timezone); err != nil {
		return fmt.Errorf("DATAAPI_TIMEZONE: %w", err)
	}
	return nil
}

// DataAPIConfig assembles the connection config handed to the manager.
func (c *Config) DataAPIConfig(awsCfg aws.Config) dataapi.Config {
	return dataapi.Config{
		Port: c.Port,
		DialectOptions: dataapi.DialectOptions{
			AWSConfig:      awsCfg,
			SecretStoreArn: c.SecretArn,
			ResourceArn:    c.ResourceArn,
			Database:       c.Database,
			Schema:         c.Schema,
		},
	}
}

// DecodeOptions returns the typecast options derived from the config.
func (c *Config) DecodeOptions() (typecast.Options, error) {
	loc, err := typecast.ParseLocation(c.Timezone)
	if err != nil {
		return typecast.Options{}, err
	}
	return typecast.Options{Location: loc, DecimalNumbers: c.DecimalNumbers}, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
