package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables overriding secrets and endpoints.
const (
	EnvS3Endpoint    = "FRAUDGRAPH_S3_ENDPOINT"
	EnvS3Region      = "FRAUDGRAPH_S3_REGION"
	EnvS3Bucket      = "FRAUDGRAPH_S3_BUCKET"
	EnvS3AccessKey   = "FRAUDGRAPH_S3_ACCESS_KEY"
	EnvS3SecretKey   = "FRAUDGRAPH_S3_SECRET_KEY"
	EnvPostgresDSN   = "FRAUDGRAPH_PG_DSN"
	EnvNeo4jURI      = "FRAUDGRAPH_NEO4J_URI"
	EnvNeo4jUser     = "FRAUDGRAPH_NEO4J_USER"
	EnvNeo4jPassword = "FRAUDGRAPH_NEO4J_PASSWORD"
	EnvLogLevel      = "LOG_LEVEL"
)

// LoadEnv loads environment variables from a .env file, searching up the
// directory tree. Variables already set win over the file.
func LoadEnv() error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return godotenv.Load(envPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// Not found is fine
	return nil
}

// ApplyEnv copies set environment variables over cfg.
func ApplyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.Sinks.S3.Endpoint, EnvS3Endpoint)
	set(&cfg.Sinks.S3.Region, EnvS3Region)
	set(&cfg.Sinks.S3.Bucket, EnvS3Bucket)
	set(&cfg.Sinks.S3.AccessKey, EnvS3AccessKey)
	set(&cfg.Sinks.S3.SecretKey, EnvS3SecretKey)
	set(&cfg.Sinks.Postgres.DSN, EnvPostgresDSN)
	set(&cfg.Sinks.Neo4j.URI, EnvNeo4jURI)
	set(&cfg.Sinks.Neo4j.User, EnvNeo4jUser)
	set(&cfg.Sinks.Neo4j.Password, EnvNeo4jPassword)
	set(&cfg.LogLevel, EnvLogLevel)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
}
