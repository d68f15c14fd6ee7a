// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	TASKBOARD_HOST="0.0.0.0"
//	TASKBOARD_PORT="8080"
//	TASKBOARD_HEALTH_PORT="9090"
//	TASKBOARD_READ_TIMEOUT="15s"
//	TASKBOARD_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	TASKBOARD_POSTGRES_URL="postgres://localhost/taskboard"
//	TASKBOARD_POSTGRES_MAX_CONNS="25"
//	TASKBOARD_POSTGRES_IDLE_CONNS="5"
//
// Redis settings:
//
//	TASKBOARD_REDIS_ADDR="localhost:6379"
//	TASKBOARD_REDIS_POOL_SIZE="10"
//
// Auth settings:
//
//	TASKBOARD_TOKEN_TTL="720h"
//	TASKBOARD_TOKEN_PURGE_SCHEDULE="0 3 * * *"
//
// Observability settings:
//
//	TASKBOARD_LOG_LEVEL="info"  # debug, info, warn, error
//	TASKBOARD_METRICS_ENABLED="true"
//	TASKBOARD_OTEL_ENABLED="true"
//	TASKBOARD_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/observability: Uses observability configuration
//   - pkg/middleware: Uses rate limit configuration
package config
