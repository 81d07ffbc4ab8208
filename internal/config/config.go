package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string
	LogFormat   string // "console" or "json"

	// gRPC health endpoint (per-camera serving status)
	GRPCHealthEnabled bool
	GRPCHealthPort    int

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Database
	// DATABASE_DRIVER selects "sqlite" (default) or "mysql"
	DatabaseDriver string
	DatabaseDSN    string
	SQLitePath     string
	DatabaseDebug  bool

	// Camera directory
	CameraSeedFile string
	CameraCacheTTL time.Duration

	// Detection workers
	WorkerCommand           string
	WorkerArgs              []string
	WorkerOutputDir         string
	APIURL                  string        // passed to workers as --api-url
	WorkerStopTimeout       time.Duration // SIGKILL escalation after SIGTERM
	WorkerMaxLineBytes      int
	WorkerEventBuffer       int
	MaxWorkers              int
	DefaultSensitivity      int
	DefaultMinConfidence    int
	HeartbeatStaleThreshold time.Duration

	// NATS (for alert fan-out)
	// Default: nats://localhost:4222 (works with Docker Compose setup)
	// Docker: Use nats://nats:4222 if running worker in Docker
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	NatsDrainTimeout   time.Duration // For graceful shutdown
	AlertsSubject      string

	// MQTT (second alert fan-out channel)
	MQTTEnabled     bool
	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTAlertTopic  string
	MQTTQoS         int
	MQTTConnTimeout time.Duration

	// Snapshot archive (MinIO)
	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	// Snapshot compression before upload
	SnapshotMaxWidth  int
	SnapshotMaxHeight int
	SnapshotQuality   int // JPEG quality (1-100)

	// Analytics
	AnalyticsTimezone string

	// Metrics
	MetricsEnabled bool

	// Swagger Configuration
	SwaggerHost string
	SwaggerPort int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "firewatch-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),

		GRPCHealthEnabled: getEnvBool("GRPC_HEALTH_ENABLED", true),
		GRPCHealthPort:    getEnvInt("GRPC_HEALTH_PORT", 50051),

		// Logdy (lightweight web log viewer)
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Database
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    getEnv("DATABASE_DSN", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "firewatch.db"),
		DatabaseDebug:  getEnvBool("DATABASE_DEBUG", false),

		// Camera directory
		CameraSeedFile: getEnv("CAMERA_SEED_FILE", ""),
		CameraCacheTTL: getEnvDuration("CAMERA_CACHE_TTL", 5*time.Minute),

		// Detection workers
		WorkerCommand:           getEnv("WORKER_COMMAND", "python3"),
		WorkerArgs:              getEnvList("WORKER_ARGS", []string{"detection/fire_detector.py"}),
		WorkerOutputDir:         getEnv("WORKER_OUTPUT_DIR", "uploads/fire-detection"),
		APIURL:                  getAPIURL(),
		WorkerStopTimeout:       getEnvDuration("WORKER_STOP_TIMEOUT", 2*time.Second),
		WorkerMaxLineBytes:      getEnvInt("WORKER_MAX_LINE_BYTES", 1024*1024), // 1MB
		WorkerEventBuffer:       getEnvInt("WORKER_EVENT_BUFFER", 16),
		MaxWorkers:              getEnvInt("MAX_WORKERS", 32),
		DefaultSensitivity:      getEnvInt("DEFAULT_SENSITIVITY", 60),
		DefaultMinConfidence:    getEnvInt("DEFAULT_MIN_CONFIDENCE", 70),
		HeartbeatStaleThreshold: getEnvDuration("HEARTBEAT_STALE_THRESHOLD", 30*time.Second),

		// NATS (configured for Docker Compose setup)
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		NatsDrainTimeout:   getEnvDuration("NATS_DRAIN_TIMEOUT", 5*time.Second),
		AlertsSubject:      getEnv("ALERTS_SUBJECT", "fire.alerts"),

		// MQTT
		MQTTEnabled:     getEnvBool("MQTT_ENABLED", false),
		MQTTBroker:      getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "firewatch"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTAlertTopic:  getEnv("MQTT_ALERT_TOPIC", "firewatch/alerts"),
		MQTTQoS:         getEnvInt("MQTT_QOS", 1),
		MQTTConnTimeout: getEnvDuration("MQTT_CONNECT_TIMEOUT", 10*time.Second),

		// MinIO
		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "fire-snapshots"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),

		SnapshotMaxWidth:  getEnvInt("SNAPSHOT_MAX_WIDTH", 1280),
		SnapshotMaxHeight: getEnvInt("SNAPSHOT_MAX_HEIGHT", 720),
		SnapshotQuality:   getEnvInt("SNAPSHOT_QUALITY", 85),

		AnalyticsTimezone: getEnv("ANALYTICS_TIMEZONE", "UTC"),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		// Swagger Configuration
		SwaggerHost: getEnv("SWAGGER_HOST", "localhost"),
		SwaggerPort: getEnvInt("SWAGGER_PORT", 8000),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// Validate reports the first setting that cannot work at runtime.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite":
	case "mysql":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for mysql")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.WorkerCommand == "" {
		return fmt.Errorf("WORKER_COMMAND must not be empty")
	}
	if c.DefaultSensitivity < 0 || c.DefaultSensitivity > 100 {
		return fmt.Errorf("DEFAULT_SENSITIVITY must be within 0..100, got %d", c.DefaultSensitivity)
	}
	if c.DefaultMinConfidence < 0 || c.DefaultMinConfidence > 100 {
		return fmt.Errorf("DEFAULT_MIN_CONFIDENCE must be within 0..100, got %d", c.DefaultMinConfidence)
	}
	if c.WorkerMaxLineBytes < 64 {
		return fmt.Errorf("WORKER_MAX_LINE_BYTES too small: %d", c.WorkerMaxLineBytes)
	}
	if c.MQTTQoS < 0 || c.MQTTQoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTTQoS)
	}
	if _, err := time.LoadLocation(c.AnalyticsTimezone); err != nil {
		return fmt.Errorf("invalid ANALYTICS_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the analytics timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AnalyticsTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a whitespace separated value
func getEnvList(key string, defaultValue []string) []string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return strings.Fields(value)
	}
	return defaultValue
}

// Helper functions for Docker environment detection
// getAPIURL defaults to this worker's own fire-detection routes
func getAPIURL() string {
	if url := os.Getenv("API_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("http://localhost:%d/api/fire-detection", getEnvInt("PORT", 8000))
}

func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}
