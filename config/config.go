package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost           string
	HTTPPort           string
	GRPCHost           string
	GRPCPort           string
	MySQLDSN           string
	JWTSecret          string
	InternalAPIKeyHash string
	CORSAllowOrigins   []string
	Log                LogConfig
	Phone              PhoneConfig
	Index              IndexConfig
	Poller             PollerConfig
	Kafka              KafkaConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type PhoneConfig struct {
	DefaultRegion string
}

type IndexConfig struct {
	Shards int
}

type PollerConfig struct {
	Enabled        bool
	Interval       time.Duration
	ResyncInterval time.Duration
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Group    string
	ClientID string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	apiKeyHash := os.Getenv("INTERNAL_API_KEY_HASH")
	if apiKeyHash == "" {
		return nil, errors.New("INTERNAL_API_KEY_HASH environment variable is required")
	}

	return &Config{
		HTTPHost:           getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		GRPCHost:           getEnv("GRPC_HOST", "0.0.0.0"),
		GRPCPort:           getEnv("GRPC_PORT", "9090"),
		MySQLDSN:           os.Getenv("MYSQL_DSN"),
		JWTSecret:          jwtSecret,
		InternalAPIKeyHash: apiKeyHash,
		CORSAllowOrigins:   getListEnv("CORS_ALLOW_ORIGINS", []string{"*"}),
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
		Phone: PhoneConfig{
			DefaultRegion: strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "DE")),
		},
		Index: IndexConfig{
			Shards: getIntEnv("INDEX_SHARDS", 64),
		},
		Poller: PollerConfig{
			Enabled:        getBoolEnv("POLLER_ENABLED", true),
			Interval:       getDurationEnv("POLL_INTERVAL", 30*time.Second),
			ResyncInterval: getDurationEnv("RESYNC_INTERVAL", 6*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:  getListEnv("KAFKA_BROKERS", nil),
			Topic:    os.Getenv("KAFKA_TOPIC"),
			Group:    getEnv("KAFKA_GROUP", "ms-go-contacts"),
			ClientID: getEnv("KAFKA_CLIENT_ID", "ms-go-contacts"),
		},
	}, nil
}

func (c *Config) DSN() string {
	return c.MySQLDSN
}

func (c *Config) HasMySQL() bool {
	return c.MySQLDSN != ""
}

func (c *Config) HTTPAddr() string {
	return c.HTTPHost + ":" + c.HTTPPort
}

func (c *Config) GRPCAddr() string {
	return c.GRPCHost + ":" + c.GRPCPort
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("45s") and bare integers, which are
// read as minutes.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
