package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	EventMirror EventMirrorConfig
	Auth        AuthConfig
	Lifecycle   LifecycleConfig
	Realtime    RealtimeConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// RedisConfig configures the optional cross-node fanout bridge. An empty
// Addr disables the bridge and the hub runs node-local only.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// EventMirrorConfig holds configuration for the KurrentDB (EventStoreDB)
// audit mirror. The mirror is best-effort: the platform runs without it.
type EventMirrorConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
}

type AuthConfig struct {
	// Enabled toggles JWT verification; development runs without it and
	// handlers fall back to actor ids supplied in request bodies.
	Enabled   bool
	JWTSecret string
}

// LifecycleConfig holds policy switches for the complaint lifecycle engine.
type LifecycleConfig struct {
	// PreferredOrgTypes is the routing preference order for new complaints.
	PreferredOrgTypes []string
	// RequireInProgressForUpdates rejects progress updates unless the
	// complaint is in_progress. Switch off for callers that predate the
	// guard.
	RequireInProgressForUpdates bool
}

type RealtimeConfig struct {
	// SendBuffer is the per-client outbound queue; messages beyond it are
	// dropped (the durable notification directory is the lossless channel).
	SendBuffer int
	// BroadcastChannel is the Redis pub/sub channel used by the bridge.
	BroadcastChannel string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "civicroot"),
			Password: getEnv("DB_PASSWORD", "civicroot"),
			Database: getEnv("DB_NAME", "civicroot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		EventMirror: EventMirrorConfig{
			Enabled:  getEnvBool("EVENT_MIRROR_ENABLED", false),
			Host:     getEnv("EVENT_MIRROR_HOST", "localhost"),
			Port:     getEnvInt("EVENT_MIRROR_PORT", 2113),
			Insecure: getEnvBool("EVENT_MIRROR_INSECURE", true),
			Username: getEnv("EVENT_MIRROR_USERNAME", ""),
			Password: getEnv("EVENT_MIRROR_PASSWORD", ""),
		},
		Auth: AuthConfig{
			Enabled:   getEnvBool("AUTH_ENABLED", false),
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
		Lifecycle: LifecycleConfig{
			PreferredOrgTypes:           getEnvSlice("ROUTING_PREFERRED_ORG_TYPES", []string{"Gov", "Utility", "NGO"}),
			RequireInProgressForUpdates: getEnvBool("PROGRESS_REQUIRE_IN_PROGRESS", true),
		},
		Realtime: RealtimeConfig{
			SendBuffer:       getEnvInt("REALTIME_SEND_BUFFER", 32),
			BroadcastChannel: getEnv("REALTIME_BROADCAST_CHANNEL", "realtime.fanout"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, v := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
