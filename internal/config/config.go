package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/servicelink/service-booking/pkg/config"
)

// Counter store backends.
const (
	CounterBackendPostgres = "postgres"
	CounterBackendMongo    = "mongo"
)

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig
	MongoConfig config.MongoConfig
	RedisConfig config.RedisConfig

	CounterBackend  string
	ListingCacheTTL time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	SummaryLimit    int
	CORSOrigins     []string
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING",
		"COUNTER_BACKEND", "LISTING_CACHE_TTL",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"SUMMARY_LIMIT", "CORS_ORIGINS",
	)
	if err != nil {
		return nil, err
	}

	cfg := &ServiceConfig{
		Port:            config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:          config.GetAppEnv(v),
		DBConfig:        config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:       config.LoadJWTConfig(v),
		KafkaConfig:     config.LoadKafkaConfig(v),
		MongoConfig:     config.LoadMongoConfig(v),
		RedisConfig:     config.LoadRedisConfig(v),
		CounterBackend:  strings.ToLower(config.GetString(v, "COUNTER_BACKEND", CounterBackendPostgres)),
		ListingCacheTTL: config.GetDuration(v, "LISTING_CACHE_TTL", 5*time.Minute),
		RateLimitRPS:    float64(config.GetInt(v, "RATE_LIMIT_RPS", 20)),
		RateLimitBurst:  config.GetInt(v, "RATE_LIMIT_BURST", 40),
		SummaryLimit:    config.GetInt(v, "SUMMARY_LIMIT", 5),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
	}

	switch cfg.CounterBackend {
	case CounterBackendPostgres, CounterBackendMongo:
	default:
		return nil, fmt.Errorf("unsupported COUNTER_BACKEND %q", cfg.CounterBackend)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
