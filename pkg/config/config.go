// Package config loads service settings from the environment through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds the token signing secret.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds broker addresses and the consumer group prefix.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// baseKeys are bound for every service in addition to the keys passed to Load.
var baseKeys = []string{
	"APP_ENV", "SERVICE_PORT", "JWT_SECRET",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"KAFKA_BROKERS", "KAFKA_GROUP_PREFIX",
	"MONGO_URI", "MONGO_DATABASE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
}

// Load reads an optional .env file and returns a viper instance that resolves
// keys from PREFIX_KEY first and KEY second. Only baseKeys and keys are read
// from the environment. KAFKA_BROKERS has no default: unset or empty means no
// broker.
func Load(prefix string, keys ...string) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_GROUP_PREFIX", "servicelink-")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "servicelink")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	for _, key := range append(baseKeys, keys...) {
		names := []string{key}
		if prefix != "" {
			names = []string{prefix + "_" + key, key}
		}
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return v, nil
}

// GetString returns key, honoring PREFIX_KEY overrides bound by Load.
func GetString(v *viper.Viper, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return def
}

// GetDuration parses key as a Go duration, falling back to def.
func GetDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	s := v.GetString(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// GetInt returns key as an int, falling back to def when unset or zero.
func GetInt(v *viper.Viper, key string, def int) int {
	if n := v.GetInt(key); n != 0 {
		return n
	}
	return def
}

// GetServicePort returns the listen address for key, defaulting to :8080.
func GetServicePort(v *viper.Viper, key string) string {
	port := GetString(v, key, "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// GetAppEnv returns APP_ENV.
func GetAppEnv(v *viper.Viper) string {
	return v.GetString("APP_ENV")
}

// LoadDatabaseConfig builds a DatabaseConfig, reading the database name from dbNameKey.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) DatabaseConfig {
	return DatabaseConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		User:     v.GetString("DB_USER"),
		Password: v.GetString("DB_PASSWORD"),
		DBName:   GetString(v, dbNameKey, "servicelink_booking"),
		SSLMode:  v.GetString("DB_SSLMODE"),
	}
}

// LoadJWTConfig builds a JWTConfig.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{Secret: GetString(v, "JWT_SECRET", "change-me")}
}

// LoadKafkaConfig builds a KafkaConfig from a comma separated broker list.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(v.GetString("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Brokers:     brokers,
		GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
	}
}

// LoadMongoConfig builds a MongoConfig.
func LoadMongoConfig(v *viper.Viper) MongoConfig {
	return MongoConfig{
		URI:      v.GetString("MONGO_URI"),
		Database: v.GetString("MONGO_DATABASE"),
	}
}

// LoadRedisConfig builds a RedisConfig.
func LoadRedisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}
