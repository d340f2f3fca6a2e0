package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	App      AppConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type AppConfig struct {
	// CollectionBaseURL is prepended to ticket tokens to build the link a
	// holder opens to collect their ticket.
	CollectionBaseURL string
	SMSCodeTTL        time.Duration
	SMSRateLimit      int
	SMSRateWindow     time.Duration
	StatsCacheTTL     time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	if postgresHost == "" {
		postgresHost = "localhost"
	}

	postgresPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
	if postgresSSLMode == "" {
		postgresSSLMode = "disable"
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     postgresHost,
		Port:     postgresPort,
		SSLMode:  postgresSSLMode,
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	baseURL := os.Getenv("COLLECTION_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d", serverHost, serverPort)
	}

	smsTTLSec, err := intEnv("SMS_CODE_TTL_SEC", 600)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	smsRateLimit, err := intEnv("SMS_RATE_LIMIT", 5)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	smsRateWindowSec, err := intEnv("SMS_RATE_WINDOW_SEC", 60)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	statsTTLSec, err := intEnv("STATS_CACHE_TTL_SEC", 15)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	appCfg := AppConfig{
		CollectionBaseURL: baseURL,
		SMSCodeTTL:        time.Duration(smsTTLSec) * time.Second,
		SMSRateLimit:      smsRateLimit,
		SMSRateWindow:     time.Duration(smsRateWindowSec) * time.Second,
		StatsCacheTTL:     time.Duration(statsTTLSec) * time.Second,
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		App:      appCfg,
	}, nil
}

func intEnv(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	return v, nil
}
