// Package config reads the environment of each fooddash binary. A .env file
// in the working directory is loaded first when present; real environment
// variables take precedence over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type BFF struct {
	Port               string
	CatalogURL         string
	AddressURL         string
	OrderStoreURL      string
	PublicURL          string
	UpstreamTimeout    time.Duration
	SubmitTimeout      time.Duration
	DefaultDeliveryFee decimal.Decimal
	DefaultMinOrder    decimal.Decimal
	JWTSecret          string
	RedisAddr          string
	RedisPassword      string
	CacheTTL           time.Duration
	SessionIdleTimeout time.Duration
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
	CORSOrigins        []string
	LogLevel           string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode)
}

type OrderStore struct {
	Port         string
	DB           Postgres
	KafkaBrokers string
	PlatformFee  decimal.Decimal
	OrderETA     time.Duration
	LogLevel     string
}

type Kitchen struct {
	Port            string
	KafkaBrokers    string
	GroupID         string
	OrderStoreURL   string
	UpstreamTimeout time.Duration
	StepDelay       time.Duration
	MaxRetries      int
	LogLevel        string
}

type DLQMonitor struct {
	KafkaBrokers string
	GroupID      string
	LogLevel     string
}

// loadDotEnv reads .env when it exists. A missing file is not an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func LoadBFF() (*BFF, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	var p parser
	cfg := &BFF{
		Port:               getEnv("BFF_PORT", "8080"),
		CatalogURL:         getEnv("CATALOG_URL", "http://localhost:8083"),
		AddressURL:         getEnv("ADDRESS_URL", "http://localhost:8083"),
		OrderStoreURL:      getEnv("ORDER_STORE_URL", "http://localhost:8081"),
		PublicURL:          getEnv("PUBLIC_URL", "http://localhost:3000"),
		UpstreamTimeout:    p.getDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		SubmitTimeout:      p.getDuration("SUBMIT_TIMEOUT", 15*time.Second),
		DefaultDeliveryFee: p.getDecimal("DEFAULT_DELIVERY_FEE", decimal.NewFromInt(30)),
		DefaultMinOrder:    p.getDecimal("DEFAULT_MIN_ORDER", decimal.Zero),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		CacheTTL:           p.getDuration("CACHE_TTL", 30*24*time.Hour),
		SessionIdleTimeout: p.getDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		BreakerMaxFailures: p.getInt("BREAKER_MAX_FAILURES", 5),
		BreakerTimeout:     p.getDuration("BREAKER_TIMEOUT", 30*time.Second),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

func LoadOrderStore() (*OrderStore, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	var p parser
	cfg := &OrderStore{
		Port: getEnv("ORDER_STORE_PORT", "8081"),
		DB: Postgres{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "fooddash"),
			Password: getEnv("DB_PASSWORD", "fooddash"),
			Name:     getEnv("DB_NAME", "orders"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		PlatformFee:  p.getDecimal("PLATFORM_FEE", decimal.NewFromInt(5)),
		OrderETA:     p.getDuration("ORDER_ETA", 35*time.Minute),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

func LoadKitchen() (*Kitchen, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	var p parser
	cfg := &Kitchen{
		Port:            getEnv("KITCHEN_PORT", "8082"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
		GroupID:         getEnv("KITCHEN_GROUP_ID", "kitchen-sim"),
		OrderStoreURL:   getEnv("ORDER_STORE_URL", "http://localhost:8081"),
		UpstreamTimeout: p.getDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		StepDelay:       p.getDuration("STEP_DELAY", 10*time.Second),
		MaxRetries:      p.getInt("MAX_RETRIES", 3),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

func LoadDLQMonitor() (*DLQMonitor, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return &DLQMonitor{
		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		GroupID:      getEnv("DLQ_GROUP_ID", "dlq-monitor-group"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

// parser keeps the first malformed variable so that loaders can read every
// field and report once.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func (p *parser) getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	return d
}

func (p *parser) getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	return n
}

func (p *parser) getDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	if d.IsNegative() {
		p.fail(key, raw, errors.New("must not be negative"))
		return defaultValue
	}
	return d
}

// NewLogger returns the JSON logger every binary uses. Unknown levels fall
// back to info.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
