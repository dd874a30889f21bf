package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	GRPCAddr       string
	MySQLDSN       string
	RedisAddr      string
	KafkaBrokers   string
	SettledTopic   string
	RequestTimeout time.Duration

	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	StripeAPIVersion     string
	Currency             string
	// ExposeGatewayErrors returns raw gateway errors to clients instead of a generic message.
	ExposeGatewayErrors bool

	ShutdownTimeout time.Duration
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}

	expose, err := strconv.ParseBool(getEnv("EXPOSE_GATEWAY_ERRORS", "false"))
	if err != nil {
		return nil, fmt.Errorf("EXPOSE_GATEWAY_ERRORS: %w", err)
	}

	cfg := &Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:             getEnv("GRPC_ADDR", ":50051"),
		MySQLDSN:             getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:         getEnv("KAFKA_BROKERS", ""),
		SettledTopic:         getEnv("KAFKA_SETTLED_TOPIC", "checkout.settled"),
		RequestTimeout:       timeout,
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeAPIVersion:     getEnv("STRIPE_API_VERSION", "2024-04-10"),
		Currency:             strings.ToLower(getEnv("CURRENCY", "usd")),
		ExposeGatewayErrors:  expose,
		ShutdownTimeout:      10 * time.Second,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.StripePublishableKey == "" {
		missing = append(missing, "STRIPE_PUBLISHABLE_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
