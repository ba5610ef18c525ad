package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	HTTPAddr    string

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost string
	RedisPort int
	CacheTTL  time.Duration

	RabbitHost     string
	RabbitPort     int
	RabbitUser     string
	RabbitPassword string

	ConsulHost string
	ConsulPort int

	// InventoryURL is the base URL of the inventory service used by the
	// order service when Consul lookup fails or is disabled.
	InventoryURL     string
	InventoryTimeout time.Duration
}

// Load reads configuration from the environment, with an optional .env
// file for local development.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName: getenv("SERVICE_NAME", "microshop"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getenvInt("POSTGRES_PORT", 5432),
		PostgresUser:     getenv("POSTGRES_USER", "microshop"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "microshop123"),
		PostgresDB:       getenv("POSTGRES_DB", "microshop"),

		RedisHost: getenv("REDIS_HOST", "localhost"),
		RedisPort: getenvInt("REDIS_PORT", 6379),
		CacheTTL:  getenvDuration("CACHE_TTL", 5*time.Minute),

		RabbitHost:     getenv("RABBITMQ_HOST", "localhost"),
		RabbitPort:     getenvInt("RABBITMQ_PORT", 5672),
		RabbitUser:     getenv("RABBITMQ_USER", "guest"),
		RabbitPassword: getenv("RABBITMQ_PASSWORD", "guest"),

		ConsulHost: getenv("CONSUL_HOST", "localhost"),
		ConsulPort: getenvInt("CONSUL_PORT", 8500),

		InventoryURL:     getenv("INVENTORY_SERVICE_URL", "http://localhost:8081"),
		InventoryTimeout: getenvDuration("INVENTORY_TIMEOUT", 10*time.Second),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
