package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	APIKey          string
	BaseURL         string
	Units           string
	Lang            string
	UpstreamTimeout time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTL        time.Duration
	LogLevel        string
}

func Load() *Config {
	// .env опционален: в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	ttl, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "300"))
	timeout, _ := strconv.Atoi(getEnv("UPSTREAM_TIMEOUT_SECONDS", "10"))

	return &Config{
		HTTPPort:        getEnv("PORT", "3000"),
		APIKey:          getEnv("OPENWEATHER_API_KEY", ""),
		BaseURL:         getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather"),
		Units:           getEnv("OPENWEATHER_UNITS", "metric"),
		Lang:            getEnv("OPENWEATHER_LANG", "fr"),
		UpstreamTimeout: time.Duration(timeout) * time.Second,
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CacheTTL:        time.Duration(ttl) * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

// CacheEnabled сообщает, настроен ли Redis. Пустой адрес = кэш выключен.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
