package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port                 string
	AllowedOrigin        string
	DatabaseURL          string
	SQLitePath           string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	StockCacheTTLSeconds int
	// APIBaseURL is where the console binary reaches the billing backend.
	APIBaseURL string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("STOCK_CACHE_TTL_SECONDS", "15"))
	if err != nil || ttl < 1 {
		ttl = 15
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		AllowedOrigin:        getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SQLitePath:           os.Getenv("SQLITE_PATH"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              redisDB,
		StockCacheTTLSeconds: ttl,
		APIBaseURL:           getEnv("SHOP_API_URL", "http://127.0.0.1:8080"),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
