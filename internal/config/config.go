package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Addr          string
	PostgresDSN   string
	MongoURL      string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
}

// Load reads configuration from the environment, with development
// defaults for everything but the JWT secret.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Addr:          getEnv("APP_ADDR", ":8080"),
		PostgresDSN:   getEnv("POSTGRES_DSN", "host=localhost user=user password=password dbname=moodchat port=5432 sslmode=disable"),
		MongoURL:      getEnv("MONGO_URL", "mongodb://localhost:27017"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-only-secret"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
