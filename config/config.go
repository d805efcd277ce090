// Package config reads server settings from the environment, after loading an
// optional .env file.
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
	Port string

	MongoURI string
	MongoDB  string

	RedisAddr string
	RedisDB   int

	QdrantHost       string
	QdrantPort       int
	QdrantCollection string

	IdentitySecret   string
	IdentityAudience string
	IdentityIssuer   string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	POIFile        string
	AllowedOrigins []string
	StoreTimeout   time.Duration
	MatchRetries   uint64
	LogLevel       string
}

// Load reads the configuration. A missing .env file is not an error; a missing
// required key or an unparsable value is.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		MongoURI:         os.Getenv("MONGODB_URI"),
		MongoDB:          getEnvOrDefault("MONGODB_DB", "meet"),
		RedisAddr:        getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		QdrantHost:       getEnvOrDefault("QDRANT_HOST", "localhost"),
		QdrantCollection: getEnvOrDefault("QDRANT_COLLECTION", "users"),
		IdentitySecret:   os.Getenv("IDENTITY_SECRET"),
		IdentityAudience: os.Getenv("IDENTITY_AUDIENCE"),
		IdentityIssuer:   os.Getenv("IDENTITY_ISSUER"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:      os.Getenv("OPENAI_MODEL"),
		POIFile:          getEnvOrDefault("POI_FILE", "data/pois.json"),
		AllowedOrigins:   splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.QdrantPort, err = getInt("QDRANT_PORT", 6334); err != nil {
		return nil, err
	}
	retries, err := getInt("MATCH_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	if retries < 1 {
		return nil, fmt.Errorf("MATCH_RETRIES must be at least 1, got %d", retries)
	}
	cfg.MatchRetries = uint64(retries)
	if cfg.StoreTimeout, err = time.ParseDuration(getEnvOrDefault("STORE_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if c.IdentitySecret == "" {
		missing = append(missing, "IDENTITY_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
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
