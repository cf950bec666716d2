package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"langprops/internal/langsign"
)

type Config struct {
	Extension           string
	ExcludeParts        []string
	CaseInsensitiveKeys bool
	WorkerCount         int
	DatabaseURL         string
	LogLevel            string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		Extension:           getEnv("LANGPROPS_EXTENSION", langsign.DefaultExtension),
		ExcludeParts:        getEnvList("LANGPROPS_EXCLUDE"),
		CaseInsensitiveKeys: getEnvBool("CASE_INSENSITIVE_KEYS", false),
		WorkerCount:         getEnvInt("WORKER_COUNT", 4),
		DatabaseURL:         getEnv("DATABASE_URL", "postgres://localhost:5432/langprops?sslmode=disable"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
