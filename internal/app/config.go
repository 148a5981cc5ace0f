package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/civicworks/sitelore-backend/internal/platform/envutil"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
)

type Config struct {
	Port            string `yaml:"port"`
	LogMode         string `yaml:"log_mode"`
	DetectChunkSize int    `yaml:"detect_chunk_size"`
	QueryTopK       int    `yaml:"query_top_k"`
	Environment     string `yaml:"environment"`
	Version         string `yaml:"version"`
}

// LoadConfig layers an optional YAML file (CONFIG_FILE) under environment
// variables; env always wins.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:            "8080",
		LogMode:         "development",
		DetectChunkSize: 100,
		QueryTopK:       8,
		Environment:     "development",
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	}

	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.DetectChunkSize = envutil.Int("DETECT_CHUNK_SIZE", cfg.DetectChunkSize)
	cfg.QueryTopK = envutil.Int("QUERY_TOP_K", cfg.QueryTopK)
	cfg.Environment = envutil.String("ENVIRONMENT", cfg.Environment)
	cfg.Version = envutil.String("VERSION", cfg.Version)
	return cfg, nil
}
