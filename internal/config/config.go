package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	AnnotatorURL string
	LexiconURL   string
	Database     string
	UploadDir    string
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()
	cfg := Config{
		AnnotatorURL: getEnv("ANNOTATOR_URL", "http://localhost:8090"),
		LexiconURL:   getEnv("LEXICON_URL", "http://localhost:8091"),
		Database:     getEnv("DATABASE_PATH", "./data/cardforge.db"),
		UploadDir:    getEnv("UPLOAD_DIR", "./static/uploads"),
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("failed to ensure upload dir %s: %v", cfg.UploadDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		log.Fatalf("failed to ensure database dir %s: %v", cfg.Database, err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
