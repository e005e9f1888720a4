package config

import (
	"os"
	"path/filepath"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory or its parent, if
// one exists. Variables already set in the environment win.
func LoadEnv(logger logging.Logger) string {
	for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			if logger != nil {
				logger.WithError(err).Warn("Error loading .env file",
					logging.Field{Key: logging.FieldFile, Value: candidate})
			}
			return ""
		}
		return candidate
	}
	return ""
}

// NewLogger builds the application logger from the log settings.
func NewLogger(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(config.Log.Level, config.Log.Format)
}
