package testutil

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pondermatic/strategy11-challenge/src/utils"
)

// GetEnv returns key from the environment, loading the project .env first
// when one exists
func GetEnv(key string) string {
	envFile := filepath.Join(utils.FindProjectRoot(), ".env")
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	return os.Getenv(key)
}
