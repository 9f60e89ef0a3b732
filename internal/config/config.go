package config

import (
	"path/filepath"

	"fjacquet/finances/internal/fileutils"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from a .env file if one exists in the
// working directory or its parent. Variables already set are not overridden.
// It returns the file that was loaded, or "" when none was found.
func LoadEnv() (string, error) {
	for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
		if !fileutils.FileExists(candidate) {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return candidate, err
		}
		return candidate, nil
	}
	return "", nil
}
