package config

import (
	"os"
	"strings"
)

// LoadDotEnv loads KEY=VALUE pairs from a local env file into the
// process environment. Variables already set in the environment win
// over the file, so deployments are unaffected by a stray .env.
func LoadDotEnv(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// Missing file is the normal case outside local dev.
		return err
	}

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return nil
}
