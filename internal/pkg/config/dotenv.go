package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingKeys is returned by Require when mandatory keys are empty.
var ErrMissingKeys = errors.New("config: missing required keys")

// LoadDotEnv loads environment files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Require returns ErrMissingKeys naming every key whose string value is empty.
func Require(c Config, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(c.GetString(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}
	return nil
}
