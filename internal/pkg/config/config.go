// Package config exposes typed lookups over layered configuration: a YAML
// file, optional .env files and KTVS_* environment overrides.
package config

import (
	"io"
	"time"
)

// Config is the read side every module depends on. Missing keys yield the
// zero value of the requested type, so callers apply their own defaults.
type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool

	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetSecond and GetMinute read an integer and scale it to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary decodes a standard base64 value; nil when absent or malformed.
	GetBinary(key string) []byte

	// GetArray splits a comma separated value, dropping blanks.
	GetArray(key string) []string
}
