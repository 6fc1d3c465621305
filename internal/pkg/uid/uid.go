// Package uid generates identifiers: UUIDv7 strings for entities, snowflake
// numbers for append-only events and random URL tokens for bearer secrets.
package uid

import "github.com/google/uuid"

type StringID interface {
	Generate() string
}

// NumberID generates monotonically increasing numeric identifiers.
type NumberID interface {
	Generate() int64
}

// UUID yields time-ordered v7 strings so primary keys index well.
type UUID struct{}

func NewUUID() *UUID { return &UUID{} }

func (*UUID) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
