package shipimport

import "time"

// Config bounds an import run.
type Config struct {
	BatchSize   int
	MaxRows     int
	CallTimeout time.Duration
}

// Defaults used when a Config field is zero.
const (
	DefaultBatchSize   = 25
	DefaultMaxRows     = 500
	DefaultCallTimeout = 10 * time.Second
)

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxRows <= 0 {
		c.MaxRows = DefaultMaxRows
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	return c
}
