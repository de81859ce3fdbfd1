package worker

import (
	"fmt"
	"time"
)

// Config holds the configuration for the maintenance worker.
type Config struct {
	// TaskTimeout is the maximum time a single run is allowed to take.
	// Default: 1 minute
	TaskTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for running tasks to return.
	// Default: 10 seconds
	ShutdownTimeout time.Duration

	// MinInterval is the shortest interval a task may be registered with.
	// Default: 1 second
	MinInterval time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		TaskTimeout:     time.Minute,
		ShutdownTimeout: 10 * time.Second,
		MinInterval:     time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.TaskTimeout < 1*time.Millisecond {
		return fmt.Errorf("task timeout must be positive, got %v", c.TaskTimeout)
	}
	if c.ShutdownTimeout < 1*time.Millisecond {
		return fmt.Errorf("shutdown timeout must be positive, got %v", c.ShutdownTimeout)
	}
	if c.MinInterval < 1*time.Millisecond {
		return fmt.Errorf("minimum interval must be positive, got %v", c.MinInterval)
	}
	return nil
}
