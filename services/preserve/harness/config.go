// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package harness

import "time"

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds configuration for test harness runs.
type Config struct {
	// RunTimeout is the wall-clock bound on one external test run.
	// Expiry cancels the local wait only; the spawned process is not
	// guaranteed to be killed.
	// Default: 10m
	RunTimeout time.Duration

	// MaxOutputBytes is the maximum tool output to capture. Output beyond
	// this is truncated.
	// Default: 262144 (256KB)
	MaxOutputBytes int
}

// DefaultConfig returns a Config with sensible defaults.
//
// Outputs:
//
//	*Config - Configuration with default values
func DefaultConfig() *Config {
	return &Config{
		RunTimeout:     10 * time.Minute,
		MaxOutputBytes: 256 * 1024, // 256KB
	}
}

// Validate clamps out-of-range values to usable ones.
//
// Outputs:
//
//	error - Always nil; kept for interface symmetry with other services
func (c *Config) Validate() error {
	if c.RunTimeout < time.Second {
		c.RunTimeout = time.Second
	}
	if c.MaxOutputBytes < 1024 {
		c.MaxOutputBytes = 1024
	}
	return nil
}

// =============================================================================
// CONFIGURATION OPTIONS
// =============================================================================

// Option is a function that modifies Config.
type Option func(*Config)

// WithRunTimeout sets the wall-clock bound on one test run.
func WithRunTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RunTimeout = d
	}
}

// WithMaxOutputBytes sets the output capture limit.
func WithMaxOutputBytes(n int) Option {
	return func(c *Config) {
		c.MaxOutputBytes = n
	}
}
