// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds configuration for a batch controller.
type Config struct {
	// EnableTracing controls whether OpenTelemetry spans are created.
	// Default: false
	EnableTracing bool

	// EnableMetrics controls whether metric instruments are recorded.
	// Default: true
	EnableMetrics bool
}

// DefaultConfig returns a Config with sensible defaults.
//
// Outputs:
//
//	*Config - Configuration with default values
func DefaultConfig() *Config {
	return &Config{
		EnableTracing: false,
		EnableMetrics: true,
	}
}

// =============================================================================
// CONFIGURATION OPTIONS
// =============================================================================

// Option is a function that modifies Config.
type Option func(*Config)

// WithTracing toggles OpenTelemetry span creation.
func WithTracing(enabled bool) Option {
	return func(c *Config) {
		c.EnableTracing = enabled
	}
}

// WithMetrics toggles metric recording.
func WithMetrics(enabled bool) Option {
	return func(c *Config) {
		c.EnableMetrics = enabled
	}
}
