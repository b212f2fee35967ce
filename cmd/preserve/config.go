// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

// configPath is where PersistentPreRun looks for the optional config file.
// Overridable with the --config flag.
var configPath = "config.yaml"

// Config is the binary-level configuration loaded from config.yaml.
// Missing file means defaults; missing fields keep their zero-safe defaults
// from DefaultCLIConfig.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Harness   HarnessConfig   `yaml:"harness"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// LoggingConfig selects log level and destinations.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Dir enables an additional JSON log file under this directory.
	Dir string `yaml:"dir"`

	// JSON switches the stderr handler to JSON output.
	JSON bool `yaml:"json"`

	// Quiet suppresses stderr output below error level.
	Quiet bool `yaml:"quiet"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	// TraceExporter is otlp, stdout, or none.
	TraceExporter string `yaml:"trace_exporter"`

	// MetricExporter is prometheus, stdout, or none.
	MetricExporter string `yaml:"metric_exporter"`

	// OTLPEndpoint is the OTLP receiver for traces.
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// PrometheusPort is where /metrics is served when the prometheus
	// exporter is selected.
	PrometheusPort int `yaml:"prometheus_port"`
}

// HarnessConfig bounds each test-suite invocation.
type HarnessConfig struct {
	// RunTimeoutSeconds caps one build-tool run. Zero keeps the default.
	RunTimeoutSeconds int `yaml:"run_timeout_seconds"`

	// MaxOutputBytes caps captured build output. Zero keeps the default.
	MaxOutputBytes int `yaml:"max_output_bytes"`
}

// PipelineConfig toggles pipeline observability.
type PipelineConfig struct {
	EnableTracing bool `yaml:"enable_tracing"`
	EnableMetrics bool `yaml:"enable_metrics"`
}

// DefaultCLIConfig returns the configuration used when config.yaml is
// absent or partial.
func DefaultCLIConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
			PrometheusPort: 9090,
		},
		Pipeline: PipelineConfig{
			EnableMetrics: true,
		},
	}
}
