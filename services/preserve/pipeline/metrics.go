// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for pipeline metrics.
var meter = otel.Meter("preserve.pipeline")

// Metric instruments for batch processing.
var (
	itemsTotal        metric.Int64Counter
	restoresTotal     metric.Int64Counter
	restoreFailures   metric.Int64Counter
	itemDuration      metric.Float64Histogram
	testRunDuration   metric.Float64Histogram
	preservationScore metric.Float64Histogram
	filesTouched      metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// metricsEnabled controls whether metrics are recorded.
// Set by the Controller on initialization.
//
// Thread Safety: Uses atomic operations for safe concurrent access.
var metricsEnabled atomic.Bool

func init() {
	metricsEnabled.Store(true)
}

// SetMetricsEnabled controls whether metrics are recorded.
//
// Thread Safety: Safe for concurrent use.
func SetMetricsEnabled(enabled bool) {
	metricsEnabled.Store(enabled)
}

// initMetrics initializes all metric instruments.
// Safe to call multiple times; uses sync.Once internally.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		itemsTotal, err = meter.Int64Counter(
			"preserve_items_total",
			metric.WithDescription("Total number of work items processed"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		restoresTotal, err = meter.Int64Counter(
			"preserve_restores_total",
			metric.WithDescription("Total number of snapshot restore operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		restoreFailures, err = meter.Int64Counter(
			"preserve_restore_failures_total",
			metric.WithDescription("Total number of failed restores (batch-fatal)"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		itemDuration, err = meter.Float64Histogram(
			"preserve_item_duration_seconds",
			metric.WithDescription("Duration of one full item cycle in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		testRunDuration, err = meter.Float64Histogram(
			"preserve_test_run_duration_seconds",
			metric.WithDescription("Duration of external test runs in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		preservationScore, err = meter.Float64Histogram(
			"preserve_score",
			metric.WithDescription("Preservation scores of comparable verdicts"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesTouched, err = meter.Int64Histogram(
			"preserve_files_touched",
			metric.WithDescription("Number of files edited per transformation"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordItem records the outcome of one work item cycle.
//
// # Inputs
//
//   - ctx: Context for metric recording.
//   - kind: The transformation kind processed.
//   - state: Terminal state of the item.
//   - duration: Full cycle duration.
func recordItem(ctx context.Context, kind string, state State, duration time.Duration) {
	if !metricsEnabled.Load() {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("state", string(state)),
	)
	itemsTotal.Add(ctx, 1, attrs)
	itemDuration.Record(ctx, duration.Seconds(), attrs)
}

// recordMutation records how many files one transformation touched.
func recordMutation(ctx context.Context, kind string, files int) {
	if !metricsEnabled.Load() {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}
	filesTouched.Record(ctx, int64(files), metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// recordTestRun records the duration of one external test run.
//
// # Inputs
//
//   - ctx: Context for metric recording.
//   - phase: "baseline" or "after".
//   - duration: Wall-clock run time.
//   - timedOut: Whether the run hit its timeout.
func recordTestRun(ctx context.Context, phase string, duration time.Duration, timedOut bool) {
	if !metricsEnabled.Load() {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}
	testRunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.Bool("timed_out", timedOut),
	))
}

// recordVerdict records a comparable preservation score.
func recordVerdict(ctx context.Context, kind string, scoreValue float64, confidence string) {
	if !metricsEnabled.Load() {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}
	preservationScore.Record(ctx, scoreValue, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("confidence", confidence),
	))
}

// recordRestore records a restore attempt.
func recordRestore(ctx context.Context, success bool) {
	if !metricsEnabled.Load() {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	restoresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if !success {
		restoreFailures.Add(ctx, 1)
	}
}
