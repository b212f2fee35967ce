// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/refactorlab/preserve/services/preserve/report"
)

// =============================================================================
// TEST RUNNER
// =============================================================================

// Runner executes a project's external build/test tool and parses results.
//
// Description:
//
//	Each run invokes the configured tool with its continue-past-failures
//	flag, working directory set to the project root, bounded by a hard
//	wall-clock timeout. Counts always come from parsed output; the exit
//	code is advisory only, because it cannot distinguish "no tests" from
//	"all tests passed". A timed-out run yields a result with TimedOut set
//	and a marker in the excerpt rather than an error, so downstream stages
//	can record it as a data point.
//
// Thread Safety: Safe for concurrent use. Each execution creates its own
// process.
type Runner struct {
	tool   *ToolConfig
	cfg    *Config
	logger *slog.Logger
}

// NewRunner creates a test runner for one build tool.
//
// Inputs:
//
//	tool - Build tool configuration, typically from a ToolRegistry
//	logger - Logger for structured logging. Pass nil for slog.Default()
//	opts - Optional configuration overrides
//
// Outputs:
//
//	*Runner - Configured runner
func NewRunner(tool *ToolConfig, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	_ = cfg.Validate()
	return &Runner{tool: tool, cfg: cfg, logger: logger}
}

// CheckAvailable verifies the tool binary can be found on PATH.
//
// Outputs:
//
//	error - ErrToolUnavailable when the binary is missing
func (r *Runner) CheckAvailable() error {
	if _, err := exec.LookPath(r.tool.Command); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrToolUnavailable, r.tool.Command, err)
	}
	return nil
}

// Run executes the test phase for a project and parses the output.
//
// Description:
//
//	Invokes the tool inside projectRoot and feeds combined stdout/stderr to
//	the result parser. On timeout the returned result has TimedOut=true,
//	BuildSucceeded=false and a timeout marker in the excerpt; this is a
//	recorded outcome, not an error. An error is returned only when the
//	process could not be started at all.
//
// Inputs:
//
//	ctx - Context for cancellation; the run timeout is layered on top
//	projectRoot - Directory to run the tool in
//
// Outputs:
//
//	report.TestRunResult - Parsed counts plus build status
//	error - Non-nil when the run could not be attempted
//
// Thread Safety: Safe for concurrent use.
func (r *Runner) Run(ctx context.Context, projectRoot string) (report.TestRunResult, error) {
	if ctx == nil {
		return report.TestRunResult{}, ErrNilContext
	}
	if info, err := os.Stat(projectRoot); err != nil || !info.IsDir() {
		return report.TestRunResult{}, fmt.Errorf("%w: %s", ErrRootNotFound, projectRoot)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.RunTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.tool.Command, r.tool.Args...)
	cmd.Dir = projectRoot

	var out bytes.Buffer
	limited := &limitedWriter{w: &out, limit: r.cfg.MaxOutputBytes}
	cmd.Stdout = limited
	cmd.Stderr = limited

	r.logger.Debug("Executing build tool",
		slog.String("tool", r.tool.Name),
		slog.String("command", r.tool.Command),
		slog.Any("args", r.tool.Args),
		slog.Duration("timeout", r.cfg.RunTimeout),
	)

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		r.logger.Warn("Test run timed out",
			slog.String("tool", r.tool.Name),
			slog.Duration("timeout", r.cfg.RunTimeout),
		)
		return report.TestRunResult{
			BuildSucceeded:   false,
			TimedOut:         true,
			RawOutputExcerpt: fmt.Sprintf("[timed out after %s]", r.cfg.RunTimeout),
		}, nil
	}

	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			return report.TestRunResult{}, fmt.Errorf("command execution failed: %w", runErr)
		}
	}

	result := report.Parse(out.String())
	result.BuildSucceeded = runErr == nil
	result.TimedOut = false

	r.logger.Info("Test run completed",
		slog.String("tool", r.tool.Name),
		slog.Bool("build_succeeded", result.BuildSucceeded),
		slog.Int("tests_run", result.TestsRun),
		slog.Int("tests_passed", result.TestsPassed),
		slog.Duration("duration", duration),
		slog.Int("output_bytes", out.Len()),
		slog.Bool("truncated", limited.truncated),
	)
	return result, nil
}

// =============================================================================
// LIMITED WRITER
// =============================================================================

// limitedWriter wraps a writer with a size limit.
type limitedWriter struct {
	w         io.Writer
	limit     int
	written   int
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (n int, err error) {
	if lw.written >= lw.limit {
		lw.truncated = true
		return len(p), nil // Silently discard
	}
	remaining := lw.limit - lw.written
	if len(p) > remaining {
		lw.truncated = true
		n, err = lw.w.Write(p[:remaining])
		lw.written += n
		return len(p), err
	}
	n, err = lw.w.Write(p)
	lw.written += n
	return n, err
}
