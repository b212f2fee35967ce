// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/refactorlab/preserve/pkg/logging"
	"github.com/refactorlab/preserve/services/preserve/harness"
	"github.com/refactorlab/preserve/services/preserve/mutate"
	"github.com/refactorlab/preserve/services/preserve/pipeline"
	"github.com/refactorlab/preserve/services/preserve/score"
	"github.com/refactorlab/preserve/services/preserve/telemetry"
)

// BatchFile is the on-disk schema handed to the run subcommand.
type BatchFile struct {
	// ProjectRoot is the Java project under measurement.
	ProjectRoot string `yaml:"project_root"`

	// Tool optionally names the build tool (maven, gradle). Empty means
	// marker-file detection.
	Tool string `yaml:"tool"`

	// Items are processed in order, one snapshot/mutate/test/restore
	// cycle each.
	Items []pipeline.WorkItem `yaml:"items"`
}

var errNoProjectRoot = errors.New("no project root: set project_root in the batch file or pass --root")

// runBatch implements the run subcommand.
func runBatch(cmd *cobra.Command, args []string) error {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(config.Logging.Level),
		LogDir:  config.Logging.Dir,
		Service: "preserve",
		JSON:    config.Logging.JSON,
		Quiet:   config.Logging.Quiet,
	})
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tcfg := telemetry.DefaultConfig()
	tcfg.TraceExporter = config.Telemetry.TraceExporter
	tcfg.MetricExporter = config.Telemetry.MetricExporter
	if config.Telemetry.OTLPEndpoint != "" {
		tcfg.OTLPEndpoint = config.Telemetry.OTLPEndpoint
	}
	if config.Telemetry.PrometheusPort > 0 {
		tcfg.PrometheusPort = config.Telemetry.PrometheusPort
	}
	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	if handler := telemetry.MetricsHandler(); handler != nil {
		srv, addr, err := startMetricsServer(handler, tcfg.PrometheusPort)
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer srv.Close()
		logger.Info("metrics endpoint listening", "addr", addr, "path", "/metrics")
	}

	batch, err := loadBatchFile(batchPath)
	if err != nil {
		return err
	}
	if rootOverride != "" {
		batch.ProjectRoot = rootOverride
	}
	if toolOverride != "" {
		batch.Tool = toolOverride
	}
	if batch.ProjectRoot == "" {
		return errNoProjectRoot
	}

	tool, err := selectTool(batch)
	if err != nil {
		return err
	}
	logger.Info("build tool selected", "tool", tool.Name, "project_root", batch.ProjectRoot)

	var harnessOpts []harness.Option
	if config.Harness.RunTimeoutSeconds > 0 {
		harnessOpts = append(harnessOpts, harness.WithRunTimeout(time.Duration(config.Harness.RunTimeoutSeconds)*time.Second))
	}
	if config.Harness.MaxOutputBytes > 0 {
		harnessOpts = append(harnessOpts, harness.WithMaxOutputBytes(config.Harness.MaxOutputBytes))
	}
	runner := harness.NewRunner(tool, logger.Slog(), harnessOpts...)

	ctrl := pipeline.NewController(batch.ProjectRoot, runner, logger.Slog(),
		pipeline.WithTracing(config.Pipeline.EnableTracing),
		pipeline.WithMetrics(config.Pipeline.EnableMetrics),
	)

	result, err := ctrl.RunBatch(ctx, batch.Items)
	if err != nil {
		return fmt.Errorf("run batch: %w", err)
	}

	if err := emitResult(result); err != nil {
		return err
	}
	logSummary(logger, result)

	if !result.Completed() {
		return fmt.Errorf("batch ended with status %q", result.Status)
	}
	return nil
}

// loadBatchFile reads and decodes the batch YAML.
func loadBatchFile(path string) (BatchFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatchFile{}, fmt.Errorf("read batch file: %w", err)
	}
	var batch BatchFile
	if err := yaml.Unmarshal(raw, &batch); err != nil {
		return BatchFile{}, fmt.Errorf("parse batch file: %w", err)
	}
	return batch, nil
}

// selectTool resolves the build tool by name or by marker-file detection.
func selectTool(batch BatchFile) (*harness.ToolConfig, error) {
	registry := harness.NewToolRegistry()
	if batch.Tool != "" {
		tool, ok := registry.Get(batch.Tool)
		if !ok {
			return nil, fmt.Errorf("unknown build tool %q", batch.Tool)
		}
		return tool, nil
	}
	tool, err := registry.Detect(batch.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("detect build tool: %w", err)
	}
	return tool, nil
}

// startMetricsServer serves handler at /metrics until the returned server
// is closed. Port 0 picks an ephemeral port; the bound address is returned.
func startMetricsServer(handler http.Handler, port int) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, "", err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Handler: mux}
	go func() {
		_ = srv.Serve(ln)
	}()
	return srv, ln.Addr().String(), nil
}

// emitResult writes the batch result as indented JSON to stdout or --out.
func emitResult(result pipeline.BatchResult) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "" {
		_, err = os.Stdout.Write(encoded)
		return err
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// logSummary reports score-band counts and averages for the batch.
func logSummary(logger *logging.Logger, result pipeline.BatchResult) {
	var excellent, good, partial, poor, failed int
	var sum float64
	var scored int
	var highSum float64
	var highScored int

	for _, item := range result.Items {
		if !item.Verdict.Comparable() {
			failed++
			continue
		}
		s := *item.Verdict.Score
		scored++
		sum += s
		if item.Verdict.Confidence == score.ConfidenceHigh {
			highScored++
			highSum += s
		}
		switch {
		case s >= 0.95:
			excellent++
		case s >= 0.8:
			good++
		case s >= 0.5:
			partial++
		default:
			poor++
		}
	}

	args := []any{
		"status", string(result.Status),
		"items", len(result.Items),
		"excellent", excellent,
		"good", good,
		"partial", partial,
		"poor", poor,
		"no_verdict", failed,
	}
	if scored > 0 {
		args = append(args, "avg_score", fmt.Sprintf("%.3f", sum/float64(scored)))
	}
	if highScored > 0 {
		args = append(args, "avg_score_high_confidence", fmt.Sprintf("%.3f", highSum/float64(highScored)))
	}
	logger.Info("batch summary", args...)
}

// runKinds implements the kinds subcommand.
func runKinds(cmd *cobra.Command, args []string) {
	for _, k := range mutate.AllKinds() {
		fmt.Println(k)
	}
}
