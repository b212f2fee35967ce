// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline sequences Snapshot -> Mutate -> Test -> Score -> Restore
// for batches of work items against a single shared project tree.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/refactorlab/preserve/pkg/validation"
	"github.com/refactorlab/preserve/services/preserve/harness"
	"github.com/refactorlab/preserve/services/preserve/mutate"
	"github.com/refactorlab/preserve/services/preserve/report"
	"github.com/refactorlab/preserve/services/preserve/score"
	"github.com/refactorlab/preserve/services/preserve/snapshot"
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs measurement batches against one project tree.
//
// Description:
//
//	The tree is a shared mutable resource: items are processed strictly one
//	at a time, and the snapshot/mutate/test/restore cycle is the sole
//	synchronization discipline. Every failure path still forces a restore;
//	only a failed restore (or a missing build tool) halts the batch early.
//	Flaky or failing tests are recorded as data, never retried.
//
// Thread Safety: NOT safe for concurrent use against the same project root.
// Run one batch at a time per Controller.
type Controller struct {
	root      string
	runner    *harness.Runner
	engine    *mutate.Engine
	snapshots *snapshot.Manager
	validate  *validator.Validate
	tracer    *Tracer
	cfg       *Config
	logger    *slog.Logger
}

// NewController creates a batch controller for one project root.
//
// Inputs:
//
//	root - Project tree the batch operates on
//	runner - Test harness for the project's build tool
//	logger - Logger for structured logging. Pass nil for slog.Default()
//	opts - Optional configuration overrides
//
// Outputs:
//
//	*Controller - Configured controller
func NewController(root string, runner *harness.Runner, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	SetMetricsEnabled(cfg.EnableMetrics)
	return &Controller{
		root:      root,
		runner:    runner,
		engine:    mutate.NewEngine(logger),
		snapshots: snapshot.NewManager(logger),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		tracer:    NewTracer(logger, cfg.EnableTracing),
		cfg:       cfg,
		logger:    logger,
	}
}

// RunBatch processes work items sequentially and returns one record each.
//
// Description:
//
//	Establishes a single baseline test run for the whole batch, then for
//	each item: snapshot, mutate, run tests, score against baseline,
//	restore. Per-item failures are converted into verdict-shaped records
//	and the batch continues. Two conditions are fatal: the build tool
//	being unavailable (returned as an error before any item runs) and a
//	failed restore (the batch stops with status aborted-at-index-N,
//	because the shared tree can no longer be trusted).
//
// Inputs:
//
//	ctx - Context for cancellation; cancellation aborts the batch
//	items - Work items to process, in order
//
// Outputs:
//
//	BatchResult - Records for every processed item plus terminal status
//	error - Non-nil only when the batch could not start
func (c *Controller) RunBatch(ctx context.Context, items []WorkItem) (BatchResult, error) {
	if ctx == nil {
		return BatchResult{}, ErrNilContext
	}
	if len(items) == 0 {
		return BatchResult{}, ErrNoWorkItems
	}
	if err := c.runner.CheckAvailable(); err != nil {
		return BatchResult{}, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	ctx, batchSpan := c.tracer.StartBatch(ctx, len(items))

	c.logger.Info("establishing baseline",
		slog.String("root", c.root),
		slog.Int("items", len(items)),
	)
	start := time.Now()
	baseline, err := c.runner.Run(ctx, c.root)
	recordTestRun(ctx, "baseline", time.Since(start), baseline.TimedOut)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrBaselineFailed, err)
		c.tracer.EndBatch(batchSpan, "", wrapped)
		return BatchResult{}, wrapped
	}
	if baseline.TimedOut {
		c.logger.Warn("baseline test run timed out; all verdicts will carry no confidence")
	} else {
		c.logger.Info("baseline established",
			slog.Int("tests_run", baseline.TestsRun),
			slog.Int("tests_passed", baseline.TestsPassed),
		)
	}

	result := BatchResult{Status: BatchCompleted, Baseline: baseline}
	for i, item := range items {
		if ctx.Err() != nil {
			rec := ItemRecord{Index: i, TargetFile: item.TargetFile, Kind: item.Kind}
			c.fail(&rec, StatePending, ctx.Err())
			result.Items = append(result.Items, rec)
			result.Status = AbortedAt(i)
			break
		}

		rec, fatal := c.runItem(ctx, i, item, baseline)
		result.Items = append(result.Items, rec)
		if fatal {
			result.Status = AbortedAt(i)
			c.logger.Error("batch aborted: project tree can no longer be trusted",
				slog.Int("index", i),
				slog.String("error", rec.Error),
			)
			break
		}
	}

	c.tracer.EndBatch(batchSpan, result.Status, nil)
	c.logger.Info("batch finished",
		slog.String("status", string(result.Status)),
		slog.Int("records", len(result.Items)),
	)
	return result, nil
}

// runItem drives one work item through the full cycle. The returned bool is
// true only for the fatal restore-failure condition.
func (c *Controller) runItem(ctx context.Context, index int, item WorkItem, baseline report.TestRunResult) (rec ItemRecord, fatal bool) {
	rec = ItemRecord{
		Index:      index,
		TargetFile: item.TargetFile,
		Kind:       item.Kind,
		State:      StatePending,
	}
	itemStart := time.Now()
	ctx, span := c.tracer.StartItem(ctx, index, item)
	defer func() {
		c.tracer.EndItem(span, rec)
		recordItem(ctx, item.Kind, rec.State, time.Since(itemStart))
	}()

	kind, err := c.checkItem(item)
	if err != nil {
		c.fail(&rec, StatePending, err)
		return rec, false
	}

	handle, err := c.snapshots.Snapshot(ctx, c.root)
	if err != nil {
		// Snapshot never touches the tree itself; nothing to restore.
		c.fail(&rec, StateSnapshotted, err)
		return rec, false
	}
	rec.State = StateSnapshotted

	mutRec, err := c.engine.Apply(kind, item.TargetFile, c.root, item.Parameters)
	if err != nil {
		// Project-wide kinds may have written some files before failing;
		// the restore below undoes any partial edit.
		c.fail(&rec, StateMutated, err)
		return rec, !c.restore(ctx, &rec, handle)
	}
	rec.Mutation = &mutRec
	rec.State = StateMutated
	recordMutation(ctx, item.Kind, len(mutRec.FilesTouched))

	runStart := time.Now()
	after, err := c.runner.Run(ctx, c.root)
	recordTestRun(ctx, "after", time.Since(runStart), after.TimedOut)
	if err != nil {
		c.fail(&rec, StateTested, err)
		return rec, !c.restore(ctx, &rec, handle)
	}
	rec.After = &after
	rec.State = StateTested
	if after.TimedOut {
		c.logger.Warn("test run timed out against mutated tree",
			slog.Int("index", index),
			slog.String("target_file", item.TargetFile),
		)
	} else if !after.HasTests() {
		c.logger.Info("no tests detected in output",
			slog.Int("index", index),
			slog.String("target_file", item.TargetFile),
		)
	}

	rec.Before = &baseline
	rec.Verdict = score.Compare(baseline, after)
	rec.State = StateScored
	if rec.Verdict.Comparable() {
		recordVerdict(ctx, item.Kind, *rec.Verdict.Score, string(rec.Verdict.Confidence))
	}
	c.logger.Info("item scored",
		slog.Int("index", index),
		slog.String("kind", item.Kind),
		slog.String("confidence", string(rec.Verdict.Confidence)),
		slog.String("rationale", rec.Verdict.Rationale),
	)

	if !c.restore(ctx, &rec, handle) {
		return rec, true
	}
	rec.State = StateRestored
	return rec, false
}

// checkItem validates a work item before any file is touched.
func (c *Controller) checkItem(item WorkItem) (mutate.Kind, error) {
	if err := c.validate.Struct(item); err != nil {
		return "", fmt.Errorf("invalid work item: %w", err)
	}
	if err := validation.ValidateRelPath(item.TargetFile); err != nil {
		return "", fmt.Errorf("invalid target file: %w", err)
	}
	kind, ok := mutate.ParseKind(item.Kind)
	if !ok {
		return "", fmt.Errorf("unknown transformation kind: %q", item.Kind)
	}
	if name, present := item.Parameters[mutate.ParamNewName]; present {
		if err := validation.ValidateIdentifier(name); err != nil {
			return "", fmt.Errorf("invalid new_name parameter: %w", err)
		}
	}
	if ann, present := item.Parameters[mutate.ParamAnnotation]; present {
		if err := validation.ValidateAnnotation(ann); err != nil {
			return "", fmt.Errorf("invalid annotation parameter: %w", err)
		}
	}
	return kind, nil
}

// fail marks a record as failed at a stage with a verdict-shaped outcome so
// reporting collaborators always see a confidence tier.
func (c *Controller) fail(rec *ItemRecord, stage State, err error) {
	rec.State = StateFailed
	rec.FailedStage = stage
	rec.Error = err.Error()
	rec.Verdict = score.Verdict{
		Confidence: score.ConfidenceNone,
		Rationale:  fmt.Sprintf("Not applied: %v", err),
	}
	c.logger.Warn("work item failed",
		slog.Int("index", rec.Index),
		slog.String("kind", rec.Kind),
		slog.String("stage", string(stage)),
		slog.String("error", rec.Error),
	)
}

// restore puts the tree back to its pre-mutation state. Returns false on
// the batch-fatal restore failure, recording it on the item.
func (c *Controller) restore(ctx context.Context, rec *ItemRecord, handle *snapshot.Handle) bool {
	err := c.snapshots.Restore(ctx, handle)
	recordRestore(ctx, err == nil)
	if err == nil {
		return true
	}
	rec.State = StateFailed
	rec.FailedStage = StateRestored
	if rec.Error != "" {
		rec.Error = fmt.Sprintf("%s; %s: %v", rec.Error, ErrRestoreFailed, err)
	} else {
		rec.Error = fmt.Sprintf("%s: %v", ErrRestoreFailed, err)
	}
	return false
}
