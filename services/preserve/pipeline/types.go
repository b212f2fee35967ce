// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"fmt"

	"github.com/refactorlab/preserve/services/preserve/mutate"
	"github.com/refactorlab/preserve/services/preserve/report"
	"github.com/refactorlab/preserve/services/preserve/score"
)

// =============================================================================
// STATES
// =============================================================================

// State tracks one work item through the measurement cycle.
type State string

const (
	// StatePending means the item has not started.
	StatePending State = "pending"

	// StateSnapshotted means the project tree was copied aside.
	StateSnapshotted State = "snapshotted"

	// StateMutated means the transformation was applied.
	StateMutated State = "mutated"

	// StateTested means the after-run completed.
	StateTested State = "tested"

	// StateScored means a verdict was produced.
	StateScored State = "scored"

	// StateRestored means the tree is back to its baseline state.
	// Terminal success state.
	StateRestored State = "restored"

	// StateFailed means a stage failed. The item still forces a restore
	// before the batch moves on.
	StateFailed State = "failed"
)

// IsTerminal reports whether no further transitions happen from s.
func (s State) IsTerminal() bool {
	return s == StateRestored || s == StateFailed
}

// =============================================================================
// DATA TYPES
// =============================================================================

// WorkItem is one unit of work: a target file, a transformation kind, and
// its parameters. Immutable once created by the caller.
type WorkItem struct {
	// TargetFile is the file to transform, relative to the project root.
	TargetFile string `json:"target_file" yaml:"target_file" validate:"required"`

	// Kind names one of the catalogue transformations.
	Kind string `json:"transformation_kind" yaml:"transformation_kind" validate:"required"`

	// Parameters are optional per-kind overrides (new_name, annotation).
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// ItemRecord is the per-item result emitted to reporting collaborators.
//
// Exactly one record exists per WorkItem in a finished batch, whatever
// happened to the item. A failed stage is captured in FailedStage and Error
// with the verdict degraded rather than dropped.
type ItemRecord struct {
	Index      int           `json:"index"`
	TargetFile string        `json:"target_file"`
	Kind       string        `json:"transformation_kind"`
	State      State         `json:"state"`
	Verdict    score.Verdict `json:"verdict"`

	// Mutation describes the applied edit; nil when the engine never ran
	// or found no candidate.
	Mutation *mutate.Record `json:"mutation,omitempty"`

	// Before and After are the structured counts the verdict was computed
	// from; nil when the corresponding run never happened.
	Before *report.TestRunResult `json:"before_counts,omitempty"`
	After  *report.TestRunResult `json:"after_counts,omitempty"`

	// FailedStage names the state during which Error occurred.
	FailedStage State  `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchStatus is the terminal status of a whole batch.
type BatchStatus string

// BatchCompleted means every item produced a record.
const BatchCompleted BatchStatus = "completed"

// AbortedAt builds the status for a batch halted by a fatal error while
// processing the item at the given index.
func AbortedAt(index int) BatchStatus {
	return BatchStatus(fmt.Sprintf("aborted-at-index-%d", index))
}

// BatchResult is the outcome of one RunBatch call: one record per processed
// WorkItem plus an explicit terminal status.
type BatchResult struct {
	Status   BatchStatus          `json:"status"`
	Baseline report.TestRunResult `json:"baseline"`
	Items    []ItemRecord         `json:"items"`
}

// Completed reports whether the batch processed every item.
func (b BatchResult) Completed() bool {
	return b.Status == BatchCompleted
}
