// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import "errors"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNilContext is returned when a nil context is provided.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNoWorkItems is returned when RunBatch is called with an empty
	// batch.
	ErrNoWorkItems = errors.New("no work items")

	// ErrToolUnavailable is returned when the build tool cannot be found;
	// no measurement is possible so the batch never starts.
	ErrToolUnavailable = errors.New("build tool unavailable")

	// ErrBaselineFailed is returned when the baseline test run could not
	// be attempted.
	ErrBaselineFailed = errors.New("baseline test run failed")

	// ErrRestoreFailed marks the single fatal per-item condition: the
	// project tree could not be returned to its pre-mutation state, so
	// every subsequent measurement would be against a corrupted tree.
	ErrRestoreFailed = errors.New("snapshot restore failed")
)
