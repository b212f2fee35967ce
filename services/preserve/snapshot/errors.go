// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package snapshot

import "errors"

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrRootNotFound indicates the project root does not exist or is not
	// a directory.
	ErrRootNotFound = errors.New("project root not found")

	// ErrSnapshotFailed indicates the copy into snapshot storage failed.
	// Storage is cleaned up before this is returned.
	ErrSnapshotFailed = errors.New("snapshot copy failed")

	// ErrRestoreFailed indicates the project root could not be returned to
	// its pre-snapshot state. Callers must treat the tree as corrupted.
	ErrRestoreFailed = errors.New("snapshot restore failed")

	// ErrNilHandle indicates Restore was called with a nil handle.
	ErrNilHandle = errors.New("snapshot handle must not be nil")
)
