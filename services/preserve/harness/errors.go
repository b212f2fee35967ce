// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package harness

import "errors"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNilContext is returned when a nil context is provided.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrUnknownTool is returned when no registered build tool matches the
	// requested name or the project layout.
	ErrUnknownTool = errors.New("unknown build tool")

	// ErrToolUnavailable is returned when the build tool binary cannot be
	// found on PATH. This aborts a batch: no measurement is possible.
	ErrToolUnavailable = errors.New("build tool not available")

	// ErrRootNotFound is returned when the project root does not exist.
	ErrRootNotFound = errors.New("project root not found")
)
