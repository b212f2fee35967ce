// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutate

import "errors"

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrFileNotFound indicates the target file does not exist under the
	// project root.
	ErrFileNotFound = errors.New("target file not found")

	// ErrNoCandidate indicates no textual site matched the transformation's
	// selection rule. Recorded as "not applied", never fatal.
	ErrNoCandidate = errors.New("no candidate site found")

	// ErrAlreadyApplied indicates the target state already holds, e.g. the
	// annotation is already present above the method.
	ErrAlreadyApplied = errors.New("transformation already applied")

	// ErrUnsupportedType indicates the matched declaration uses a type with
	// no safe conversion mapping.
	ErrUnsupportedType = errors.New("no safe mapping for type")

	// ErrUnknownKind indicates a transformation kind outside the catalogue.
	ErrUnknownKind = errors.New("unknown transformation kind")
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ApplyError wraps a per-file edit failure with its location.
type ApplyError struct {
	// Kind is the transformation being applied.
	Kind Kind

	// File is the file being edited when the failure occurred.
	File string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	return "applying " + string(e.Kind) + " to " + e.File + ": " + e.Cause.Error()
}

// Unwrap returns the underlying error.
func (e *ApplyError) Unwrap() error {
	return e.Cause
}
