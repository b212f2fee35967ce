// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// file paths, regular expressions, or subprocess calls. Using these validators
// prevents injection attacks (command injection, path traversal) before a work
// item touches a project tree.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// identifierPattern matches valid Java identifiers.
// Max length: 128 characters, far beyond anything found in real code.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]{0,127}$`)

// annotationPattern matches a simple Java annotation token like @Override
// or @SuppressWarnings. Arguments are not allowed; an annotation with
// arguments would be inserted verbatim into source files.
var annotationPattern = regexp.MustCompile(`^@[A-Za-z_$][A-Za-z0-9_$.]{0,127}$`)

// ValidateRelPath validates a project-relative file path.
//
// Valid paths:
//   - Non-empty, relative (no leading / or drive letter)
//   - No parent traversal after cleaning (no escaping the project root)
//   - No NUL or newline bytes
//
// Returns an error if the path is invalid.
//
// Example:
//
//	if err := validation.ValidateRelPath(item.TargetFile); err != nil {
//	    return fmt.Errorf("invalid target file: %w", err)
//	}
//	// Safe to join with the project root
func ValidateRelPath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsAny(path, "\x00\n") {
		return fmt.Errorf("path contains control characters")
	}
	if filepath.IsAbs(path) {
		return fmt.Errorf("path must be relative: %q", path)
	}
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes project root: %q", path)
	}
	return nil
}

// ValidateIdentifier validates a Java identifier supplied as a transformation
// parameter. The identifier ends up inside generated regular expressions and
// rewritten source, so anything outside the identifier grammar is rejected.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier: %q (must be a Java identifier, max 128 chars)", name)
	}
	return nil
}

// ValidateAnnotation validates an annotation parameter like "@Override".
// The text is inserted verbatim above a method declaration, so only a bare
// annotation token is accepted.
func ValidateAnnotation(annotation string) error {
	if annotation == "" {
		return fmt.Errorf("annotation cannot be empty")
	}
	if !annotationPattern.MatchString(annotation) {
		return fmt.Errorf("invalid annotation: %q (must be @Name with no arguments)", annotation)
	}
	return nil
}
