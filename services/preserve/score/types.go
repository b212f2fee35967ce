// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package score

// =============================================================================
// DATA TYPES
// =============================================================================

// Confidence grades how reliable a preservation score is, driven by how
// many tests existed before the change.
type Confidence string

const (
	// ConfidenceNone means no valid comparison was possible.
	ConfidenceNone Confidence = "none"

	// ConfidenceLow means fewer than 3 baseline tests, or a test count
	// drift that invalidates direct comparison.
	ConfidenceLow Confidence = "low"

	// ConfidenceMedium means at least 3 baseline tests.
	ConfidenceMedium Confidence = "medium"

	// ConfidenceHigh means at least 10 baseline tests.
	ConfidenceHigh Confidence = "high"
)

// Verdict is the outcome of comparing two test runs.
//
// Score is nil whenever a valid comparison cannot be made; that is a
// first-class outcome, not an error. TestAccuracy is the after-run pass
// rate, nil under the same conditions.
type Verdict struct {
	Score        *float64   `json:"score"`
	TestAccuracy *float64   `json:"test_accuracy"`
	Confidence   Confidence `json:"confidence"`
	Rationale    string     `json:"rationale"`
}

// Comparable reports whether a score could be computed.
func (v Verdict) Comparable() bool {
	return v.Score != nil
}
