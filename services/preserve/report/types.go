// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package report

// =============================================================================
// TEST RUN RESULT
// =============================================================================

// TestRunResult contains structured counts extracted from one build-tool run.
type TestRunResult struct {
	// TestsRun is the total number of tests the tool reported executing.
	TestsRun int `json:"tests_run"`

	// TestsPassed is derived: TestsRun - TestsFailed - TestsErrors - TestsSkipped,
	// floored at zero.
	TestsPassed int `json:"tests_passed"`

	// TestsFailed is the number of assertion failures.
	TestsFailed int `json:"tests_failed"`

	// TestsErrors is the number of tests that errored before asserting.
	TestsErrors int `json:"tests_errors"`

	// TestsSkipped is the number of skipped tests.
	TestsSkipped int `json:"tests_skipped"`

	// BuildSucceeded reports whether the tool exited zero. Advisory only:
	// exit code alone cannot distinguish "no tests" from "all tests passed".
	BuildSucceeded bool `json:"build_succeeded"`

	// RawOutputExcerpt is a bounded tail of the tool output, kept for
	// logging and verdict records.
	RawOutputExcerpt string `json:"raw_output_excerpt,omitempty"`

	// TimedOut reports whether the run was cut off by the harness timeout.
	// A timed-out result always has TestsRun == 0.
	TimedOut bool `json:"timed_out,omitempty"`
}

// HasTests reports whether any tests were observed. TestsRun == 0 means
// either "no tests executed" or "parser found nothing"; the two are
// indistinguishable by design and both score as confidence none.
func (r TestRunResult) HasTests() bool {
	return r.TestsRun > 0
}
