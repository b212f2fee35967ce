// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package score turns two parsed test runs into a single preservation
// verdict with a confidence tier.
package score

import (
	"fmt"

	"github.com/refactorlab/preserve/services/preserve/report"
)

// maxCountDrift is the largest tolerated difference in total test counts
// between the two runs. Beyond it the runs are not directly comparable.
const maxCountDrift = 2

// Compare scores how well a transformation preserved behavior.
//
// Description:
//
//	Total over all inputs; never returns an error and always sets a
//	confidence tier. Decision order: no tests on either side yields a nil
//	score with confidence none; a test count drift beyond maxCountDrift
//	yields a nil score with confidence low; otherwise the score is the
//	fraction of previously passing tests that still pass, with a zero
//	baseline scoring 1.0 only when the after run also has zero passes.
//
// Inputs:
//
//	before - Baseline test run, taken before the transformation
//	after - Test run against the transformed tree
//
// Outputs:
//
//	Verdict - Score (possibly nil), confidence tier, and rationale citing
//	the literal counts
//
// Thread Safety: Pure function, safe for concurrent use.
func Compare(before, after report.TestRunResult) Verdict {
	if before.TestsRun == 0 || after.TestsRun == 0 {
		return Verdict{
			Confidence: ConfidenceNone,
			Rationale:  "No tests available",
		}
	}

	drift := before.TestsRun - after.TestsRun
	if drift < 0 {
		drift = -drift
	}
	if drift > maxCountDrift {
		return Verdict{
			Confidence: ConfidenceLow,
			Rationale:  fmt.Sprintf("Test count changed: %d -> %d", before.TestsRun, after.TestsRun),
		}
	}

	var preservation float64
	if before.TestsPassed == 0 {
		if after.TestsPassed == 0 {
			preservation = 1.0
		}
	} else {
		preserved := min(before.TestsPassed, after.TestsPassed)
		preservation = float64(preserved) / float64(before.TestsPassed)
	}
	accuracy := float64(after.TestsPassed) / float64(after.TestsRun)

	confidence := ConfidenceLow
	switch {
	case before.TestsRun >= 10:
		confidence = ConfidenceHigh
	case before.TestsRun >= 3:
		confidence = ConfidenceMedium
	}

	band := "Poor"
	switch {
	case preservation >= 0.95:
		band = "Excellent"
	case preservation >= 0.8:
		band = "Good"
	case preservation >= 0.5:
		band = "Partial"
	}

	return Verdict{
		Score:        &preservation,
		TestAccuracy: &accuracy,
		Confidence:   confidence,
		Rationale: fmt.Sprintf("%s preservation: %d/%d tests still pass",
			band, after.TestsPassed, before.TestsPassed),
	}
}
