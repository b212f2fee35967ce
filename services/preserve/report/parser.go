// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package report extracts structured test counts from raw build-tool output.
//
// The parser is total: any input, including garbage or empty output, yields
// a TestRunResult. It is expressed as an ordered chain of pure strategies so
// each tier can be unit-tested against literal captured output and swapped
// without touching callers.
package report

import (
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// PARSER
// =============================================================================

// summaryPattern matches the Surefire-style per-module summary line:
// "Tests run: 123, Failures: 4, Errors: 1, Skipped: 2".
// The line repeats once per module in multi-module builds; counts are summed.
var summaryPattern = regexp.MustCompile(`Tests run: (\d+),\s*Failures: (\d+),\s*Errors: (\d+),\s*Skipped: (\d+)`)

// intPattern extracts bare integers for the fallback window scan.
var intPattern = regexp.MustCompile(`\d+`)

// fallbackWindow is how many lines after a results marker the fallback
// strategy scans for four consecutive integers.
const fallbackWindow = 5

// maxExcerptBytes bounds the raw output excerpt kept on the result.
const maxExcerptBytes = 300

// counts is the intermediate shape shared by parse strategies.
type counts struct {
	run, failures, errors, skipped int
}

// strategy is one tier of the parse chain. It returns the extracted counts
// and whether it found anything.
type strategy func(lines []string) (counts, bool)

// Parse extracts test counts from raw tool output.
//
// Description:
//
//	Runs the strategy chain in order and stops at the first tier that
//	reports a non-zero run count. If every tier comes up empty, all counts
//	are zero, which downstream scoring treats as "no tests" rather than
//	zero failures. Parse never returns an error.
//
// Inputs:
//
//	raw - Combined stdout/stderr of the build tool.
//
// Outputs:
//
//	TestRunResult - Structured counts with TestsPassed derived.
func Parse(raw string) TestRunResult {
	lines := strings.Split(raw, "\n")

	var c counts
	for _, s := range []strategy{parseSummaryLines, parseResultsWindow} {
		if got, ok := s(lines); ok {
			c = got
			break
		}
	}

	passed := c.run - c.failures - c.errors - c.skipped
	if passed < 0 {
		passed = 0
	}

	return TestRunResult{
		TestsRun:         c.run,
		TestsPassed:      passed,
		TestsFailed:      c.failures,
		TestsErrors:      c.errors,
		TestsSkipped:     c.skipped,
		RawOutputExcerpt: Excerpt(raw),
	}
}

// Excerpt returns the bounded tail of raw output kept on results.
func Excerpt(raw string) string {
	if len(raw) > maxExcerptBytes {
		return raw[len(raw)-maxExcerptBytes:]
	}
	return raw
}

// parseSummaryLines is the primary strategy: sum every structured summary
// line in the output. Multi-module builds emit one line per module.
func parseSummaryLines(lines []string) (counts, bool) {
	var c counts
	for _, line := range lines {
		m := summaryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		c.run += mustAtoi(m[1])
		c.failures += mustAtoi(m[2])
		c.errors += mustAtoi(m[3])
		c.skipped += mustAtoi(m[4])
	}
	return c, c.run > 0
}

// parseResultsWindow is the fallback strategy: locate a results-marker line
// and scan a small forward window for four integers in summary order.
// Used when the primary pattern matched nothing, e.g. when the tool wraps
// or reformats the summary.
func parseResultsWindow(lines []string) (counts, bool) {
	for i, line := range lines {
		if !strings.Contains(line, "Results:") && !strings.Contains(line, "Tests run:") {
			continue
		}
		end := i + fallbackWindow
		if end > len(lines) {
			end = len(lines)
		}
		for j := i; j < end; j++ {
			if !strings.Contains(lines[j], "Tests run:") {
				continue
			}
			nums := intPattern.FindAllString(lines[j], -1)
			if len(nums) < 4 {
				continue
			}
			c := counts{
				run:      mustAtoi(nums[0]),
				failures: mustAtoi(nums[1]),
				errors:   mustAtoi(nums[2]),
				skipped:  mustAtoi(nums[3]),
			}
			if c.run > 0 {
				return c, true
			}
		}
	}
	return counts{}, false
}

// mustAtoi converts regexp-matched digits. The pattern guarantees digits,
// so conversion cannot fail; overflow degrades to zero.
func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
