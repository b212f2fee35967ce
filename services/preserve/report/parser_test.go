// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// surefireSingleModule is a trimmed capture of a single-module Maven run.
const surefireSingleModule = `[INFO] -------------------------------------------------------
[INFO]  T E S T S
[INFO] -------------------------------------------------------
[INFO] Running org.example.StringUtilsTest
[INFO] Tests run: 20, Failures: 2, Errors: 1, Skipped: 3, Time elapsed: 1.042 s
[INFO] BUILD SUCCESS
`

// surefireMultiModule has one summary line per module; counts must be summed.
const surefireMultiModule = `[INFO] Tests run: 10, Failures: 1, Errors: 0, Skipped: 0, Time elapsed: 0.5 s
[INFO] Reactor Summary:
[INFO] Tests run: 5, Failures: 0, Errors: 2, Skipped: 1, Time elapsed: 0.2 s
`

func TestParse_SummaryLine(t *testing.T) {
	got := Parse(surefireSingleModule)

	assert.Equal(t, 20, got.TestsRun)
	assert.Equal(t, 2, got.TestsFailed)
	assert.Equal(t, 1, got.TestsErrors)
	assert.Equal(t, 3, got.TestsSkipped)
	assert.Equal(t, 14, got.TestsPassed)
	assert.True(t, got.HasTests())
}

func TestParse_MultiModuleSums(t *testing.T) {
	got := Parse(surefireMultiModule)

	assert.Equal(t, 15, got.TestsRun)
	assert.Equal(t, 1, got.TestsFailed)
	assert.Equal(t, 2, got.TestsErrors)
	assert.Equal(t, 1, got.TestsSkipped)
	assert.Equal(t, 11, got.TestsPassed)
}

func TestParse_FallbackWindow(t *testing.T) {
	// Tools that wrap the summary defeat the structured pattern; the
	// fallback finds the marker and pulls four integers from the window.
	raw := `[INFO] Results:
[INFO]
[INFO] Tests run: 8 Failures 1 Errors 0 Skipped 2
`
	got := Parse(raw)

	require.Equal(t, 8, got.TestsRun)
	assert.Equal(t, 1, got.TestsFailed)
	assert.Equal(t, 0, got.TestsErrors)
	assert.Equal(t, 2, got.TestsSkipped)
	assert.Equal(t, 5, got.TestsPassed)
}

func TestParse_NoTests(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "error: POM not found\nexiting\n"},
		{"marker without numbers", "[INFO] Results:\n[INFO] done\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.Equal(t, 0, got.TestsRun)
			assert.Equal(t, 0, got.TestsPassed)
			assert.False(t, got.HasTests())
		})
	}
}

func TestParse_PassedFlooredAtZero(t *testing.T) {
	// Failures exceeding the run count must not drive passed negative.
	got := Parse("Tests run: 2, Failures: 3, Errors: 1, Skipped: 0\n")

	assert.Equal(t, 2, got.TestsRun)
	assert.Equal(t, 0, got.TestsPassed)
}

func TestExcerpt_Bounded(t *testing.T) {
	long := strings.Repeat("x", 1000) + "TAIL"
	got := Excerpt(long)

	assert.Len(t, got, maxExcerptBytes)
	assert.True(t, strings.HasSuffix(got, "TAIL"))

	short := "short output"
	assert.Equal(t, short, Excerpt(short))
}
