// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellTool builds a ToolConfig that runs an inline shell script, standing
// in for a real build tool.
func shellTool(script string) *ToolConfig {
	return &ToolConfig{
		Name:    "fake",
		Command: "sh",
		Args:    []string{"-c", script},
	}
}

func TestRunParsesToolOutput(t *testing.T) {
	tool := shellTool(`echo "Tests run: 5, Failures: 1, Errors: 0, Skipped: 0"`)
	r := NewRunner(tool, nil)

	result, err := r.Run(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.True(t, result.BuildSucceeded)
	assert.False(t, result.TimedOut)
	assert.Equal(t, 5, result.TestsRun)
	assert.Equal(t, 4, result.TestsPassed)
	assert.Equal(t, 1, result.TestsFailed)
}

func TestRunNonZeroExitStillParses(t *testing.T) {
	tool := shellTool(`echo "Tests run: 3, Failures: 3, Errors: 0, Skipped: 0"; exit 1`)
	r := NewRunner(tool, nil)

	result, err := r.Run(context.Background(), t.TempDir())
	require.NoError(t, err)

	// Exit code is advisory; counts still come from output.
	assert.False(t, result.BuildSucceeded)
	assert.Equal(t, 3, result.TestsRun)
	assert.Equal(t, 0, result.TestsPassed)
}

func TestRunTimeout(t *testing.T) {
	tool := shellTool(`sleep 5`)
	r := NewRunner(tool, nil, WithRunTimeout(time.Second))

	result, err := r.Run(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.True(t, result.TimedOut)
	assert.False(t, result.BuildSucceeded)
	assert.Equal(t, 0, result.TestsRun)
	assert.Contains(t, result.RawOutputExcerpt, "timed out")
}

func TestRunMissingRoot(t *testing.T) {
	r := NewRunner(shellTool("true"), nil)
	_, err := r.Run(context.Background(), "/nonexistent/project/root")
	assert.ErrorIs(t, err, ErrRootNotFound)
}

func TestRunNilContext(t *testing.T) {
	r := NewRunner(shellTool("true"), nil)
	//nolint:staticcheck // nil context is the case under test
	_, err := r.Run(nil, t.TempDir())
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestCheckAvailable(t *testing.T) {
	require.NoError(t, NewRunner(shellTool("true"), nil).CheckAvailable())

	missing := &ToolConfig{Name: "ghost", Command: "definitely-not-a-real-binary-42"}
	err := NewRunner(missing, nil).CheckAvailable()
	assert.ErrorIs(t, err, ErrToolUnavailable)
}

func TestRegistryDetect(t *testing.T) {
	reg := NewToolRegistry()

	mavenRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(mavenRoot, "pom.xml"), []byte("<project/>"), 0o644))
	tc, err := reg.Detect(mavenRoot)
	require.NoError(t, err)
	assert.Equal(t, "maven", tc.Name)
	assert.Contains(t, tc.Args, "-Dmaven.test.failure.ignore=true")

	gradleRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(gradleRoot, "build.gradle"), nil, 0o644))
	tc, err = reg.Detect(gradleRoot)
	require.NoError(t, err)
	assert.Equal(t, "gradle", tc.Name)
	assert.Contains(t, tc.Args, "--continue")

	_, err = reg.Detect(t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistryGetAndRegister(t *testing.T) {
	reg := NewToolRegistry()

	_, ok := reg.Get("bazel")
	assert.False(t, ok)

	reg.Register(&ToolConfig{Name: "bazel", Command: "bazel", Args: []string{"test", "//...", "--keep_going"}})
	tc, ok := reg.Get("bazel")
	require.True(t, ok)
	assert.Equal(t, "bazel", tc.Command)
}

func TestLimitedWriterTruncates(t *testing.T) {
	tool := shellTool(`head -c 4096 /dev/zero | tr '\0' 'x'`)
	r := NewRunner(tool, nil, WithMaxOutputBytes(1024))

	result, err := r.Run(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.RawOutputExcerpt), 300)
}
