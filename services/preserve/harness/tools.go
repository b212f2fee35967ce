// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// =============================================================================
// BUILD TOOL CONFIGURATION
// =============================================================================

// ToolConfig defines how to invoke one external build tool's test phase.
//
// Args always include the tool's "continue past individual test failures"
// flag so one failing test does not abort measurement of the rest; exit
// codes stay advisory and counts come from parsed output.
type ToolConfig struct {
	// Name is the tool identifier (e.g., "maven", "gradle").
	Name string

	// Command is the binary to execute.
	Command string

	// Args are the arguments for the test phase.
	Args []string

	// MarkerFiles are project-root files whose presence identifies this
	// tool (e.g., "pom.xml").
	MarkerFiles []string
}

// =============================================================================
// TOOL REGISTRY
// =============================================================================

// ToolRegistry manages build tool configurations.
//
// Thread Safety: Safe for concurrent reads after initialization. Register
// operations should only be done during setup.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]*ToolConfig
	order []string
}

// NewToolRegistry creates a registry with the default tool configurations.
//
// Outputs:
//
//	*ToolRegistry - Registry with Maven and Gradle configs
func NewToolRegistry() *ToolRegistry {
	r := &ToolRegistry{tools: make(map[string]*ToolConfig)}
	r.registerDefaults()
	return r
}

// registerDefaults adds the default build tool configurations.
func (r *ToolRegistry) registerDefaults() {
	r.register(&ToolConfig{
		Name:        "maven",
		Command:     "mvn",
		Args:        []string{"test", "-Dmaven.test.failure.ignore=true"},
		MarkerFiles: []string{"pom.xml"},
	})
	r.register(&ToolConfig{
		Name:        "gradle",
		Command:     "gradle",
		Args:        []string{"test", "--continue"},
		MarkerFiles: []string{"build.gradle", "build.gradle.kts"},
	})
}

func (r *ToolRegistry) register(tc *ToolConfig) {
	r.tools[tc.Name] = tc
	r.order = append(r.order, tc.Name)
}

// Register adds or replaces a tool configuration.
func (r *ToolRegistry) Register(tc *ToolConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tc.Name]; !exists {
		r.order = append(r.order, tc.Name)
	}
	r.tools[tc.Name] = tc
}

// Get retrieves a tool configuration by name.
func (r *ToolRegistry) Get(name string) (*ToolConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.tools[name]
	return tc, ok
}

// Detect identifies the build tool for a project root by marker files,
// checked in registration order.
//
// Outputs:
//   - *ToolConfig: the matching tool.
//   - error: ErrUnknownTool when no marker file is present.
func (r *ToolRegistry) Detect(root string) (*ToolConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		tc := r.tools[name]
		for _, marker := range tc.MarkerFiles {
			if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
				return tc, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no marker file in %s", ErrUnknownTool, root)
}
