// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutate

// =============================================================================
// DATA TYPES
// =============================================================================

// Record describes one applied transformation.
//
// FilesTouched lists every file the transformation edited, the target file
// first, the rest in sorted path order. Line is the 1-based line of the
// primary edit in the target file.
type Record struct {
	Kind         Kind     `json:"kind"`
	OldSymbol    string   `json:"old_symbol"`
	NewSymbol    string   `json:"new_symbol"`
	File         string   `json:"file"`
	Line         int      `json:"line"`
	FilesTouched []string `json:"files_touched"`
}

// typeWidenings maps a return or field type to its behavior-compatible
// replacement. Widenings only; narrowing conversions change runtime
// behavior and are never generated.
var typeWidenings = map[string]string{
	"int":     "long",
	"boolean": "Boolean",
	"String":  "Object",
}

// attributeAllowList restricts attribute (field) type changes to wrapper
// classes whose call sites survive the substitution textually.
var attributeAllowList = map[string]bool{
	"String":  true,
	"Boolean": true,
	"Integer": true,
}
