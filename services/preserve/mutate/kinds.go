// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutate

// =============================================================================
// TRANSFORMATION KINDS
// =============================================================================

// Kind identifies one transformation in the catalogue.
type Kind string

const (
	// KindRenameMethod rewrites a method declaration and every call site
	// across the project.
	KindRenameMethod Kind = "Rename Method"

	// KindRenameVariable rewrites a local variable within its file.
	KindRenameVariable Kind = "Rename Variable"

	// KindExtractVariable hoists a call expression into a new local.
	KindExtractVariable Kind = "Extract Variable"

	// KindExtractMethod moves an interior statement slice into a private
	// helper and replaces it with a call.
	KindExtractMethod Kind = "Extract Method"

	// KindAddAnnotation inserts an annotation line above a method header.
	KindAddAnnotation Kind = "Add Method Annotation"

	// KindChangeReturnType widens a method's declared return type.
	KindChangeReturnType Kind = "Change Return Type"

	// KindChangeAttributeType widens a field's declared type and matching
	// accessor signatures.
	KindChangeAttributeType Kind = "Change Attribute Type"

	// KindMoveClass rewrites the package declaration and fixes imports in
	// every other file referencing the class.
	KindMoveClass Kind = "Move Class"
)

// String returns the catalogue name of the kind.
func (k Kind) String() string {
	return string(k)
}

// AllKinds returns the full transformation catalogue in a stable order.
func AllKinds() []Kind {
	return []Kind{
		KindRenameMethod,
		KindRenameVariable,
		KindExtractVariable,
		KindExtractMethod,
		KindAddAnnotation,
		KindChangeReturnType,
		KindChangeAttributeType,
		KindMoveClass,
	}
}

// ParseKind maps a catalogue name to its Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// =============================================================================
// PARAMETER KEYS
// =============================================================================

// Parameter keys recognized in WorkItem.Parameters. All are optional; every
// kind has a deterministic default.
const (
	// ParamNewName overrides the derived name for rename kinds.
	ParamNewName = "new_name"

	// ParamAnnotation overrides the annotation text for KindAddAnnotation.
	// Default: "@Override".
	ParamAnnotation = "annotation"
)

// renameSuffix is appended to the old symbol when no new name is supplied.
const renameSuffix = "Renamed"

// defaultAnnotation is inserted when no annotation parameter is supplied.
// @Override is behavior-neutral on any method that already overrides.
const defaultAnnotation = "@Override"
