// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutate

import (
	"regexp"
	"strings"
)

// =============================================================================
// MATCHER INTERFACE
// =============================================================================

// Candidate is the textual site a matching rule selected for editing.
type Candidate struct {
	// Start and End are byte offsets of the match in the file content.
	Start int
	End   int

	// Line is the 1-based line number of Start.
	Line int

	// Groups holds the rule's capture groups, Groups[0] being the full match.
	Groups []string
}

// Matcher selects the candidate site for one transformation rule.
//
// Selection is deterministic: implementations return the first lexical match
// in file order, so repeated runs over identical input pick the same site.
// Matching is purely textual; swapping an implementation for an AST-backed
// one must not require changes to the edit-application code.
type Matcher interface {
	// Scan returns the selected candidate and whether one was found.
	Scan(content string) (Candidate, bool)
}

// =============================================================================
// REGEXP MATCHERS
// =============================================================================

// regexpMatcher selects the first match of a pattern, optionally filtered.
// The filter rejects individual matches (e.g. capitalized identifiers);
// scanning continues to the next lexical match.
type regexpMatcher struct {
	pattern *regexp.Regexp
	accept  func(groups []string) bool
}

// Scan implements Matcher.
func (m *regexpMatcher) Scan(content string) (Candidate, bool) {
	for _, idx := range m.pattern.FindAllStringSubmatchIndex(content, -1) {
		groups := make([]string, 0, len(idx)/2)
		for g := 0; g < len(idx); g += 2 {
			if idx[g] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, content[idx[g]:idx[g+1]])
		}
		if m.accept != nil && !m.accept(groups) {
			continue
		}
		return Candidate{
			Start:  idx[0],
			End:    idx[1],
			Line:   lineAt(content, idx[0]),
			Groups: groups,
		}, true
	}
	return Candidate{}, false
}

// lineAt returns the 1-based line number of a byte offset.
func lineAt(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}

// Method header: modifier, optional static, return type, name, open paren.
// Group 1 modifier, 2 return type, 3 name.
var methodHeaderPattern = regexp.MustCompile(`(public|private|protected)\s+(?:static\s+)?(\w+)\s+(\w+)\s*\([^)]*\)\s*\{`)

// Local variable declaration: type, name, assignment.
// Group 1 type, 2 name.
var varDeclPattern = regexp.MustCompile(`(\w+)\s+(\w+)\s*=`)

// Call expression: receiver.method(args) with a flat argument list.
// Group 1 receiver, 2 method, 3 args.
var callExprPattern = regexp.MustCompile(`(\w+)\.(\w+)\(([^()]*)\)`)

// Method header with a convertible return type.
// Group 1 modifier, 2 return type, 3 name.
var returnTypePattern = regexp.MustCompile(`(public|private|protected)\s+(?:static\s+)?(String|int|boolean)\s+(\w+)\s*\([^)]*\)\s*\{`)

// Field declaration: indent, modifier, optional static, type, name, = or ;.
// Group 1 indent, 2 modifier, 3 static, 4 type, 5 name, 6 terminator.
var fieldDeclPattern = regexp.MustCompile(`(?m)^(\s*)(private|protected|public)\s+(static\s+)?(\w+)\s+(\w+)\s*([=;])`)

// Package declaration. Group 1 package name.
var packageDeclPattern = regexp.MustCompile(`(?m)^package\s+([\w.]+)\s*;`)

// newMethodHeaderMatcher selects the first method declaration.
func newMethodHeaderMatcher() Matcher {
	return &regexpMatcher{pattern: methodHeaderPattern}
}

// newVarDeclMatcher selects the first local declaration whose identifier is
// not capitalized. A capitalized "identifier" in this position is almost
// always a type name from a mis-matched generic or a constant.
func newVarDeclMatcher() Matcher {
	return &regexpMatcher{
		pattern: varDeclPattern,
		accept: func(groups []string) bool {
			name := groups[2]
			return name != "" && !isCapitalized(name) && !isReservedWord(groups[1])
		},
	}
}

// newCallExprMatcher selects the first receiver.method(args) expression.
func newCallExprMatcher() Matcher {
	return &regexpMatcher{pattern: callExprPattern}
}

// newReturnTypeMatcher selects the first method header whose return type has
// a safe widening.
func newReturnTypeMatcher() Matcher {
	return &regexpMatcher{pattern: returnTypePattern}
}

// newFieldDeclMatcher selects the first field declaration. Type filtering
// is the caller's concern: an unconvertible first field is a typed failure,
// not a reason to scan past it.
func newFieldDeclMatcher() Matcher {
	return &regexpMatcher{pattern: fieldDeclPattern}
}

// newPackageDeclMatcher selects the file's package declaration.
func newPackageDeclMatcher() Matcher {
	return &regexpMatcher{pattern: packageDeclPattern}
}

// isCapitalized reports whether the first byte is an upper-case ASCII letter.
func isCapitalized(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

// isReservedWord rejects declaration "types" that are actually keywords,
// which the flat pattern can pick up in for-loops and returns.
func isReservedWord(s string) bool {
	switch s {
	case "return", "new", "if", "while", "for", "case", "throw":
		return true
	}
	return false
}
