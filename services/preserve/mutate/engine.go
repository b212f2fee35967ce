// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutate

import (
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies one transformation from the catalogue to a Java project.
//
// Description:
//
//	The engine works purely textually: candidate sites are selected by the
//	Matcher rules in this package, always the first lexical match, and edits
//	are plain string rewrites. Project-wide kinds (Rename Method, Move Class)
//	walk every .java file under the project root in sorted path order so the
//	set and order of touched files is reproducible. The engine never creates
//	or deletes files; it only rewrites existing ones under the project root.
//
// Thread Safety: an Engine holds no mutable state and is safe for concurrent
// use, but concurrent Apply calls against the same project root race on the
// files themselves. Callers serialize per root.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a mutation engine.
//
// Inputs:
//   - logger: structured logger. Pass nil to use slog.Default().
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Apply performs one transformation and reports what it changed.
//
// Description:
//
//	Dispatches on kind, selects the first candidate site in the target file,
//	performs the edit, and for project-wide kinds propagates reference
//	rewrites across all .java files under projectRoot. All failures are
//	typed: ErrNoCandidate when no site matches, ErrAlreadyApplied when the
//	target state already holds, ErrUnsupportedType when the selected site's
//	type has no safe conversion. On any error no partial state is promised;
//	callers run under a snapshot and restore on failure.
//
// Inputs:
//   - kind: catalogue entry to apply.
//   - targetFile: path of the file to transform, absolute or relative to
//     projectRoot.
//   - projectRoot: root of the project tree; edits never escape it.
//   - params: optional per-kind parameters (ParamNewName, ParamAnnotation).
//
// Outputs:
//   - Record: description of the applied edit, target file first in
//     FilesTouched.
//   - error: *ApplyError wrapping a sentinel from this package or an I/O
//     error.
func (e *Engine) Apply(kind Kind, targetFile, projectRoot string, params map[string]string) (Record, error) {
	target := targetFile
	if !filepath.IsAbs(target) {
		target = filepath.Join(projectRoot, targetFile)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, &ApplyError{Kind: kind, File: targetFile, Cause: ErrFileNotFound}
		}
		return Record{}, &ApplyError{Kind: kind, File: targetFile, Cause: err}
	}

	var rec Record
	switch kind {
	case KindRenameMethod:
		rec, err = e.renameMethod(string(content), target, projectRoot, params)
	case KindRenameVariable:
		rec, err = e.renameVariable(string(content), target, params)
	case KindExtractVariable:
		rec, err = e.extractVariable(string(content), target)
	case KindExtractMethod:
		rec, err = e.extractMethod(string(content), target)
	case KindAddAnnotation:
		rec, err = e.addAnnotation(string(content), target, params)
	case KindChangeReturnType:
		rec, err = e.changeReturnType(string(content), target)
	case KindChangeAttributeType:
		rec, err = e.changeAttributeType(string(content), target)
	case KindMoveClass:
		rec, err = e.moveClass(string(content), target, projectRoot)
	default:
		err = ErrUnknownKind
	}
	if err != nil {
		return Record{}, &ApplyError{Kind: kind, File: targetFile, Cause: err}
	}

	rec.Kind = kind
	rec.File = relToRoot(projectRoot, target)
	for i, f := range rec.FilesTouched {
		rec.FilesTouched[i] = relToRoot(projectRoot, f)
	}
	e.logger.Info("transformation applied",
		"kind", kind.String(),
		"file", rec.File,
		"old_symbol", rec.OldSymbol,
		"new_symbol", rec.NewSymbol,
		"files_touched", len(rec.FilesTouched))
	return rec, nil
}

// =============================================================================
// RENAME
// =============================================================================

// renameMethod renames the first declared method and every call site of it
// across the project. The call-site pattern `name(` on a word boundary also
// rewrites the declaration itself.
func (e *Engine) renameMethod(content, target, root string, params map[string]string) (Record, error) {
	cand, ok := newMethodHeaderMatcher().Scan(content)
	if !ok {
		return Record{}, ErrNoCandidate
	}
	oldName := cand.Groups[3]
	newName := params[ParamNewName]
	if newName == "" {
		if strings.HasSuffix(oldName, renameSuffix) {
			return Record{}, ErrAlreadyApplied
		}
		newName = oldName + renameSuffix
	}

	callPattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(oldName) + `\s*\(`)
	if err != nil {
		return Record{}, err
	}

	files, err := listJavaFiles(root)
	if err != nil {
		return Record{}, err
	}
	var touched []string
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		updated := callPattern.ReplaceAllString(string(data), newName+"(")
		if updated == string(data) {
			continue
		}
		if err := writeFilePreserving(path, updated); err != nil {
			return Record{}, err
		}
		touched = append(touched, path)
	}
	if len(touched) == 0 {
		return Record{}, ErrNoCandidate
	}

	return Record{
		OldSymbol:    oldName,
		NewSymbol:    newName,
		Line:         cand.Line,
		FilesTouched: targetFirst(target, touched),
	}, nil
}

// renameVariable renames the first local variable declaration within the
// target file only. Scope is approximated by the file boundary.
func (e *Engine) renameVariable(content, target string, params map[string]string) (Record, error) {
	cand, ok := newVarDeclMatcher().Scan(content)
	if !ok {
		return Record{}, ErrNoCandidate
	}
	oldName := cand.Groups[2]
	newName := params[ParamNewName]
	if newName == "" {
		if strings.HasSuffix(oldName, renameSuffix) {
			return Record{}, ErrAlreadyApplied
		}
		newName = oldName + renameSuffix
	}

	namePattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(oldName) + `\b`)
	if err != nil {
		return Record{}, err
	}
	updated := namePattern.ReplaceAllString(content, newName)
	if updated == content {
		return Record{}, ErrNoCandidate
	}
	if err := writeFilePreserving(target, updated); err != nil {
		return Record{}, err
	}

	return Record{
		OldSymbol:    oldName,
		NewSymbol:    newName,
		Line:         cand.Line,
		FilesTouched: []string{target},
	}, nil
}

// =============================================================================
// EXTRACT
// =============================================================================

// extractVariable introduces a local for the first receiver.method(args)
// expression: a declaration line is inserted above the statement and the
// expression at that site is replaced by the new identifier. The declared
// type is String, matching the heuristic's lack of type inference.
func (e *Engine) extractVariable(content, target string) (Record, error) {
	cand, ok := newCallExprMatcher().Scan(content)
	if !ok {
		return Record{}, ErrNoCandidate
	}
	expr := cand.Groups[0]
	name := derivedName(expr)

	lines := strings.Split(content, "\n")
	lineIdx := cand.Line - 1
	if lineIdx >= len(lines) {
		return Record{}, ErrNoCandidate
	}
	decl := fmt.Sprintf("        String %s = %s;", name, expr)
	lines[lineIdx] = strings.Replace(lines[lineIdx], expr, name, 1)
	lines = append(lines[:lineIdx], append([]string{decl}, lines[lineIdx:]...)...)

	if err := writeFilePreserving(target, strings.Join(lines, "\n")); err != nil {
		return Record{}, err
	}
	return Record{
		OldSymbol:    expr,
		NewSymbol:    name,
		Line:         cand.Line,
		FilesTouched: []string{target},
	}, nil
}

// extractMethodThreshold is the minimum line count of a method body eligible
// for extraction. Shorter methods have no safe interior slice.
const extractMethodThreshold = 6

// extractParamStoplist rejects keywords the naive per-line identifier scan
// would otherwise mistake for variables.
var extractParamStoplist = map[string]bool{
	"if": true, "for": true, "while": true, "return": true, "new": true, "this": true,
}

var extractIdentPattern = regexp.MustCompile(`\b([a-z][a-zA-Z0-9]*)\b`)

// extractMethod pulls a fixed interior slice of the first sufficiently long
// method body into a private helper. Parameter inference is deliberately
// naive: the first lowercase identifier of each extracted line, capped at
// two, all typed Object.
func (e *Engine) extractMethod(content, target string) (Record, error) {
	lines := strings.Split(content, "\n")

	inMethod := false
	methodStart := -1
	braceCount := 0
	for i, line := range lines {
		if !inMethod {
			if methodHeaderPattern.MatchString(line) {
				inMethod = true
				methodStart = i
				braceCount = strings.Count(line, "{") - strings.Count(line, "}")
			}
			continue
		}
		braceCount += strings.Count(line, "{") - strings.Count(line, "}")
		if braceCount != 0 {
			continue
		}

		// Method closed at line i.
		if i+1-methodStart <= extractMethodThreshold {
			inMethod = false
			continue
		}
		sliceStart := methodStart + 2
		sliceEnd := min(methodStart+4, i-1)
		if sliceEnd <= sliceStart {
			inMethod = false
			continue
		}

		extracted := lines[sliceStart:sliceEnd]
		name := derivedName(strings.Join(lines[methodStart:i+1], "\n"))

		var paramDecls, paramNames []string
		for _, ln := range extracted {
			if len(paramDecls) == 2 {
				break
			}
			idents := extractIdentPattern.FindAllString(ln, 1)
			if len(idents) == 0 || extractParamStoplist[idents[0]] {
				continue
			}
			paramDecls = append(paramDecls, "Object "+idents[0])
			paramNames = append(paramNames, idents[0])
		}

		helper := []string{
			fmt.Sprintf("    private void %s(%s) {", name, strings.Join(paramDecls, ", ")),
		}
		for _, ln := range extracted {
			helper = append(helper, "    "+ln)
		}
		helper = append(helper, "    }")

		call := fmt.Sprintf("        %s(%s);", name, strings.Join(paramNames, ", "))

		var out []string
		out = append(out, lines[:sliceStart]...)
		out = append(out, call)
		out = append(out, lines[sliceEnd:i+1]...)
		out = append(out, "")
		out = append(out, helper...)
		out = append(out, lines[i+1:]...)

		if err := writeFilePreserving(target, strings.Join(out, "\n")); err != nil {
			return Record{}, err
		}
		return Record{
			OldSymbol:    fmt.Sprintf("lines %d-%d", sliceStart+1, sliceEnd),
			NewSymbol:    name,
			Line:         sliceStart + 1,
			FilesTouched: []string{target},
		}, nil
	}
	return Record{}, ErrNoCandidate
}

// =============================================================================
// ANNOTATE
// =============================================================================

// annotationLookback is how many lines above the method header are checked
// for an existing annotation before inserting one.
const annotationLookback = 3

// addAnnotation inserts an annotation line directly above the first method
// declaration with matching indentation. Returns ErrAlreadyApplied when the
// annotation text already appears within the look-back window.
func (e *Engine) addAnnotation(content, target string, params map[string]string) (Record, error) {
	cand, ok := newMethodHeaderMatcher().Scan(content)
	if !ok {
		return Record{}, ErrNoCandidate
	}
	annotation := params[ParamAnnotation]
	if annotation == "" {
		annotation = defaultAnnotation
	}

	before := strings.Split(content[:cand.Start], "\n")
	lookback := before
	if len(before) > annotationLookback {
		lookback = before[len(before)-annotationLookback:]
	}
	for _, line := range lookback {
		if strings.Contains(line, strings.TrimSpace(annotation)) {
			return Record{}, ErrAlreadyApplied
		}
	}

	lineStart := strings.LastIndexByte(content[:cand.Start], '\n') + 1
	indent := content[lineStart : lineStart+indentLen(content[lineStart:])]

	updated := content[:lineStart] + indent + annotation + "\n" + content[lineStart:]
	if err := writeFilePreserving(target, updated); err != nil {
		return Record{}, err
	}
	return Record{
		OldSymbol:    cand.Groups[3],
		NewSymbol:    annotation,
		Line:         cand.Line,
		FilesTouched: []string{target},
	}, nil
}

// indentLen returns the length of the leading whitespace of a line.
func indentLen(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return i
		}
	}
	return len(line)
}

// =============================================================================
// TYPE CHANGES
// =============================================================================

var returnLiteralPattern = regexp.MustCompile(`return\s+(\d+);`)

// changeReturnType widens the return type of the first method declared with
// a convertible type. For int to long, integer-literal return statements
// gain the long suffix so the file still compiles.
func (e *Engine) changeReturnType(content, target string) (Record, error) {
	cand, ok := newReturnTypeMatcher().Scan(content)
	if !ok {
		return Record{}, ErrNoCandidate
	}
	oldType := cand.Groups[2]
	newType, ok := typeWidenings[oldType]
	if !ok {
		return Record{}, ErrUnsupportedType
	}

	header := cand.Groups[0]
	updated := strings.Replace(content, header, strings.Replace(header, oldType, newType, 1), 1)
	if oldType == "int" {
		updated = returnLiteralPattern.ReplaceAllString(updated, "return ${1}L;")
	}

	if err := writeFilePreserving(target, updated); err != nil {
		return Record{}, err
	}
	return Record{
		OldSymbol:    oldType + " " + cand.Groups[3],
		NewSymbol:    newType + " " + cand.Groups[3],
		Line:         cand.Line,
		FilesTouched: []string{target},
	}, nil
}

// changeAttributeType widens the type of the first field declaration and
// rewrites matching getter and setter signatures in the same file. The first
// field decides the outcome: an unconvertible type is a typed failure, not a
// reason to scan further.
func (e *Engine) changeAttributeType(content, target string) (Record, error) {
	cand, ok := newFieldDeclMatcher().Scan(content)
	if !ok {
		return Record{}, ErrNoCandidate
	}
	oldType := cand.Groups[4]
	fieldName := cand.Groups[5]
	if isCapitalized(oldType) && !attributeAllowList[oldType] {
		return Record{}, ErrUnsupportedType
	}
	newType, ok := typeWidenings[oldType]
	if !ok {
		return Record{}, ErrUnsupportedType
	}

	decl := cand.Groups[0]
	updated := strings.Replace(content, decl, strings.Replace(decl, oldType, newType, 1), 1)

	accessor := capitalize(fieldName)
	getterPatterns := []*regexp.Regexp{
		regexp.MustCompile(`(\w+)\s+get` + accessor + `\s*\(\s*\)\s*\{`),
		regexp.MustCompile(`(\w+)\s+is` + accessor + `\s*\(\s*\)\s*\{`),
	}
	for _, p := range getterPatterns {
		updated = p.ReplaceAllStringFunc(updated, func(m string) string {
			groups := p.FindStringSubmatch(m)
			if groups[1] != oldType {
				return m
			}
			return strings.Replace(m, oldType, newType, 1)
		})
	}
	setterPattern := regexp.MustCompile(`void\s+set` + accessor + `\s*\(\s*` + oldType + `\s+\w+\s*\)`)
	updated = setterPattern.ReplaceAllStringFunc(updated, func(m string) string {
		return strings.Replace(m, oldType, newType, 1)
	})

	if err := writeFilePreserving(target, updated); err != nil {
		return Record{}, err
	}
	return Record{
		OldSymbol:    oldType + " " + fieldName,
		NewSymbol:    newType + " " + fieldName,
		Line:         cand.Line,
		FilesTouched: []string{target},
	}, nil
}

// capitalize upper-cases the first byte, Java accessor style.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// =============================================================================
// MOVE CLASS
// =============================================================================

// movedPackageSuffix is appended to the last package segment of a moved
// class.
const movedPackageSuffix = "moved"

// moveClass rewrites the target's package declaration to a sibling package
// and updates the corresponding import statement in every other file.
func (e *Engine) moveClass(content, target, root string) (Record, error) {
	cand, ok := newPackageDeclMatcher().Scan(content)
	if !ok {
		return Record{}, ErrNoCandidate
	}
	oldPkg := cand.Groups[1]

	var newPkg string
	if i := strings.LastIndexByte(oldPkg, '.'); i >= 0 {
		newPkg = oldPkg[:i+1] + oldPkg[i+1:] + movedPackageSuffix
	} else {
		newPkg = oldPkg + "." + movedPackageSuffix
	}

	updated := strings.Replace(content, cand.Groups[0], "package "+newPkg+";", 1)
	if err := writeFilePreserving(target, updated); err != nil {
		return Record{}, err
	}

	className := strings.TrimSuffix(filepath.Base(target), ".java")
	oldImport := fmt.Sprintf("import %s.%s;", oldPkg, className)
	newImport := fmt.Sprintf("import %s.%s;", newPkg, className)

	files, err := listJavaFiles(root)
	if err != nil {
		return Record{}, err
	}
	touched := []string{target}
	for _, path := range files {
		if path == target {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		if !strings.Contains(string(data), oldImport) {
			continue
		}
		if err := writeFilePreserving(path, strings.ReplaceAll(string(data), oldImport, newImport)); err != nil {
			return Record{}, err
		}
		touched = append(touched, path)
	}

	return Record{
		OldSymbol:    oldPkg + "." + className,
		NewSymbol:    newPkg + "." + className,
		Line:         cand.Line,
		FilesTouched: touched,
	}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// derivedName builds a stable helper or variable name from seed text. The
// same content always yields the same name, so repeated runs over identical
// input produce identical output.
func derivedName(seed string) string {
	h := fnv.New32a()
	h.Write([]byte(seed))
	return fmt.Sprintf("extracted%04d", h.Sum32()%10000)
}

// listJavaFiles returns every .java file under root in sorted path order.
func listJavaFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".java") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// targetFirst orders touched files with the target first, the rest sorted.
func targetFirst(target string, touched []string) []string {
	out := make([]string, 0, len(touched))
	rest := make([]string, 0, len(touched))
	for _, f := range touched {
		if f == target {
			continue
		}
		rest = append(rest, f)
	}
	sort.Strings(rest)
	out = append(out, target)
	return append(out, rest...)
}

// writeFilePreserving rewrites a file in place keeping its permission bits.
func writeFilePreserving(path, content string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), info.Mode().Perm())
}

// relToRoot converts an absolute path to root-relative for records; paths
// outside root are left as-is.
func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
