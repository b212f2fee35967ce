// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject lays out a throwaway Java project from a path->content map
// and returns its root.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	return string(data)
}

func TestRenameMethodRewritesAllCallSites(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/Service.java": "public class Service {\n" +
			"    public void foo() {\n" +
			"        int x = 1;\n" +
			"    }\n" +
			"}\n",
		"src/CallerA.java": "public class CallerA {\n" +
			"    void run() {\n" +
			"        foo(x);\n" +
			"    }\n" +
			"}\n",
		"src/CallerB.java": "public class CallerB {\n" +
			"    void run() {\n" +
			"        obj.foo();\n" +
			"    }\n" +
			"}\n",
	})

	rec, err := NewEngine(nil).Apply(KindRenameMethod, "src/Service.java", root, nil)
	require.NoError(t, err)

	assert.Equal(t, "foo", rec.OldSymbol)
	assert.Equal(t, "fooRenamed", rec.NewSymbol)
	assert.Len(t, rec.FilesTouched, 3)
	assert.Equal(t, "src/Service.java", rec.FilesTouched[0])

	assert.Contains(t, readFile(t, root, "src/Service.java"), "public void fooRenamed()")
	assert.Contains(t, readFile(t, root, "src/CallerA.java"), "fooRenamed(x)")
	assert.Contains(t, readFile(t, root, "src/CallerB.java"), "obj.fooRenamed()")
	assert.NotContains(t, readFile(t, root, "src/CallerA.java"), "foo(x)")
}

func TestRenameMethodHonorsExplicitName(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n    public int compute() {\n        return 1;\n    }\n}\n",
	})

	rec, err := NewEngine(nil).Apply(KindRenameMethod, "A.java", root,
		map[string]string{ParamNewName: "computeTotal"})
	require.NoError(t, err)

	assert.Equal(t, "computeTotal", rec.NewSymbol)
	assert.Contains(t, readFile(t, root, "A.java"), "public int computeTotal()")
}

func TestRenameVariableSingleFile(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n" +
			"    void run() {\n" +
			"        int count = 0;\n" +
			"        count = count + 1;\n" +
			"    }\n" +
			"}\n",
	})

	rec, err := NewEngine(nil).Apply(KindRenameVariable, "A.java", root, nil)
	require.NoError(t, err)

	assert.Equal(t, "count", rec.OldSymbol)
	assert.Equal(t, "countRenamed", rec.NewSymbol)
	got := readFile(t, root, "A.java")
	assert.Contains(t, got, "int countRenamed = 0;")
	assert.Contains(t, got, "countRenamed = countRenamed + 1;")
	assert.NotContains(t, got, "int count =")
}

func TestRenameVariableSkipsCapitalizedIdentifiers(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n" +
			"    static final int MAX = 10;\n" +
			"    void run() {\n" +
			"        int total = MAX;\n" +
			"    }\n" +
			"}\n",
	})

	rec, err := NewEngine(nil).Apply(KindRenameVariable, "A.java", root, nil)
	require.NoError(t, err)
	assert.Equal(t, "total", rec.OldSymbol)
}

func TestExtractVariableInsertsDeclaration(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n" +
			"    void run() {\n" +
			"        System.out.println(builder.toString());\n" +
			"    }\n" +
			"}\n",
	})

	rec, err := NewEngine(nil).Apply(KindExtractVariable, "A.java", root, nil)
	require.NoError(t, err)

	got := readFile(t, root, "A.java")
	assert.True(t, strings.HasPrefix(rec.NewSymbol, "extracted"))
	assert.Contains(t, got, "String "+rec.NewSymbol+" = "+rec.OldSymbol+";")
	// Declaration precedes use.
	declAt := strings.Index(got, "String "+rec.NewSymbol)
	useAt := strings.LastIndex(got, rec.NewSymbol)
	assert.Less(t, declAt, useAt)
}

func TestExtractMethodSynthesizesHelper(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n" +
			"    public void process() {\n" +
			"        int a = 1;\n" +
			"        int b = 2;\n" +
			"        int c = a + b;\n" +
			"        int d = c * 2;\n" +
			"        System.out.println(d);\n" +
			"    }\n" +
			"}\n",
	})

	rec, err := NewEngine(nil).Apply(KindExtractMethod, "A.java", root, nil)
	require.NoError(t, err)

	got := readFile(t, root, "A.java")
	assert.Contains(t, got, "private void "+rec.NewSymbol+"(")
	assert.Contains(t, got, rec.NewSymbol+"(")
	// Inferred parameters are Object-typed and capped at two.
	helperLine := ""
	for _, line := range strings.Split(got, "\n") {
		if strings.Contains(line, "private void "+rec.NewSymbol) {
			helperLine = line
		}
	}
	require.NotEmpty(t, helperLine)
	assert.LessOrEqual(t, strings.Count(helperLine, "Object "), 2)
}

func TestExtractMethodRequiresLongBody(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n" +
			"    public void tiny() {\n" +
			"        int a = 1;\n" +
			"    }\n" +
			"}\n",
	})

	_, err := NewEngine(nil).Apply(KindExtractMethod, "A.java", root, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestAddAnnotationInsertsAboveMethod(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n" +
			"    public String toString() {\n" +
			"        return \"a\";\n" +
			"    }\n" +
			"}\n",
	})

	rec, err := NewEngine(nil).Apply(KindAddAnnotation, "A.java", root, nil)
	require.NoError(t, err)

	assert.Equal(t, "@Override", rec.NewSymbol)
	got := readFile(t, root, "A.java")
	assert.Contains(t, got, "    @Override\n    public String toString()")
}

func TestAddAnnotationAlreadyPresent(t *testing.T) {
	original := "public class A {\n" +
		"    @Override\n" +
		"\n" +
		"    public String toString() {\n" +
		"        return \"a\";\n" +
		"    }\n" +
		"}\n"
	root := writeProject(t, map[string]string{"A.java": original})

	_, err := NewEngine(nil).Apply(KindAddAnnotation, "A.java", root, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.Equal(t, original, readFile(t, root, "A.java"))
}

func TestChangeReturnTypeWidensIntToLong(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n" +
			"    public int count() {\n" +
			"        return 42;\n" +
			"    }\n" +
			"}\n",
	})

	rec, err := NewEngine(nil).Apply(KindChangeReturnType, "A.java", root, nil)
	require.NoError(t, err)

	assert.Equal(t, "int count", rec.OldSymbol)
	assert.Equal(t, "long count", rec.NewSymbol)
	got := readFile(t, root, "A.java")
	assert.Contains(t, got, "public long count()")
	assert.Contains(t, got, "return 42L;")
}

func TestChangeReturnTypeStringToObject(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n" +
			"    public String name() {\n" +
			"        return \"x\";\n" +
			"    }\n" +
			"}\n",
	})

	_, err := NewEngine(nil).Apply(KindChangeReturnType, "A.java", root, nil)
	require.NoError(t, err)
	assert.Contains(t, readFile(t, root, "A.java"), "public Object name()")
}

func TestChangeAttributeTypeRewritesAccessors(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n" +
			"    private String name;\n" +
			"\n" +
			"    public String getName() {\n" +
			"        return name;\n" +
			"    }\n" +
			"\n" +
			"    public void setName(String name) {\n" +
			"        this.name = name;\n" +
			"    }\n" +
			"}\n",
	})

	rec, err := NewEngine(nil).Apply(KindChangeAttributeType, "A.java", root, nil)
	require.NoError(t, err)

	assert.Equal(t, "String name", rec.OldSymbol)
	assert.Equal(t, "Object name", rec.NewSymbol)
	got := readFile(t, root, "A.java")
	assert.Contains(t, got, "private Object name;")
	assert.Contains(t, got, "Object getName()")
	assert.Contains(t, got, "setName(Object name)")
}

func TestChangeAttributeTypeRejectsComplexType(t *testing.T) {
	root := writeProject(t, map[string]string{
		"A.java": "public class A {\n" +
			"    private Connection conn;\n" +
			"}\n",
	})

	_, err := NewEngine(nil).Apply(KindChangeAttributeType, "A.java", root, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestMoveClassRewritesImports(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/com/example/util/Helper.java": "package com.example.util;\n" +
			"\n" +
			"public class Helper {\n" +
			"}\n",
		"src/com/example/Main.java": "package com.example;\n" +
			"\n" +
			"import com.example.util.Helper;\n" +
			"\n" +
			"public class Main {\n" +
			"}\n",
	})

	rec, err := NewEngine(nil).Apply(KindMoveClass, "src/com/example/util/Helper.java", root, nil)
	require.NoError(t, err)

	assert.Equal(t, "com.example.util.Helper", rec.OldSymbol)
	assert.Equal(t, "com.example.utilmoved.Helper", rec.NewSymbol)
	assert.Len(t, rec.FilesTouched, 2)
	assert.Contains(t, readFile(t, root, "src/com/example/util/Helper.java"), "package com.example.utilmoved;")
	assert.Contains(t, readFile(t, root, "src/com/example/Main.java"), "import com.example.utilmoved.Helper;")
}

func TestApplyMissingFile(t *testing.T) {
	root := t.TempDir()
	_, err := NewEngine(nil).Apply(KindRenameMethod, "Missing.java", root, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)

	var applyErr *ApplyError
	require.True(t, errors.As(err, &applyErr))
	assert.Equal(t, KindRenameMethod, applyErr.Kind)
}

func TestApplyUnknownKind(t *testing.T) {
	root := writeProject(t, map[string]string{"A.java": "public class A {}\n"})
	_, err := NewEngine(nil).Apply(Kind("Inline Method"), "A.java", root, nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestApplyIsDeterministic(t *testing.T) {
	files := map[string]string{
		"A.java": "public class A {\n" +
			"    public void process() {\n" +
			"        int a = 1;\n" +
			"        int b = 2;\n" +
			"        int c = a + b;\n" +
			"        int d = c * 2;\n" +
			"        System.out.println(d);\n" +
			"    }\n" +
			"}\n",
	}

	for _, kind := range AllKinds() {
		kind := kind
		root1 := writeProject(t, files)
		root2 := writeProject(t, files)

		rec1, err1 := NewEngine(nil).Apply(kind, "A.java", root1, nil)
		rec2, err2 := NewEngine(nil).Apply(kind, "A.java", root2, nil)

		if err1 != nil {
			// Same typed failure both times is still deterministic.
			require.Error(t, err2, kind)
			assert.Equal(t, err1.Error(), err2.Error(), kind)
			continue
		}
		require.NoError(t, err2, kind)
		assert.Equal(t, rec1, rec2, kind)
		assert.Equal(t, readFile(t, root1, "A.java"), readFile(t, root2, "A.java"), kind)
	}
}
