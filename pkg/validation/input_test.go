// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import "testing"

func TestValidateRelPath(t *testing.T) {
	valid := []string{
		"src/Main.java",
		"Main.java",
		"a/b/c/Deep.java",
		"src/../Main.java", // cleans to Main.java, stays inside root
	}
	for _, p := range valid {
		if err := ValidateRelPath(p); err != nil {
			t.Errorf("ValidateRelPath(%q) = %v, want nil", p, err)
		}
	}

	invalid := []string{
		"",
		"/etc/passwd",
		"../outside.java",
		"../../up/and/out.java",
		"src/../../outside.java",
		"bad\x00path",
		"bad\npath",
	}
	for _, p := range invalid {
		if err := ValidateRelPath(p); err == nil {
			t.Errorf("ValidateRelPath(%q) = nil, want error", p)
		}
	}
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"foo", "fooRenamed", "_internal", "$gen", "x2"}
	for _, s := range valid {
		if err := ValidateIdentifier(s); err != nil {
			t.Errorf("ValidateIdentifier(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "2start", "has space", "foo()", "a;rm -rf", "foo\\b"}
	for _, s := range invalid {
		if err := ValidateIdentifier(s); err == nil {
			t.Errorf("ValidateIdentifier(%q) = nil, want error", s)
		}
	}
}

func TestValidateAnnotation(t *testing.T) {
	valid := []string{"@Override", "@Deprecated", "@java.lang.Override"}
	for _, s := range valid {
		if err := ValidateAnnotation(s); err != nil {
			t.Errorf("ValidateAnnotation(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "Override", "@SuppressWarnings(\"all\")", "@bad name"}
	for _, s := range invalid {
		if err := ValidateAnnotation(s); err == nil {
			t.Errorf("ValidateAnnotation(%q) = nil, want error", s)
		}
	}
}
