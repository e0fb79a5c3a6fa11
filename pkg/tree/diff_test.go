// Copyright 2025 The dver Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tree

import (
	"strings"
	"testing"
)

func TestCompare(t *testing.T) {
	expected := mustBuild(t, writeTree(t, map[string]string{
		"keep.txt":   "same",
		"change.txt": "before",
		"gone.txt":   "bye",
		"old/x":      "x",
	}), Options{})
	actual := mustBuild(t, writeTree(t, map[string]string{
		"keep.txt":   "same",
		"change.txt": "after",
		"new.txt":    "hi",
	}, "fresh"), Options{})

	diff := Compare(expected, actual)
	if diff.IsEmpty() {
		t.Fatal("Compare() reported no differences")
	}

	check := func(name string, got, want []string) {
		t.Helper()
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	check("ExtraFiles", diff.ExtraFiles, []string{"new.txt"})
	check("MissingFiles", diff.MissingFiles, []string{"gone.txt", "old/x"})
	check("ExtraDirectories", diff.ExtraDirectories, []string{"fresh"})
	check("MissingDirectories", diff.MissingDirectories, []string{"old"})

	if len(diff.Mismatches) != 1 || diff.Mismatches[0].Path != "change.txt" {
		t.Fatalf("Mismatches = %+v", diff.Mismatches)
	}

	out := diff.String()
	for _, line := range []string{"+ new.txt", "- gone.txt", "+ fresh/", "- old/", "~ change.txt"} {
		if !strings.Contains(out, line) {
			t.Errorf("String() missing %q:\n%s", line, out)
		}
	}
}

func TestCompare_Identical(t *testing.T) {
	files := map[string]string{"a": "1", "b/c": "2"}
	diff := Compare(mustBuild(t, writeTree(t, files), Options{}), mustBuild(t, writeTree(t, files), Options{}))
	if !diff.IsEmpty() {
		t.Errorf("identical trees produced diff:\n%s", diff)
	}
}
