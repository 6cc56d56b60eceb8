package util

import "testing"

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./src/lib  ", expected: "src/lib"},
		{name: "Parent", input: "src/../lib/util.ts", expected: "lib/util.ts"},
		{name: "Backslashes", input: `src\components\Button.tsx`, expected: "src/components/Button.tsx"},
		{name: "Absolute", input: "/repo/src/./a.ts", expected: "/repo/src/a.ts"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePatternPath(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestHasPathPrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		path     string
		prefix   string
		expected bool
	}{
		{name: "Exact", path: "/repo", prefix: "/repo", expected: true},
		{name: "Nested", path: "/repo/src/a.ts", prefix: "/repo", expected: true},
		{name: "Sibling", path: "/repository/a.ts", prefix: "/repo", expected: false},
		{name: "Parent", path: "/a.ts", prefix: "/repo", expected: false},
		{name: "MixedSeparators", path: `src\lib\a.ts`, prefix: "src/lib", expected: true},
		{name: "RelativePrefix", path: "./src/lib/a.ts", prefix: "src", expected: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HasPathPrefix(tc.path, tc.prefix); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	keys := SortedStringKeys(map[string]bool{"./b": true, "./a": true, "react": true})
	expected := []string{"./a", "./b", "react"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(keys))
	}
	for i, key := range expected {
		if keys[i] != key {
			t.Fatalf("expected %q at %d, got %q", key, i, keys[i])
		}
	}
	if got := SortedStringKeys(map[string]int(nil)); len(got) != 0 {
		t.Fatalf("expected no keys, got %v", got)
	}
}
