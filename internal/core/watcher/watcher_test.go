package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// tsFilter accepts .ts files and package.json outside excluded dirs.
type tsFilter struct{}

func (tsFilter) Relevant(path string) bool {
	if strings.Contains(path, string(filepath.Separator)+"node_modules"+string(filepath.Separator)) {
		return false
	}
	base := filepath.Base(path)
	return base == "package.json" || (strings.HasSuffix(base, ".ts") && !strings.HasSuffix(base, ".test.ts"))
}

func (tsFilter) ExcludesDir(base string) bool { return base == "node_modules" }

func startWatcher(t *testing.T, dir string, debounce time.Duration) <-chan []string {
	t.Helper()
	changed := make(chan []string, 16)
	w, err := NewWatcher(debounce, tsFilter{}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Close() })
	if err := w.Watch([]string{dir}); err != nil {
		t.Fatal(err)
	}
	return changed
}

func waitFor(t *testing.T, changed <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestNewWatcher_RejectsMissingArguments(t *testing.T) {
	if w, err := NewWatcher(time.Millisecond, tsFilter{}, nil); err == nil || w != nil {
		t.Fatal("expected error for nil callback")
	}
	if w, err := NewWatcher(time.Millisecond, nil, func([]string) {}); err == nil || w != nil {
		t.Fatal("expected error for nil filter")
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	changed := startWatcher(t, dir, 50*time.Millisecond)

	src := filepath.Join(dir, "main.ts")
	if err := os.WriteFile(src, []byte("export const a = 1;"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, src, 2*time.Second)

	// Irrelevant files never reach the callback.
	if err := os.WriteFile(filepath.Join(dir, "main.test.ts"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Errorf("unexpected change batch %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	// New directories are watched recursively.
	sub := filepath.Join(dir, "lib")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(sub, "nested.ts")
	if err := os.WriteFile(nested, []byte("export {};"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, nested, 2*time.Second)
}

func TestWatcher_SkipsExcludedDirs(t *testing.T) {
	dir := t.TempDir()
	deps := filepath.Join(dir, "node_modules", "pkg")
	if err := os.MkdirAll(deps, 0o755); err != nil {
		t.Fatal(err)
	}
	changed := startWatcher(t, dir, 20*time.Millisecond)

	if err := os.WriteFile(filepath.Join(deps, "index.ts"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Errorf("unexpected change batch %v", paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	dir := t.TempDir()
	changed := startWatcher(t, dir, 50*time.Millisecond)

	oldPath := filepath.Join(dir, "old.ts")
	newPath := filepath.Join(dir, "new.ts")
	if err := os.WriteFile(oldPath, []byte("export {};"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_IdenticalContentIsIgnored(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "hash_target.ts")
	content := []byte("export function main() {}")
	if err := os.WriteFile(target, content, 0o644); err != nil {
		t.Fatal(err)
	}

	changed := startWatcher(t, dir, 30*time.Millisecond)

	if err := os.WriteFile(target, content, 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Errorf("unexpected event for identical content: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(target, []byte("export function main() { return 1; }"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, target, 2*time.Second)
}

func TestWatcher_RateLimitDefersBatches(t *testing.T) {
	changed := make(chan []string, 4)
	w, err := NewWatcher(10*time.Millisecond, tsFilter{}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.SetRateLimit(5)

	w.scheduleChange("/p/a.ts")
	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("first batch was not delivered")
	}

	start := time.Now()
	w.scheduleChange("/p/b.ts")
	select {
	case paths := <-changed:
		if len(paths) != 1 || paths[0] != "/p/b.ts" {
			t.Fatalf("unexpected batch %v", paths)
		}
		if time.Since(start) < 100*time.Millisecond {
			t.Fatalf("second batch delivered after %v, expected the limiter to hold it", time.Since(start))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("deferred batch was never delivered")
	}
}
