package searchpath

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	return path
}

func canonical(t *testing.T, path string) string {
	t.Helper()
	dir, err := Canonicalize(path)
	if err != nil {
		t.Fatalf("Canonicalize(%s) error = %v", path, err)
	}
	return dir
}

func TestResolveOrder(t *testing.T) {
	tmpDir := t.TempDir()

	// Two load-path entries with facts subdirectories.
	lp1 := mkdir(t, tmpDir, "lib1")
	d1 := mkdir(t, lp1, FactsDirName)
	lp2 := mkdir(t, tmpDir, "lib2")
	d2 := mkdir(t, lp2, FactsDirName)

	// Two environment entries.
	e1 := mkdir(t, tmpDir, "env1")
	e2 := mkdir(t, tmpDir, "env2")
	t.Setenv(EnvVar, strings.Join([]string{e1, e2}, string(os.PathListSeparator)))

	// One explicit path.
	p1 := mkdir(t, tmpDir, "explicit")

	got := Resolve(Options{
		LoadPath: []string{lp1, lp2},
		Explicit: []string{p1},
	})

	want := []string{
		canonical(t, d1),
		canonical(t, d2),
		canonical(t, e1),
		canonical(t, e2),
		canonical(t, p1),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveDeduplicatesKeepingFirst(t *testing.T) {
	tmpDir := t.TempDir()
	p1 := mkdir(t, tmpDir, "dir")
	t.Setenv(EnvVar, "")

	got := Resolve(Options{Explicit: []string{p1, p1}})
	if len(got) != 1 {
		t.Fatalf("Resolve() = %v, want a single entry", got)
	}
}

func TestResolveDropsNonCanonicalizable(t *testing.T) {
	tmpDir := t.TempDir()
	p1 := mkdir(t, tmpDir, "real")
	t.Setenv(EnvVar, "")

	got := Resolve(Options{
		Explicit: []string{filepath.Join(tmpDir, "does-not-exist"), p1},
	})
	want := []string{canonical(t, p1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveSkipsDistributionRoot(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvVar, "")

	// A load-path entry carrying the entry-point file is the
	// distribution's own root and must not be scanned.
	root := mkdir(t, tmpDir, "dist")
	mkdir(t, root, FactsDirName)
	if err := os.WriteFile(filepath.Join(root, "sysfacts.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("Failed to write entry point: %v", err)
	}

	other := mkdir(t, tmpDir, "other")
	factsDir := mkdir(t, other, FactsDirName)

	got := Resolve(Options{
		LoadPath:   []string{root, other},
		EntryPoint: "sysfacts.go",
	})
	want := []string{canonical(t, factsDir)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveSkipsLoadPathWithoutFactsDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvVar, "")

	bare := mkdir(t, tmpDir, "bare")
	got := Resolve(Options{LoadPath: []string{bare}})
	if len(got) != 0 {
		t.Errorf("Resolve() = %v, want empty", got)
	}
}
