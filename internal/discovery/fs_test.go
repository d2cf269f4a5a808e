package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDir(t *testing.T) {
	root := t.TempDir()

	got, err := Dir(root)
	if err != nil {
		t.Fatalf("Dir returned error: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("expected absolute path, got %q", got)
	}
}

func TestDirErrors(t *testing.T) {
	root := t.TempDir()

	if _, err := Dir(filepath.Join(root, "missing")); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}

	if _, err := Dir(""); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist for empty path, got %v", err)
	}

	file := filepath.Join(root, "lib.rs")
	writeFile(t, file, "fn main() {}")
	if _, err := Dir(file); !errors.Is(err, ErrNotDir) {
		t.Fatalf("expected ErrNotDir, got %v", err)
	}
}

func TestFindManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), `[package]
name = "adder"
version = "0.1.0"
edition = "2021"

[dependencies]
`)

	m, err := FindManifest(root)
	if err != nil {
		t.Fatalf("FindManifest returned error: %v", err)
	}
	if m.Name() != "adder" || m.Package.Edition != "2021" {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.Path != filepath.Join(root, ManifestName) {
		t.Fatalf("unexpected manifest path %q", m.Path)
	}
}

func TestFindManifestWorkspace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[workspace]\nmembers = [\"a\", \"b\"]\n")

	m, err := FindManifest(root)
	if err != nil {
		t.Fatalf("FindManifest returned error: %v", err)
	}
	if m.Name() != "(workspace)" || len(m.Workspace.Members) != 2 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestFindManifestErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := FindManifest(root); !errors.Is(err, ErrNoManifest) {
		t.Fatalf("expected ErrNoManifest, got %v", err)
	}

	writeFile(t, filepath.Join(root, ManifestName), "[package\nname = ")
	_, err := FindManifest(root)
	if err == nil || errors.Is(err, ErrNoManifest) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
