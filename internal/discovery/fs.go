// Package discovery validates the directories a run reads from and writes to.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var (
	// ErrNotExist indicates the directory does not exist.
	ErrNotExist = errors.New("directory does not exist")
	// ErrNotDir indicates the path exists but is not a directory.
	ErrNotDir = errors.New("not a directory")
	// ErrNoManifest indicates the project has no Cargo.toml.
	ErrNoManifest = errors.New("no Cargo.toml found")
)

// ManifestName is the project manifest looked up in the input directory.
const ManifestName = "Cargo.toml"

// Dir checks that path names an existing directory and returns it cleaned
// and made absolute.
func Dir(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotExist)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("directory %q: %w", path, ErrNotExist)
		}
		return "", fmt.Errorf("stat %q: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q: %w", path, ErrNotDir)
	}
	return abs, nil
}

// Manifest is the subset of Cargo.toml the tool reports on.
type Manifest struct {
	Path    string `toml:"-"`
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Edition string `toml:"edition"`
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

// FindManifest reads Cargo.toml from dir.
func FindManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w in %q", ErrNoManifest, dir)
		}
		return Manifest{}, fmt.Errorf("parse %q: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Name returns the package name, or a workspace marker when the manifest
// only declares a workspace.
func (m Manifest) Name() string {
	if m.Package.Name != "" {
		return m.Package.Name
	}
	if m.Workspace != nil {
		return "(workspace)"
	}
	return ""
}
