package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/bgricker/testgrade/internal/version"
)

func projectRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root := filepath.Clean(filepath.Join(wd, "..", ".."))
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err != nil {
		t.Fatalf("locate project root: %v", err)
	}
	return root
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %q: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore dir: %v", err)
		}
	})
}

func readGolden(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden %q: %v", path, err)
	}
	return string(data)
}

func diffStrings(want, got string) string {
	if want == got {
		return ""
	}
	return "--- want\n" + want + "\n--- got\n" + got
}

// execute runs the root command with args and returns stdout, stderr and the error.
func execute(t *testing.T, stdin []byte, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if stdin != nil {
		cmd.SetIn(bytes.NewReader(stdin))
	}

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func stubToolchain(t *testing.T, info version.Info, err error) {
	t.Helper()
	prev := detectCargo
	detectCargo = func(string) (version.Info, error) { return info, err }
	t.Cleanup(func() { detectCargo = prev })
}

// fakeCargo installs a script that prints fixture to stdout and exits with code.
func fakeCargo(t *testing.T, fixture string, code int) {
	t.Helper()
	script := filepath.Join(t.TempDir(), "cargo")
	contents := "#!/bin/sh\ncat '" + fixture + "'\necho 'error: test failed' >&2\nexit " + strconv.Itoa(code) + "\n"
	if err := os.WriteFile(script, []byte(contents), 0o755); err != nil {
		t.Fatalf("write fake cargo: %v", err)
	}
	prev := cargoProgram
	cargoProgram = script
	t.Cleanup(func() { cargoProgram = prev })
}
