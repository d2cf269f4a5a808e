package version

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Info captures a toolchain version installed on the system.
type Info struct {
	Name    string
	Version string
	Channel string
}

// Nightly reports whether the toolchain accepts unstable -Z options.
func (i Info) Nightly() bool {
	return i.Channel == "nightly" || i.Channel == "dev"
}

var cargoRegex = regexp.MustCompile(`(?i)cargo\s+(\d+\.\d+(?:\.\d+)?)(?:-(nightly|beta|dev))?`)

// DetectCargo returns the cargo version for toolchain by calling
// `cargo [+toolchain] --version`.
func DetectCargo(toolchain string) (Info, error) {
	args := []string{"--version"}
	if tc := strings.TrimPrefix(strings.TrimSpace(toolchain), "+"); tc != "" {
		args = append([]string{"+" + tc}, args...)
	}
	out, err := runCommand("cargo", args...)
	if err != nil {
		return Info{}, err
	}
	return ParseCargo(out)
}

// ParseCargo extracts version and release channel from `cargo --version`
// output, e.g. "cargo 1.80.0-nightly (b1feb75d0 2024-06-07)".
func ParseCargo(out string) (Info, error) {
	match := cargoRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return Info{}, fmt.Errorf("unable to parse cargo version from %q", out)
	}
	channel := strings.ToLower(match[2])
	if channel == "" {
		channel = "stable"
	}
	return Info{Name: "cargo", Version: match[1], Channel: channel}, nil
}

func runCommand(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = nil
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(buf.String()); msg != "" {
			return "", fmt.Errorf("%s: %w", msg, err)
		}
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// AtLeast reports whether actual's major.minor is at or above required's.
// Unparseable versions never satisfy the requirement.
func AtLeast(required, actual string) bool {
	rMajor, rMinor, ok := majorMinor(required)
	if !ok {
		return false
	}
	aMajor, aMinor, ok := majorMinor(actual)
	if !ok {
		return false
	}
	if aMajor != rMajor {
		return aMajor > rMajor
	}
	return aMinor >= rMinor
}

func majorMinor(version string) (int, int, bool) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(version), "v"), ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// Missing reports whether executing the command returns a not-found error.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound)
}
