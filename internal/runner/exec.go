// Package runner invokes the external test runner and captures its output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DefaultProgram is the runner binary used when Options.Program is empty.
const DefaultProgram = "cargo"

// ErrTimeout is returned when the runner exceeds Options.Timeout.
var ErrTimeout = errors.New("test run timed out")

// Options configure how the runner executes the test suite.
type Options struct {
	Dir       string
	Program   string
	Toolchain string
	ExtraArgs []string
	Env       []string
	EnvExtra  map[string]string
	Timeout   time.Duration
	Verbose   bool
	Stdout    io.Writer
	Stderr    io.Writer
	TailLines int
	Now       func() time.Time
	Logger    *slog.Logger
}

// Capture is everything the runner produced.
type Capture struct {
	Args     []string
	Stdout   []byte
	Stderr   string
	ExitCode int
	Duration time.Duration
	// Hint is a remediation suggestion derived from stderr, if any.
	Hint string
}

// Runner executes the test suite once per Run call.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Program == "" {
		opts.Program = DefaultProgram
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts.ExtraArgs = append([]string{}, opts.ExtraArgs...)
	return &Runner{opts: opts}
}

// Args returns the argument vector passed to the runner program.
func (r *Runner) Args() []string {
	return commandArgs(r.opts.Toolchain, r.opts.ExtraArgs)
}

// Run executes the test suite and returns its captured output. A non-zero
// exit status is recorded, not returned: failing tests make cargo exit 101.
// Errors are reserved for a runner that cannot start or runs too long.
func (r *Runner) Run(ctx context.Context) (Capture, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	args := r.Args()
	capture := Capture{Args: append([]string{r.opts.Program}, args...)}

	cmd := exec.CommandContext(ctx, r.opts.Program, args...)
	cmd.Dir = r.opts.Dir
	cmd.Env = mergeEnv(r.opts.Env, r.opts.EnvExtra)
	// Grandchildren holding the pipes open must not outlive a cancelled run.
	cmd.WaitDelay = 2 * time.Second

	var stdoutBuf bytes.Buffer
	var stderrBuf strings.Builder
	if r.opts.Verbose {
		cmd.Stdout = io.MultiWriter(r.opts.Stdout, &stdoutBuf)
		cmd.Stderr = io.MultiWriter(r.opts.Stderr, &stderrBuf)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	r.opts.Logger.Debug("starting test runner", "dir", r.opts.Dir, "cmd", strings.Join(capture.Args, " "))
	start := r.opts.Now()
	err := cmd.Run()
	capture.Duration = r.opts.Now().Sub(start)
	capture.Stdout = stdoutBuf.Bytes()
	capture.Stderr = tailLines(stderrBuf.String(), r.opts.TailLines)
	capture.Hint = hint(stderrBuf.String())

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return capture, fmt.Errorf("%w after %s", ErrTimeout, r.opts.Timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return capture, fmt.Errorf("run %s: %w", r.opts.Program, err)
		}
	}
	capture.ExitCode = exitCode(err)

	r.opts.Logger.Debug("test runner finished",
		"exit_code", capture.ExitCode,
		"duration", capture.Duration,
		"stdout_bytes", len(capture.Stdout))
	return capture, nil
}

func commandArgs(toolchain string, extra []string) []string {
	args := make([]string, 0, 8+len(extra))
	if tc := strings.TrimSpace(toolchain); tc != "" {
		args = append(args, "+"+strings.TrimPrefix(tc, "+"))
	}
	args = append(args, "test", "--", "-Z", "unstable-options", "--format", "json", "--report-time")
	return append(args, extra...)
}

func mergeEnv(base []string, overlays ...map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overlays)*4)
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			key := kv[:idx]
			envMap[key] = kv[idx+1:]
		}
	}
	for _, overlay := range overlays {
		for k, v := range overlay {
			envMap[k] = v
		}
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok {
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}

var (
	toolchainMissingRegex = regexp.MustCompile(`toolchain '([^']+)' is not installed`)
	unstableOptionsRegex  = regexp.MustCompile(`the option .Z. is only accepted on the nightly compiler`)
)

func hint(stderr string) string {
	if match := toolchainMissingRegex.FindStringSubmatch(stderr); len(match) == 2 {
		return fmt.Sprintf("toolchain %s is missing; run `rustup toolchain install %s`", match[1], match[1])
	}
	if unstableOptionsRegex.MatchString(stderr) {
		return "JSON test output needs a nightly toolchain; pass --toolchain nightly"
	}
	if strings.Contains(strings.ToLower(stderr), "could not find `cargo.toml`") {
		return "no Cargo.toml found in the input directory"
	}
	return ""
}
