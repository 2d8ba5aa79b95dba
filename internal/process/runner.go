// Package process runs allow-listed external tools under a timeout.
//
// A Runner only resolves binaries whose bare names appear in its allow-list,
// passes arguments as discrete tokens (never through a shell), captures
// stdout as the payload and stderr for diagnostics, and kills the whole
// process group when the deadline passes. A non-zero exit is always an
// error, whatever the tool printed.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Output caps applied to captured streams.
const (
	MaxStdoutBytes = 32 << 20
	MaxStderrBytes = 64 << 10
)

// DefaultTimeout applies when Run is called with a non-positive timeout.
const DefaultTimeout = 60 * time.Second

// waitDelay bounds how long Wait blocks on pipes after the process is killed.
const waitDelay = 2 * time.Second

// Sentinel errors. Every failure returned by Run wraps ErrSubprocess.
var (
	ErrSubprocess       = errors.New("subprocess failed")
	ErrBinaryNotAllowed = errors.New("binary not in allow-list")
	ErrBinaryNotFound   = errors.New("binary not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNonZeroExit      = errors.New("non-zero exit status")
	ErrTimeout          = errors.New("subprocess timed out")
	ErrOutputTooLarge   = errors.New("subprocess output exceeds limit")
)

// Error describes a failed invocation.
type Error struct {
	Binary   string
	ExitCode int    // -1 when the process did not exit normally
	Stderr   string // truncated diagnostic output
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Binary, e.Err)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + firstLine(s)
	}
	return msg
}

func (e *Error) Unwrap() []error { return []error{ErrSubprocess, e.Err} }

// Result holds the captured output of a successful run.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// LookPathFunc resolves a bare binary name to an executable path.
type LookPathFunc func(name string) (string, error)

// Runner executes allow-listed binaries. The zero value allows nothing.
type Runner struct {
	allowed  map[string]struct{}
	lookPath LookPathFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithLookPath replaces exec.LookPath, mainly for tests.
func WithLookPath(fn LookPathFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.lookPath = fn
		}
	}
}

// NewRunner creates a Runner permitting only the given bare binary names.
// Names containing path separators are ignored.
func NewRunner(allowed []string, opts ...Option) *Runner {
	r := &Runner{
		allowed:  make(map[string]struct{}, len(allowed)),
		lookPath: exec.LookPath,
	}
	for _, name := range allowed {
		if validBinaryName(name) {
			r.allowed[name] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Allowed reports whether name is in the allow-list.
func (r *Runner) Allowed(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.allowed[name]
	return ok
}

// Available reports whether name is allowed and resolvable on this system.
func (r *Runner) Available(name string) bool {
	if !r.Allowed(name) {
		return false
	}
	_, err := r.lookPath(name)
	return err == nil
}

// Run executes binary with args, feeding stdin when non-nil.
func (r *Runner) Run(ctx context.Context, binary string, args []string, stdin []byte, timeout time.Duration) (*Result, error) {
	if !r.Allowed(binary) {
		return nil, &Error{Binary: binary, ExitCode: -1, Err: ErrBinaryNotAllowed}
	}
	for _, a := range args {
		if strings.ContainsRune(a, 0) {
			return nil, &Error{Binary: binary, ExitCode: -1, Err: fmt.Errorf("%w: null byte", ErrInvalidArgument)}
		}
	}

	path, err := r.lookPath(binary)
	if err != nil {
		return nil, &Error{Binary: binary, ExitCode: -1, Err: fmt.Errorf("%w: %v", ErrBinaryNotFound, err)}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := &limitedBuffer{max: MaxStdoutBytes}
	stderr := &limitedBuffer{max: MaxStderrBytes}

	cmd := exec.CommandContext(runCtx, path, args...) // #nosec G204 -- binary is allow-listed, args are discrete tokens
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			KillProcessGroup(cmd.Process.Pid)
		}
		return nil
	}
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		failure := &Error{Binary: binary, ExitCode: -1, Stderr: stderr.String()}
		var exitErr *exec.ExitError
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			failure.Err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
		case ctx.Err() != nil:
			failure.Err = ctx.Err()
		case errors.As(runErr, &exitErr):
			failure.ExitCode = exitErr.ExitCode()
			failure.Err = ErrNonZeroExit
		default:
			failure.Err = runErr
		}
		return nil, failure
	}

	if stdout.overflow {
		return nil, &Error{Binary: binary, ExitCode: 0, Stderr: stderr.String(), Err: ErrOutputTooLarge}
	}

	return &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: elapsed,
	}, nil
}

func validBinaryName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\\\x00")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// limitedBuffer keeps at most max bytes and records whether more arrived.
type limitedBuffer struct {
	bytes.Buffer
	max      int
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	room := b.max - b.Len()
	if room <= 0 {
		b.overflow = b.overflow || len(p) > 0
		return len(p), nil
	}
	if len(p) > room {
		b.overflow = true
		b.Buffer.Write(p[:room])
		return len(p), nil
	}
	return b.Buffer.Write(p)
}
