// Package execarchiver provides an archiver adapter using exec.Command.
package execarchiver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcdonaldj/autoarchiver/internal/ports"
)

// DefaultOutputLimit is how many trailing bytes of stdout and stderr are kept.
const DefaultOutputLimit = 64 * 1024

// DefaultWaitDelay bounds how long an interrupted run waits for processes
// still holding the output pipes.
const DefaultWaitDelay = 2 * time.Second

// ExecArchiver implements ports.Archiver using exec.Command.
type ExecArchiver struct {
	// dir is the working directory of the child. Empty means ours.
	dir         string
	env         []string
	outputLimit int
	waitDelay   time.Duration
}

// Option is a functional option for configuring ExecArchiver.
type Option func(*ExecArchiver)

// WithDir runs the archiver in dir.
func WithDir(dir string) Option {
	return func(a *ExecArchiver) {
		a.dir = dir
	}
}

// WithEnv sets the child's environment. Nil inherits ours.
func WithEnv(env []string) Option {
	return func(a *ExecArchiver) {
		a.env = env
	}
}

// WithOutputLimit sets how many trailing bytes of each stream are kept.
func WithOutputLimit(limit int) Option {
	return func(a *ExecArchiver) {
		if limit > 0 {
			a.outputLimit = limit
		}
	}
}

// WithWaitDelay sets how long an interrupted run waits for the output
// pipes to close before closing them itself.
func WithWaitDelay(d time.Duration) Option {
	return func(a *ExecArchiver) {
		if d > 0 {
			a.waitDelay = d
		}
	}
}

// New creates a new ExecArchiver adapter.
func New(opts ...Option) *ExecArchiver {
	a := &ExecArchiver{
		outputLimit: DefaultOutputLimit,
		waitDelay:   DefaultWaitDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts binary with args and waits for it to exit.
func (a *ExecArchiver) Run(ctx context.Context, binary string, args []string) (ports.RunResult, error) {
	result := ports.RunResult{ExitCode: -1}

	cmd := a.command(ctx, binary, args)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return result, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return result, err
	}

	if err := cmd.Start(); err != nil {
		return result, fmt.Errorf("starting %s: %w", binary, err)
	}

	outBuf := newTailBuffer(a.outputLimit)
	errBuf := newTailBuffer(a.outputLimit)

	// Pipes must be drained before Wait closes them.
	drain := errgroup.Group{}
	drain.Go(func() error {
		_, err := io.Copy(outBuf, stdout)
		return err
	})
	drain.Go(func() error {
		_, err := io.Copy(errBuf, stderr)
		return err
	})

	// Children of the archiver may inherit the pipes and outlive it.
	drained := make(chan struct{})
	go func() {
		select {
		case <-drained:
			return
		case <-ctx.Done():
		}
		timer := time.NewTimer(a.waitDelay)
		defer timer.Stop()
		select {
		case <-drained:
		case <-timer.C:
			_ = stdout.Close()
			_ = stderr.Close()
		}
	}()

	drainErr := drain.Wait()
	close(drained)
	waitErr := cmd.Wait()

	result.Stdout = outBuf.String()
	result.Stderr = errBuf.String()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("archiver interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, fmt.Errorf("waiting for %s: %w", binary, waitErr)
		}
		// Killed by a signal: no exit code to interpret.
		if result.ExitCode < 0 {
			return result, fmt.Errorf("%s terminated: %w", binary, waitErr)
		}
	}

	if drainErr != nil {
		return result, fmt.Errorf("reading archiver output: %w", drainErr)
	}

	return result, nil
}

// command creates an exec.Cmd for the archiver binary.
func (a *ExecArchiver) command(ctx context.Context, binary string, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = a.dir
	cmd.Env = a.env
	cmd.WaitDelay = a.waitDelay
	return cmd
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	buf   bytes.Buffer
	limit int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) > t.limit {
		p = p[len(p)-t.limit:]
	}
	if over := t.buf.Len() + len(p) - t.limit; over > 0 {
		t.buf.Next(over)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}

// Compile-time check that ExecArchiver implements ports.Archiver.
var _ ports.Archiver = (*ExecArchiver)(nil)
