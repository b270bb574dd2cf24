package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/GriffinCanCode/vizy/internal/infrastructure/logging"
	"github.com/creack/pty"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a job when neither the project nor the runner sets one.
const DefaultTimeout = 10 * time.Minute

// Spec describes what to run.
type Spec struct {
	Task    string
	Command []string
	Dir     string
	Env     []string
	Inputs  map[string]string
	Timeout time.Duration
}

// Options configures a Runner.
type Options struct {
	PTY        bool
	Timeout    time.Duration
	BufferSize int
	Logger     *logging.Logger
	// OnFinish is called once per job after it ends.
	OnFinish func(*Job)
}

// Runner starts jobs, one at a time.
type Runner struct {
	opts   Options
	logger *logging.Logger

	mu      sync.Mutex
	current *Job
	closed  bool
}

// NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Runner{opts: opts, logger: opts.Logger.Named("job")}
}

// Start launches spec, killing the running job first. The job is detached
// from ctx cancellation: it ends when the process exits, on its timeout, or
// when a later Start or Close kills it.
func (r *Runner) Start(ctx context.Context, spec Spec) (*Job, error) {
	if len(spec.Command) == 0 {
		return nil, errors.New("empty command")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if prev := r.current; prev != nil && prev.State() == Running {
		r.logger.Info("Killing superseded job", zap.String("job", prev.ID))
		prev.Kill()
		<-prev.Done()
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = r.opts.Timeout
	}
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	cmd := exec.CommandContext(jctx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)

	j := &Job{
		ID:        uuid.NewString(),
		Task:      spec.Task,
		Inputs:    spec.Inputs,
		StartedAt: time.Now(),
		cmd:       cmd,
		cancel:    cancel,
		output:    NewBuffer(r.opts.BufferSize),
		done:      make(chan struct{}),
		state:     Running,
		exitCode:  -1,
		subs:      make(map[int]chan []byte),
	}

	out, err := r.launch(cmd)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", spec.Command[0], err)
	}

	r.current = j
	r.logger.Info("Job started",
		zap.String("job", j.ID),
		zap.Strings("command", spec.Command),
		zap.Bool("pty", r.opts.PTY),
		zap.Duration("timeout", timeout))

	go r.wait(jctx, j, out)
	return j, nil
}

// launch starts cmd with stdout and stderr merged into the returned reader.
func (r *Runner) launch(cmd *exec.Cmd) (io.ReadCloser, error) {
	if r.opts.PTY {
		cmd.Env = append(cmd.Env, "TERM=xterm-256color")
		ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 40, Cols: 120})
		if err != nil {
			return nil, err
		}
		return ptmx, nil
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, err
	}
	pw.Close()
	return pr, nil
}

func (r *Runner) wait(ctx context.Context, j *Job, out io.ReadCloser) {
	defer j.cancel()

	// Descendants may keep the output open after a kill; closing it
	// unblocks the copy.
	go func() {
		<-ctx.Done()
		out.Close()
	}()

	// A pty read fails with EIO once the child is gone; both that and EOF
	// end the copy.
	_, _ = io.Copy(j, out)
	waitErr := j.cmd.Wait()

	code := j.cmd.ProcessState.ExitCode()
	var err error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("timed out after %s", j.Duration().Round(time.Millisecond))
	case ctx.Err() != nil:
		err = errors.New("killed")
	case waitErr != nil:
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			err = waitErr
		}
	}
	j.finish(code, err)

	r.logger.Info("Job finished",
		zap.String("job", j.ID),
		zap.String("state", string(j.State())),
		zap.Int("exit_code", code),
		zap.Duration("duration", j.Duration()))

	if r.opts.OnFinish != nil {
		r.opts.OnFinish(j)
	}
}

// Current returns the latest job.
func (r *Runner) Current() (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil, ErrNoJob
	}
	return r.current, nil
}

// Close kills the running job, waits for it up to ctx, and refuses new ones.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	j := r.current
	r.mu.Unlock()

	if j == nil {
		return nil
	}
	j.Kill()
	select {
	case <-j.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
