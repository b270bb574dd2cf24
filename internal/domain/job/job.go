package job

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"
)

var (
	// ErrNoJob means nothing has been run yet.
	ErrNoJob = errors.New("no job has been started")
	// ErrRunning means the job has not finished.
	ErrRunning = errors.New("job is still running")
	// ErrClosed means the runner no longer accepts jobs.
	ErrClosed = errors.New("runner is closed")
)

// State is the lifecycle position of a job.
type State string

const (
	Running   State = "running"
	Succeeded State = "succeeded"
	Failed    State = "failed"
)

const subscriberBuffer = 64

// Result is the final outcome of a finished job.
type Result struct {
	ID         string            `json:"id"`
	Task       string            `json:"task"`
	State      State             `json:"state"`
	ExitCode   int               `json:"exit_code"`
	DurationMS int64             `json:"duration_ms"`
	Inputs     map[string]string `json:"inputs,omitempty"`
	Error      string            `json:"error,omitempty"`
	Truncated  bool              `json:"truncated,omitempty"`
}

// Job is one execution of the task.
type Job struct {
	ID        string
	Task      string
	Inputs    map[string]string
	StartedAt time.Time

	cmd    *exec.Cmd
	cancel context.CancelFunc
	output *Buffer
	done   chan struct{}

	mu         sync.RWMutex
	state      State
	exitCode   int
	err        error
	finishedAt time.Time
	subs       map[int]chan []byte
	nextSub    int
}

// State returns the current state.
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Output returns the buffered output.
func (j *Job) Output() []byte {
	return j.output.Bytes()
}

// ExitCode returns the process exit code, -1 when it was killed or never
// started.
func (j *Job) ExitCode() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.exitCode
}

// Err returns why the job failed, nil while running or after success.
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// Duration returns the run time so far, or the total once finished.
func (j *Job) Duration() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.finishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.finishedAt.Sub(j.StartedAt)
}

// Done is closed when the process has exited and its output is read.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result returns the outcome, or ErrRunning.
func (j *Job) Result() (Result, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.state == Running {
		return Result{}, ErrRunning
	}
	r := Result{
		ID:         j.ID,
		Task:       j.Task,
		State:      j.state,
		ExitCode:   j.exitCode,
		DurationMS: j.finishedAt.Sub(j.StartedAt).Milliseconds(),
		Inputs:     j.Inputs,
		Truncated:  j.output.Truncated(),
	}
	if j.err != nil {
		r.Error = j.err.Error()
	}
	return r, nil
}

// Subscribe returns the output so far and a channel of later chunks. The
// channel is closed when the job ends or cancel is called. Chunks are
// dropped for a subscriber that falls behind.
func (j *Job) Subscribe() (backlog []byte, chunks <-chan []byte, cancel func()) {
	j.mu.Lock()
	defer j.mu.Unlock()

	backlog = j.output.Bytes()
	ch := make(chan []byte, subscriberBuffer)
	if j.state != Running {
		close(ch)
		return backlog, ch, func() {}
	}

	key := j.nextSub
	j.nextSub++
	j.subs[key] = ch

	var once sync.Once
	return backlog, ch, func() {
		once.Do(func() {
			j.mu.Lock()
			defer j.mu.Unlock()
			if c, ok := j.subs[key]; ok {
				delete(j.subs, key)
				close(c)
			}
		})
	}
}

// Kill stops the process. It is a no-op once the job has finished.
func (j *Job) Kill() {
	j.cancel()
}

// Write records a chunk of output and forwards it to subscribers.
func (j *Job) Write(p []byte) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	n, err := j.output.Write(p)
	if len(j.subs) > 0 {
		chunk := make([]byte, len(p))
		copy(chunk, p)
		for _, ch := range j.subs {
			select {
			case ch <- chunk:
			default:
			}
		}
	}
	return n, err
}

func (j *Job) finish(exitCode int, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.exitCode = exitCode
	j.err = err
	j.finishedAt = time.Now()
	if err == nil && exitCode == 0 {
		j.state = Succeeded
	} else {
		j.state = Failed
	}
	for key, ch := range j.subs {
		delete(j.subs, key)
		close(ch)
	}
	close(j.done)
}
