package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/vizy/internal/client"
	"github.com/GriffinCanCode/vizy/internal/domain/form"
	"github.com/GriffinCanCode/vizy/internal/domain/project"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/config"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/logging"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/server"
)

const echoYAML = `name: echo
parameters:
  - name: who
    type: text
    default: world
  - name: code
    type: number
    default: 0
task:
  command: ["sh", "-c", "echo hi $VIZY_WHO; exit $VIZY_CODE"]
`

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"failed cycle", &exitError{code: ExitFailed, err: errors.New("x")}, ExitFailed},
		{"no project", fmt.Errorf("%w in /tmp", project.ErrNoProject), ExitNoProject},
		{"no task", project.ErrNoTask, ExitNoTask},
		{"invalid", &project.InvalidProjectError{Reason: "bad"}, ExitInvalid},
		{"interrupted", fmt.Errorf("run: %w", context.Canceled), ExitInterrupted},
		{"unknown", errors.New("boom"), ExitUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vizy.yaml"), []byte(echoYAML), 0o644))
	p, err := project.Load(dir)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Job.PTY = false
	cfg.RateLimit.Enabled = false
	srv, err := server.NewServer(cfg, p, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Close(ctx)
		ts.Close()
	})
	return ts.URL
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestSubmitCommand(t *testing.T) {
	url := startServer(t)

	out, err := execute(t, "submit", "--server", url, "--interval", "10ms", "--set", "who=cli")
	require.NoError(t, err)
	assert.Contains(t, out, "hi cli\n")
	assert.Contains(t, out, `"state":"succeeded"`)
}

func TestSubmitCommandFailedRun(t *testing.T) {
	url := startServer(t)

	out, err := execute(t, "submit", "--server", url, "--interval", "10ms", "--set", "code=4")
	require.Error(t, err)
	assert.Equal(t, ExitFailed, exitCode(err))
	assert.Contains(t, out, "echo failed: exit status 4")
}

func TestSubmitCommandBadAssignment(t *testing.T) {
	url := startServer(t)

	_, err := execute(t, "submit", "--server", url, "--set", "novalue")
	require.Error(t, err)
	assert.Equal(t, ExitUnknown, exitCode(err))
}

func TestServeWithoutProject(t *testing.T) {
	_, err := execute(t, "serve", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitNoProject, exitCode(err))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vizy")
}

func TestSubmitLogsCycleMetrics(t *testing.T) {
	url := startServer(t)
	core, logs := observer.New(zap.DebugLevel)
	a := &app{logger: &logging.Logger{Logger: zap.New(core)}}

	c := client.New(client.Options{BaseURL: url, Timeout: 5 * time.Second})
	var out bytes.Buffer
	err := a.submit(context.Background(), c, resilience.Constant(10*time.Millisecond),
		submitOptions{selector: form.DefaultSelector}, &out)
	require.NoError(t, err)

	entries := logs.FilterMessage("Cycle metrics").All()
	require.Len(t, entries, 1)
	values, ok := entries[0].ContextMap()["metrics"].(map[string]float64)
	require.True(t, ok)
	assert.Equal(t, 1.0, values["vizy_client_cycles_started_total"])
	assert.Equal(t, 1.0, values["vizy_client_cycles_finished_total"])
	assert.GreaterOrEqual(t, values["vizy_client_log_poll_attempts_total"], 1.0)
}
