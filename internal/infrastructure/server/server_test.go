package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/vizy/internal/api/ws"
	"github.com/GriffinCanCode/vizy/internal/client"
	"github.com/GriffinCanCode/vizy/internal/domain/controller"
	"github.com/GriffinCanCode/vizy/internal/domain/display"
	"github.com/GriffinCanCode/vizy/internal/domain/form"
	"github.com/GriffinCanCode/vizy/internal/domain/project"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/config"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/resilience"
)

const greetYAML = `name: greet
description: Says hello
parameters:
  - name: who
    type: text
    default: world
  - name: code
    type: number
    default: 0
task:
  command: ["sh", "-c", "echo hello $VIZY_WHO; exit $VIZY_CODE"]
`

func init() {
	gin.SetMode(gin.TestMode)
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vizy.yaml"), []byte(greetYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Greet\n\n"+strings.Repeat("Some words. ", 200)), 0o644))

	p, err := project.Load(dir)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Job.PTY = false
	cfg.RateLimit.Enabled = false
	cfg.Logging.Development = true

	s, err := NewServer(cfg, p, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.runner.Close(ctx)
		ts.Close()
	})
	return ts
}

func submit(t *testing.T, ts *httptest.Server, fields form.Submission) (controller.State, []string) {
	t.Helper()

	c := client.New(client.Options{BaseURL: ts.URL, Timeout: 5 * time.Second})
	ctrl := controller.New(c, display.New(), controller.Options{
		Policy: resilience.Constant(20 * time.Millisecond),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cycle := ctrl.Submit(ctx, fields)
	state, err := cycle.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, ctrl.Shutdown(ctx))
	return state, ctrl.Log().Snapshot()
}

func TestSubmitCompletes(t *testing.T) {
	ts := setupServer(t)

	fields := form.Submission{}.Add("who", "vizy")
	state, entries := submit(t, ts, fields)

	assert.Equal(t, controller.Completed, state)
	require.Len(t, entries, 3)
	assert.Contains(t, entries[0], `"task":"greet"`)
	assert.Contains(t, entries[0], `"who":"vizy"`)
	assert.Equal(t, "hello vizy\n", entries[1])
	assert.Contains(t, entries[2], `"state":"succeeded"`)
	assert.Contains(t, entries[2], `"exit_code":0`)
}

func TestSubmitTaskFailure(t *testing.T) {
	ts := setupServer(t)

	fields := form.Submission{}.Add("code", "3")
	state, entries := submit(t, ts, fields)

	assert.Equal(t, controller.ResultFailed, state)
	require.Len(t, entries, 3)
	assert.Equal(t, "hello world\n", entries[1])
	assert.Equal(t, "greet failed: exit status 3", entries[2])
}

func TestSubmitValidationFailure(t *testing.T) {
	ts := setupServer(t)

	fields := form.Submission{}.Add("code", "abc")
	state, entries := submit(t, ts, fields)

	assert.Equal(t, controller.RunFailed, state)
	assert.Equal(t, []string{`code: "abc" is not a number`}, entries)
}

func TestLogAndResultWithoutJob(t *testing.T) {
	ts := setupServer(t)
	c := client.New(client.Options{BaseURL: ts.URL})

	for _, fetch := range []func(context.Context) (*client.Response, error){c.FetchLog, c.FetchResult} {
		_, err := fetch(context.Background())
		var se *client.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.Status)
	}
}

func TestPageIsCompressed(t *testing.T) {
	ts := setupServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := (&http.Client{Transport: &http.Transport{DisableCompression: true}}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestPageCapture(t *testing.T) {
	ts := setupServer(t)
	c := client.New(client.Options{BaseURL: ts.URL})

	body, err := c.FetchPage(context.Background())
	require.NoError(t, err)

	fields, err := form.Capture(strings.NewReader(string(body)), form.DefaultSelector)
	require.NoError(t, err)
	payload := fields.Merge()
	assert.Equal(t, []string{"who", "code"}, payload.Keys())
	who, _ := payload.Get("who")
	assert.Equal(t, "world", who)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := setupServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"project":"greet"`)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "vizy_http_requests_total")
}

func TestStreamDeliversOutput(t *testing.T) {
	ts := setupServer(t)
	c := client.New(client.Options{BaseURL: ts.URL})

	fields := form.Submission{}.Add("who", "stream")
	_, err := c.Run(context.Background(), fields.Merge())
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + client.StreamPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var output strings.Builder
	var last ws.Message
	for last.Type != "complete" {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		last = ws.Message{}
		require.NoError(t, sonic.Unmarshal(data, &last))
		if last.Type == "output" {
			output.WriteString(last.Content)
		}
	}

	assert.Equal(t, "hello stream\n", output.String())
	require.NotNil(t, last.ExitCode)
	assert.Equal(t, 0, *last.ExitCode)
}
