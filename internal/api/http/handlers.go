package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/GriffinCanCode/vizy/internal/domain/form"
	"github.com/GriffinCanCode/vizy/internal/domain/job"
	"github.com/GriffinCanCode/vizy/internal/domain/project"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/logging"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/monitoring"
	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxRunBodySize bounds a submission body.
const MaxRunBodySize = 1 << 20

// RunResponse is returned when a job starts.
type RunResponse struct {
	ID     string            `json:"id"`
	Task   string            `json:"task"`
	Inputs map[string]string `json:"inputs"`
}

// Handlers contains all HTTP handlers
type Handlers struct {
	project *project.Project
	runner  *job.Runner
	page    []byte
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewHandlers creates a new handler set. page is the pre-rendered index.
func NewHandlers(
	p *project.Project,
	runner *job.Runner,
	page []byte,
	metrics *monitoring.Metrics,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		project: p,
		runner:  runner,
		page:    page,
		metrics: metrics,
		logger:  logger.Named("http"),
	}
}

// Index serves the project page.
func (h *Handlers) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"project": h.project.Name,
	}
	if j, err := h.runner.Current(); err == nil {
		resp["job"] = gin.H{"id": j.ID, "state": j.State()}
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// Run validates the submitted fields and starts the task.
func (h *Handlers) Run(c *gin.Context) {
	fields, err := readSubmission(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	payload := fields.Merge()
	if err := h.project.Validate(payload); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	inputs := h.project.Inputs(payload)
	j, err := h.runner.Start(c.Request.Context(), job.Spec{
		Task:    h.project.Name,
		Command: h.project.Task.Command,
		Dir:     h.project.WorkDir(),
		Env:     h.project.Environ(inputs),
		Inputs:  inputs,
		Timeout: h.project.Timeout(0),
	})
	switch {
	case errors.Is(err, job.ErrClosed):
		c.String(http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		h.logger.Error("Failed to start task", zap.Error(err))
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.JobStarted()
	}
	c.JSON(http.StatusOK, RunResponse{ID: j.ID, Task: j.Task, Inputs: inputs})
}

// Log returns the task output once the task has finished.
func (h *Handlers) Log(c *gin.Context) {
	j, ok := h.current(c)
	if !ok {
		return
	}
	if j.State() == job.Running {
		c.Status(http.StatusTooEarly)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", normalizeNewlines(j.Output()))
}

// Result returns the outcome of the finished task.
func (h *Handlers) Result(c *gin.Context) {
	j, ok := h.current(c)
	if !ok {
		return
	}
	res, err := j.Result()
	if errors.Is(err, job.ErrRunning) {
		c.Status(http.StatusTooEarly)
		return
	}

	if res.State != job.Succeeded {
		msg := fmt.Sprintf("%s failed: exit status %d", res.Task, res.ExitCode)
		if res.Error != "" {
			msg = fmt.Sprintf("%s failed: %s", res.Task, res.Error)
		}
		c.String(http.StatusInternalServerError, msg)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) current(c *gin.Context) (*job.Job, bool) {
	j, err := h.runner.Current()
	if err != nil {
		c.String(http.StatusNotFound, err.Error())
		return nil, false
	}
	return j, true
}

// readSubmission accepts a form-encoded body, or a JSON object of strings
// and string lists. Fields keep the order in which they were sent.
func readSubmission(c *gin.Context) (form.Submission, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxRunBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if c.ContentType() != gin.MIMEJSON {
		s, err := form.ParseEncoded(string(body))
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		return s, nil
	}

	var raw map[string]any
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	root, err := sonic.Get(body)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	props, err := root.Properties()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	var s form.Submission
	var pair ast.Pair
	for props.Next(&pair) {
		if s, err = addJSON(s, pair.Key, raw[pair.Key]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func addJSON(s form.Submission, name string, value any) (form.Submission, error) {
	switch v := value.(type) {
	case string:
		return s.Add(name, v), nil
	case float64, bool:
		return s.Add(name, fmt.Sprint(v)), nil
	case []any:
		for _, item := range v {
			s = s.Add(name, fmt.Sprint(item))
		}
		return s, nil
	default:
		return nil, fmt.Errorf("field %q: unsupported value", name)
	}
}

func normalizeNewlines(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
}
