package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/vizy/internal/domain/form"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/logging"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/tracing"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// Endpoint paths served by vizy.
const (
	RunPath    = "/code/run"
	LogPath    = "/code/log"
	ResultPath = "/code/res"
	StreamPath = "/code/stream"
)

const userAgent = "vizy-client/1.0"

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// PageRetries bounds how often FetchPage retries while the server is
	// unreachable.
	PageRetries int
	Logger      *logging.Logger
}

// Client wraps resty for the code endpoints and retryablehttp for the page.
type Client struct {
	resty   *resty.Client
	page    *retryablehttp.Client
	baseURL string
}

// New builds a client for the server at opts.BaseURL.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PageRetries < 0 {
		opts.PageRetries = 0
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Named("client")

	base := strings.TrimRight(opts.BaseURL, "/")

	r := resty.New().
		SetBaseURL(base).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetLogger(log.Sugar())

	page := retryablehttp.NewClient()
	page.RetryMax = opts.PageRetries
	page.RetryWaitMin = 200 * time.Millisecond
	page.RetryWaitMax = 2 * time.Second
	page.HTTPClient.Timeout = opts.Timeout
	page.Logger = leveled{log.Sugar()}

	return &Client{resty: r, page: page, baseURL: base}
}

// BaseURL returns the server address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Run posts the merged form fields, form-encoded, to the run endpoint.
func (c *Client) Run(ctx context.Context, payload form.Payload) (*Response, error) {
	req := c.request(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(payload.Encode())
	return c.do(req, http.MethodPost, RunPath)
}

// FetchLog reads the execution log. The server answers 425 until the job
// has finished.
func (c *Client) FetchLog(ctx context.Context) (*Response, error) {
	return c.do(c.request(ctx), http.MethodGet, LogPath)
}

// FetchResult reads the final result of the last job.
func (c *Client) FetchResult(ctx context.Context) (*Response, error) {
	return c.do(c.request(ctx), http.MethodGet, ResultPath)
}

// FetchPage downloads the project page, retrying while the server is
// unreachable or answers with a 5xx.
func (c *Client) FetchPage(ctx context.Context) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.page.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.resty.R().SetContext(ctx)
	tracing.Inject(ctx, req.Header)
	return req
}

func (c *Client) do(req *resty.Request, method, path string) (*Response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	return newResponse(resp.StatusCode(), resp.Header().Get("Content-Type"), resp.Body()), nil
}
