package client

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/GriffinCanCode/vizy/internal/domain/display"
	"github.com/gabriel-vasile/mimetype"
)

// Response is a successful reply from a code endpoint.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

func newResponse(status int, contentType string, body []byte) *Response {
	return &Response{Status: status, ContentType: contentType, Body: body}
}

// Structured reports whether the body is JSON, by header or by content.
func (r *Response) Structured() bool {
	if strings.HasPrefix(r.ContentType, "application/json") {
		return true
	}
	if len(r.Body) == 0 {
		return false
	}
	return mimetype.Detect(r.Body).Is("application/json")
}

// Data returns the body in the form the display log expects: JSON as
// display.Raw so it is re-serialized, anything else as text.
func (r *Response) Data() any {
	if r.Structured() {
		return display.Raw(r.Body)
	}
	return string(r.Body)
}

// StatusError is a non-2xx reply. Its message is the reply body so that it
// can be shown verbatim.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Body
}

// TooEarly reports whether the server said the log is not ready yet.
func (e *StatusError) TooEarly() bool {
	return e.Status == http.StatusTooEarly
}
