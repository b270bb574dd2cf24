// Package client talks to a vizy server over HTTP.
//
// The code endpoints are called through go-resty/resty with retries turned
// off: retrying the log endpoint is the controller's job, and a run or
// result request is never repeated. The page fetch goes through
// hashicorp/go-retryablehttp so that a client started next to a booting
// server waits for it.
//
// Every non-2xx reply becomes a *StatusError whose Error() is the reply
// body, so callers can surface it verbatim.
//
// Example Usage:
//
//	c := client.New(client.Options{BaseURL: "http://127.0.0.1:8000"})
//	resp, err := c.Run(ctx, submission.Merge())
package client
