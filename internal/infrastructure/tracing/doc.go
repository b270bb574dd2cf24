/*
Package tracing correlates client submission cycles with server requests.

A submission cycle carries its id as the trace id. The client injects it into
every run, log and result request as X-Trace-ID; the server middleware picks
it up, opens a span per request and logs the span when the request ends, so
one grep over the server log shows every request a cycle made.

# Usage

	tracer := tracing.New("server", logger)
	router.Use(tracing.HTTPMiddleware(tracer))

	// client side
	ctx = tracing.WithTraceID(ctx, tracing.TraceID(cycle.ID()))
	tracing.Inject(ctx, req.Header)
*/
package tracing
