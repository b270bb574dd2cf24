// Package form models what a submitted form sends: an ordered list of
// fields (Submission) and its merged, de-duplicated form (Payload).
//
// Capture reads a rendered page with goquery and serializes its form the
// same way a browser does, so the CLI submits exactly what the page's
// defaults would.
package form
