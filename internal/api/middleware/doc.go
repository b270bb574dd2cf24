// Package middleware holds the gin middleware vizy's server installs besides
// metrics: CORS for every route and a per-IP rate limit on job submission.
package middleware
