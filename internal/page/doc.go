// Package page renders the project page served at "/".
//
// The README is converted with goldmark, fenced code blocks are tagged with
// the "hljs language-<lang>" class prefix (and optionally highlighted) in a
// goquery pass, and the result is sanitized with bluemonday before it is
// embedded in the page template next to the parameter form.
package page
