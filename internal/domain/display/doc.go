// Package display holds the DisplayLog: the ordered output a submission cycle
// shows to the user.
//
// A Log has exactly two mutators, Append and Clear. Renderers read it through
// Snapshot or String, or subscribe with WithListener to print entries as they
// arrive.
package display
