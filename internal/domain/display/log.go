package display

import (
	"strings"
	"sync"
)

// Separator ends every rendered entry.
const Separator = "\n"

// EventKind tells listeners which mutation happened.
type EventKind int

const (
	Appended EventKind = iota
	Cleared
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case Appended:
		return "appended"
	case Cleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event describes one mutation of a Log.
type Event struct {
	Kind  EventKind
	Entry string // empty for Cleared
	Index int    // position of the appended entry
}

// Listener observes mutations in the order they were applied.
type Listener func(Event)

// Log is the user-visible output region: an ordered, append-only list of
// rendered strings that is only ever emptied as a whole.
type Log struct {
	mu        sync.Mutex
	entries   []string
	listeners []Listener
}

// Option configures a Log.
type Option func(*Log)

// WithListener registers a listener called synchronously after each mutation.
func WithListener(fn Listener) Option {
	return func(l *Log) {
		l.listeners = append(l.listeners, fn)
	}
}

// New creates an empty Log.
func New(opts ...Option) *Log {
	l := &Log{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append formats data and adds it as the last entry.
func (l *Log) Append(data any) {
	entry := Format(data)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	l.notify(Event{Kind: Appended, Entry: entry, Index: len(l.entries) - 1})
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	l.notify(Event{Kind: Cleared})
}

// Snapshot returns a copy of the current entries for rendering.
func (l *Log) Snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// String renders every entry followed by Separator.
func (l *Log) String() string {
	var sb strings.Builder
	for _, entry := range l.Snapshot() {
		sb.WriteString(entry)
		sb.WriteString(Separator)
	}
	return sb.String()
}

// notify runs with l.mu held so listeners see mutations in order.
func (l *Log) notify(ev Event) {
	for _, fn := range l.listeners {
		fn(ev)
	}
}
