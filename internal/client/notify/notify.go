// Package notify delivers short user-facing messages (the CLI's toasts).
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/contentdesk/internal/logging"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
)

type Notifier interface {
	Notify(ctx context.Context, sev Severity, msg string)
}

type discard struct{}

func (discard) Notify(context.Context, Severity, string) {}

// Discard drops every notification.
var Discard Notifier = discard{}

// Console prints notifications to a writer, one per line, and mirrors them
// to the logger at debug level.
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	log logging.Logger
}

func NewConsole(w io.Writer, log logging.Logger) *Console {
	if log == nil {
		log = logging.Nop()
	}
	return &Console{w: w, log: log}
}

var marks = map[Severity]string{
	Success: "[ok]",
	Error:   "[error]",
	Warning: "[warn]",
}

func (c *Console) Notify(ctx context.Context, sev Severity, msg string) {
	c.log.Debug(ctx, "notification", "severity", string(sev), "message", msg)

	mark, ok := marks[sev]
	if !ok {
		mark = "[" + string(sev) + "]"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", mark, msg)
}

// Entry is one recorded notification.
type Entry struct {
	Severity Severity
	Message  string
}

// Recorder keeps notifications in memory. Useful in tests and for
// rendering a message history.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Notify(_ context.Context, sev Severity, msg string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Severity: sev, Message: msg})
	r.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Last returns the most recent entry; ok is false if there is none.
func (r *Recorder) Last() (e Entry, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[len(r.entries)-1], true
}
