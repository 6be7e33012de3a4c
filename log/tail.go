package log

import (
	"bytes"
	"sync"
)

// Tail is an [io.Writer] that retains the most recent complete lines written
// to it.
//
// Write splits input on newlines, buffering a trailing fragment until a
// later Write completes it. When the retained line count exceeds the
// configured maximum, the oldest lines are dropped. A buffered notification
// channel (see [Tail.C]) coalesces signals so Write never blocks. Safe for
// concurrent use.
//
// Create instances with [NewTail].
type Tail struct {
	lines   []string
	partial []byte
	max     int
	notify  chan struct{}
	mu      sync.Mutex
}

// NewTail creates a [Tail] retaining at most n lines.
// Values less than 1 are clamped to 1.
func NewTail(n int) *Tail {
	if n < 1 {
		n = 1
	}

	return &Tail{
		max:    n,
		notify: make(chan struct{}, 1),
	}
}

// Write appends b, splitting complete lines on '\n'. A trailing fragment
// without a newline is held back until completed. Write always returns
// len(b), nil.
func (t *Tail) Write(b []byte) (int, error) {
	t.mu.Lock()

	t.partial = append(t.partial, b...)

	added := false
	for {
		i := bytes.IndexByte(t.partial, '\n')
		if i < 0 {
			break
		}

		t.lines = append(t.lines, string(t.partial[:i]))
		t.partial = t.partial[i+1:]
		added = true
	}

	if len(t.partial) == 0 {
		t.partial = nil
	}

	if n := len(t.lines) - t.max; n > 0 {
		t.lines = append(t.lines[:0], t.lines[n:]...)
	}

	t.mu.Unlock()

	if added {
		// Coalesce: a pending signal already covers these lines.
		select {
		case t.notify <- struct{}{}:
		default:
		}
	}

	return len(b), nil
}

// Lines returns a snapshot of the retained lines, oldest first.
func (t *Tail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.lines))
	copy(out, t.lines)

	return out
}

// C returns a channel signaled whenever new complete lines arrive.
// Signals are coalesced, so one receive may cover multiple lines.
func (t *Tail) C() <-chan struct{} {
	return t.notify
}
