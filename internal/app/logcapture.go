package app

import (
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2/data/binding"
)

const (
	logDebounceInterval = 150 * time.Millisecond
	maxLogLines         = 300
)

// logCapture is a zapcore.WriteSyncer that keeps the last lines written to
// it and mirrors them into a binding shown by the log panel.
type logCapture struct {
	mu       sync.Mutex
	lines    []string
	limit    int
	binding  binding.String
	updateCh chan struct{}
	done     chan struct{}
}

func newLogCapture(b binding.String, limit int) *logCapture {
	if limit <= 0 {
		limit = maxLogLines
	}
	return &logCapture{binding: b, limit: limit}
}

func (l *logCapture) Write(p []byte) (int, error) {
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	l.mu.Lock()
	for _, part := range strings.Split(text, "\n") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		l.lines = append(l.lines, part)
	}
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
	ch := l.updateCh
	l.mu.Unlock()

	if ch == nil {
		l.flush()
		return len(p), nil
	}
	select {
	case ch <- struct{}{}:
	default:
	}
	return len(p), nil
}

func (l *logCapture) Sync() error {
	l.flush()
	return nil
}

// Text returns the captured lines joined by newlines.
func (l *logCapture) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

// start batches binding updates so bursts of log lines redraw the panel once.
func (l *logCapture) start() {
	l.mu.Lock()
	if l.updateCh != nil {
		l.mu.Unlock()
		return
	}
	l.updateCh = make(chan struct{}, 1)
	l.done = make(chan struct{})
	ch, done := l.updateCh, l.done
	l.mu.Unlock()
	go l.updateLoop(ch, done)
}

// stop ends the update loop and pushes the remaining lines. Later writes
// update the binding synchronously.
func (l *logCapture) stop() {
	l.mu.Lock()
	done := l.done
	l.updateCh = nil
	l.done = nil
	l.mu.Unlock()
	if done == nil {
		return
	}
	close(done)
	l.flush()
}

func (l *logCapture) updateLoop(ch <-chan struct{}, done <-chan struct{}) {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-done:
			timer.Stop()
			return
		case <-ch:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			l.flush()
		}
	}
}

func (l *logCapture) flush() {
	if l.binding == nil {
		return
	}
	_ = l.binding.Set(l.Text())
}
