// Package uiloop is a stand-in for the host application's GUI event loop: a
// single goroutine that runs posted callbacks one at a time. The pump and the
// executor only ever run here, which is what makes the document safe to
// mutate without locks.
package uiloop

import (
	"sync"
	"time"

	"cadbridge/pkg/logx"
)

// Loop runs callbacks serially on the goroutine that calls Run.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	once  sync.Once

	logger *logx.Logger
}

// New creates a loop with a bounded task backlog.
func New() *Loop {
	return &Loop{
		tasks:  make(chan func(), 256),
		quit:   make(chan struct{}),
		logger: logx.NewLogger("uiloop"),
	}
}

// Run consumes tasks until Stop is called. It blocks the calling goroutine,
// which becomes the UI goroutine.
func (l *Loop) Run() {
	l.logger.Debug("UI loop running")
	for {
		select {
		case <-l.quit:
			l.logger.Debug("UI loop stopped")
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post schedules fn to run on the UI goroutine. Returns false once the loop
// is stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	case l.tasks <- fn:
		return true
	}
}

// PostDelayed schedules fn to run on the UI goroutine after d. Returns false
// once the loop is stopped; a callback whose delay expires after Stop is
// silently dropped.
func (l *Loop) PostDelayed(d time.Duration, fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	time.AfterFunc(d, func() {
		_ = l.Post(fn)
	})
	return true
}

// Stop terminates Run. Idempotent; pending tasks are discarded.
func (l *Loop) Stop() {
	l.once.Do(func() {
		close(l.quit)
	})
}
