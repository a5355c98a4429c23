// Package bridge hands calls from listener goroutines to the single consumer
// that owns the document. Submitters block on a per-call result slot; the
// pump drains the FIFO queue one call at a time on the UI goroutine.
package bridge

import (
	"sync"
	"time"

	"cadbridge/pkg/logx"
	"cadbridge/pkg/proto"
)

// DefaultSubmitTimeout bounds how long a submitter waits for the pump.
const DefaultSubmitTimeout = 30 * time.Second

// Executor runs one call to completion. Implemented by ops.Executor.
type Executor interface {
	Execute(call *proto.Call) *proto.Result
}

// Scheduler posts a callback to run on the UI goroutine after a delay.
// Implemented by uiloop.Loop.
type Scheduler interface {
	PostDelayed(d time.Duration, fn func()) bool
}

// Bridge is the only structure shared between the listener and UI goroutines.
type Bridge struct {
	mu      sync.Mutex // guards queue, waiters, closed
	queue   []*proto.Call
	waiters map[string]chan *proto.Result
	closed  bool

	timeout time.Duration
	logger  *logx.Logger
}

// New creates an open bridge. A non-positive timeout falls back to
// DefaultSubmitTimeout.
func New(timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &Bridge{
		waiters: make(map[string]chan *proto.Result),
		timeout: timeout,
		logger:  logx.NewLogger("bridge"),
	}
}

// Active reports whether the bridge still accepts calls.
func (b *Bridge) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

// QueueLen returns the number of calls awaiting the pump.
func (b *Bridge) QueueLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Submit enqueues call and blocks until its result arrives, the timeout
// expires, or the bridge closes. Exactly one result is returned per call.
func (b *Bridge) Submit(call *proto.Call) *proto.Result {
	if err := call.Validate(); err != nil {
		return proto.Failed(call.ID, proto.FailInvalidArgument, "Invalid call: %v", err)
	}

	slot := make(chan *proto.Result, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return proto.Failed(call.ID, proto.FailShutdown, "Bridge is closed")
	}
	b.queue = append(b.queue, call)
	b.waiters[call.ID] = slot
	b.mu.Unlock()

	submittedTotal.Inc()
	queueDepth.Inc()
	start := time.Now()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case res := <-slot:
		recordOutcome(outcomeOf(res), time.Since(start).Seconds())
		return res
	case <-timer.C:
		b.abandon(call.ID)
		recordOutcome(string(proto.FailBridgeTimeout), time.Since(start).Seconds())
		b.logger.Warn("Call %s (%s) timed out after %s", call.ID, call.Op, b.timeout)
		return proto.Failed(call.ID, proto.FailBridgeTimeout, "No result within %s", b.timeout)
	}
}

// abandon removes a timed-out call so the pump never executes it and its
// eventual result has nowhere to go.
func (b *Bridge) abandon(callID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.waiters, callID)
	for i, queued := range b.queue {
		if queued.ID == callID {
			b.queue = append(b.queue[:i], b.queue[i+1:]...)
			queueDepth.Dec()
			return
		}
	}
}

// pop removes and returns the oldest queued call, or nil when empty.
func (b *Bridge) pop() *proto.Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil
	}
	call := b.queue[0]
	b.queue = b.queue[1:]
	queueDepth.Dec()
	return call
}

// deliver hands a result to its waiting submitter. Abandoned calls (timed out
// before execution finished) are dropped.
func (b *Bridge) deliver(res *proto.Result) {
	b.mu.Lock()
	slot, ok := b.waiters[res.CallID]
	delete(b.waiters, res.CallID)
	b.mu.Unlock()
	if ok {
		slot <- res
	}
}

// DrainAndExecute runs queued calls through ex, oldest first, until the queue
// is observed empty. A failing call never aborts the drain of the rest. Must
// only be called from the UI goroutine.
func (b *Bridge) DrainAndExecute(ex Executor) int {
	executed := 0
	for {
		call := b.pop()
		if call == nil {
			return executed
		}
		b.deliver(safeExecute(ex, call))
		executed++
	}
}

// safeExecute converts an executor panic into a failure result for that call
// alone.
func safeExecute(ex Executor, call *proto.Call) (res *proto.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = proto.Failed(call.ID, proto.FailInternal, "Operation panicked: %v", r)
		}
	}()
	return ex.Execute(call)
}

// StartPump arms the self-rescheduling drain: each tick drains the queue and
// posts the next tick, for as long as the bridge is active.
func (b *Bridge) StartPump(sched Scheduler, ex Executor, interval time.Duration) {
	var tick func()
	tick = func() {
		if !b.Active() {
			b.logger.Debug("Pump stopping: bridge closed")
			return
		}
		if n := b.DrainAndExecute(ex); n > 0 {
			b.logger.Debug("Pump drained %d calls", n)
		}
		sched.PostDelayed(interval, tick)
	}
	sched.PostDelayed(interval, tick)
}

// Close rejects future submissions and resolves every in-flight submit with a
// shutdown failure. Safe to call more than once.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	pending := b.waiters
	b.waiters = make(map[string]chan *proto.Result)
	dropped := len(b.queue)
	b.queue = nil
	b.mu.Unlock()

	for i := 0; i < dropped; i++ {
		queueDepth.Dec()
	}
	for id, slot := range pending {
		slot <- proto.Failed(id, proto.FailShutdown, "Bridge closed while call was in flight")
	}
	b.logger.Info("Bridge closed (%d in-flight calls resolved)", len(pending))
}

func outcomeOf(res *proto.Result) string {
	if res.OK() {
		return "ok"
	}
	return string(res.Failure.Kind)
}
