// Package lifecycle owns starting and stopping the whole bridge stack:
// bridge, pump, audited executor, and RPC listener. Start and Stop are both
// idempotent and return human-readable status strings suitable for a command
// surface.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cadbridge/pkg/bridge"
	"cadbridge/pkg/config"
	"cadbridge/pkg/document"
	"cadbridge/pkg/eventlog"
	"cadbridge/pkg/logx"
	"cadbridge/pkg/ops"
	"cadbridge/pkg/proto"
	"cadbridge/pkg/rpcserver"
	"cadbridge/pkg/uiloop"
)

// startWait bounds how long Start waits for the listener to bind.
const startWait = 2 * time.Second

// Manager wires the stack together. At most one listener runs per manager.
type Manager struct {
	cfg    *config.Config
	loop   *uiloop.Loop
	state  *document.State
	logger *logx.Logger

	mu         sync.Mutex
	running    bool
	bridge     *bridge.Bridge
	server     *rpcserver.Server
	cancel     context.CancelFunc
	serverDone chan struct{}
	audit      *eventlog.Writer
}

// NewManager creates a stopped manager. The document state outlives
// start/stop cycles, like the host document outlives the listener.
func NewManager(cfg *config.Config, loop *uiloop.Loop) *Manager {
	return &Manager{
		cfg:    cfg,
		loop:   loop,
		state:  document.NewState(),
		logger: logx.NewLogger("lifecycle"),
	}
}

// State exposes the shared document state, for tests and host integration.
func (m *Manager) State() *document.State {
	return m.state
}

// Server returns the running RPC server, or nil when stopped.
func (m *Manager) Server() *rpcserver.Server {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.server
}

// Start brings up the stack on host:port. Idempotent: a second Start reports
// the server as already running instead of binding twice.
func (m *Manager) Start(host string, port int) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return "RPC Server already running."
	}

	if m.cfg.EventLogDir != "" {
		audit, err := eventlog.NewWriter(m.cfg.EventLogDir)
		if err != nil {
			m.logger.Warn("Audit log disabled: %v", err)
		} else {
			m.audit = audit
		}
	}

	m.bridge = bridge.New(m.cfg.Bridge.SubmitTimeout.Std())
	executor := newAuditedExecutor(ops.NewExecutor(m.state), m.audit)
	m.bridge.StartPump(m.loop, executor, m.cfg.Bridge.PumpInterval.Std())

	m.server = rpcserver.NewServer(m.bridge, nil, rpcserver.Options{
		AuthDisabled: m.cfg.Listen.AuthDisabled,
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.serverDone = make(chan struct{})
	go func() {
		defer close(m.serverDone)
		if err := m.server.Start(ctx, host, port); err != nil {
			m.logger.Error("RPC server exited: %v", err)
		}
	}()

	deadline := time.Now().Add(startWait)
	for m.server.Port() == 0 {
		select {
		case <-m.serverDone:
			m.teardownLocked()
			return fmt.Sprintf("Failed to start RPC Server at %s:%d.", host, port)
		default:
		}
		if time.Now().After(deadline) {
			m.teardownLocked()
			return fmt.Sprintf("Failed to start RPC Server at %s:%d.", host, port)
		}
		time.Sleep(time.Millisecond)
	}

	m.running = true
	return fmt.Sprintf("RPC Server started at %s:%d.", host, m.server.Port())
}

// Stop tears the stack down: listener first, then the bridge so in-flight
// submits resolve with shutdown failures. Idempotent.
func (m *Manager) Stop() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return "RPC Server was not running."
	}
	m.running = false
	m.teardownLocked()
	return "RPC Server stopped."
}

func (m *Manager) teardownLocked() {
	if m.server != nil {
		if err := m.server.Stop(); err != nil {
			m.logger.Warn("Listener close: %v", err)
		}
	}
	if m.cancel != nil {
		m.cancel()
	}
	if m.serverDone != nil {
		select {
		case <-m.serverDone:
		case <-time.After(startWait):
			m.logger.Warn("Listener goroutine did not exit in time")
		}
	}
	if m.bridge != nil {
		m.bridge.Close()
	}
	if m.audit != nil {
		if err := m.audit.Close(); err != nil {
			m.logger.Warn("Audit log close: %v", err)
		}
		m.audit = nil
	}
	m.server = nil
	m.cancel = nil
	m.serverDone = nil
	m.bridge = nil
}

// auditedExecutor records every executed call to the audit log.
type auditedExecutor struct {
	inner bridge.Executor
	audit *eventlog.Writer
}

func newAuditedExecutor(inner bridge.Executor, audit *eventlog.Writer) bridge.Executor {
	if audit == nil {
		return inner
	}
	return &auditedExecutor{inner: inner, audit: audit}
}

func (a *auditedExecutor) Execute(call *proto.Call) *proto.Result {
	start := time.Now()
	res := a.inner.Execute(call)
	rec := &eventlog.Record{
		ExecutedAt: start.UTC(),
		Duration:   time.Since(start),
		Call:       call,
		Result:     res,
	}
	// Audit failures never affect the call outcome.
	_ = a.audit.WriteRecord(rec)
	return res
}
