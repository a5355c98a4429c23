package lifecycle

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cadbridge/pkg/config"
	"cadbridge/pkg/uiloop"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Listen.AuthDisabled = true
	cfg.Bridge.PumpInterval = config.Duration(5 * time.Millisecond)
	cfg.EventLogDir = filepath.Join(t.TempDir(), "logs")
	return cfg
}

func newTestManager(t *testing.T) *Manager {
	loop := uiloop.New()
	go loop.Run()
	t.Cleanup(loop.Stop)
	return NewManager(testConfig(t), loop)
}

func TestStartStopStatusStrings(t *testing.T) {
	m := newTestManager(t)

	status := m.Start("127.0.0.1", 0)
	if !strings.HasPrefix(status, "RPC Server started at 127.0.0.1:") {
		t.Fatalf("Start status = %q", status)
	}

	if got := m.Start("127.0.0.1", 0); got != "RPC Server already running." {
		t.Errorf("Second Start status = %q", got)
	}

	if got := m.Stop(); got != "RPC Server stopped." {
		t.Errorf("Stop status = %q", got)
	}
	if got := m.Stop(); got != "RPC Server was not running." {
		t.Errorf("Second Stop status = %q", got)
	}
}

func TestStartStopStartCycle(t *testing.T) {
	m := newTestManager(t)

	status := m.Start("127.0.0.1", 0)
	if !strings.HasPrefix(status, "RPC Server started") {
		t.Fatalf("First Start failed: %q", status)
	}
	callTool(t, m, "create_box", map[string]any{"length": 1, "width": 1, "height": 1})
	m.Stop()

	status = m.Start("127.0.0.1", 0)
	if !strings.HasPrefix(status, "RPC Server started") {
		t.Fatalf("Restart failed: %q", status)
	}
	defer m.Stop()

	// The document survives a listener restart.
	text := callTool(t, m, "list_objects", map[string]any{})
	if !strings.Contains(text, "Box_0 (Box)") {
		t.Errorf("Document lost across restart: %q", text)
	}
}

func TestStartFailsOnBusyPort(t *testing.T) {
	m := newTestManager(t)
	status := m.Start("127.0.0.1", 0)
	if !strings.HasPrefix(status, "RPC Server started") {
		t.Fatalf("Start failed: %q", status)
	}
	defer m.Stop()

	other := newTestManager(t)
	port := m.Server().Port()
	if got := other.Start("127.0.0.1", port); !strings.HasPrefix(got, "Failed to start RPC Server") {
		t.Errorf("Start on busy port = %q", got)
		other.Stop()
	}
}

// callTool performs one authenticated-less tools/call round trip.
func callTool(t *testing.T, m *Manager, name string, args map[string]any) string {
	t.Helper()

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", m.Server().Port()))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	}
	data, _ := json.Marshal(req)
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var resp struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("Tool call failed: %s", resp.Error.Message)
	}
	if len(resp.Result.Content) == 0 {
		t.Fatal("Empty tool result")
	}
	if resp.Result.IsError {
		t.Fatalf("Tool error: %s", resp.Result.Content[0].Text)
	}
	return resp.Result.Content[0].Text
}
