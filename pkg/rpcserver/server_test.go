package rpcserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"cadbridge/pkg/bridge"
	"cadbridge/pkg/document"
	"cadbridge/pkg/ops"
	"cadbridge/pkg/uiloop"
)

type testHarness struct {
	server *Server
	bridge *bridge.Bridge
	loop   *uiloop.Loop
	cancel context.CancelFunc
}

func startHarness(t *testing.T, opts Options) *testHarness {
	t.Helper()

	loop := uiloop.New()
	go loop.Run()

	b := bridge.New(5 * time.Second)
	ex := ops.NewExecutor(document.NewState())
	b.StartPump(loop, ex, 5*time.Millisecond)

	srv := NewServer(b, nil, opts)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := srv.Start(ctx, "127.0.0.1", 0); err != nil {
			t.Errorf("Server start failed: %v", err)
		}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Port() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Server did not start listening")
		}
		time.Sleep(time.Millisecond)
	}

	h := &testHarness{server: srv, bridge: b, loop: loop, cancel: cancel}
	t.Cleanup(func() {
		cancel()
		_ = srv.Stop()
		b.Close()
		loop.Stop()
	})
	return h
}

type testClient struct {
	conn   net.Conn
	reader *bufio.Reader
	nextID int
}

func (h *testHarness) dial(t *testing.T) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", h.server.Port()))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) sendLine(t *testing.T, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func (c *testClient) readLine(t *testing.T, into any) {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if err := json.Unmarshal(line, into); err != nil {
		t.Fatalf("Unmarshal failed: %v (line: %s)", err, line)
	}
}

func (c *testClient) authenticate(t *testing.T, token string) map[string]any {
	t.Helper()
	c.sendLine(t, map[string]any{"auth": token})
	var resp map[string]any
	c.readLine(t, &resp)
	return resp
}

func (c *testClient) request(t *testing.T, method string, params any) *JSONRPCResponse {
	t.Helper()
	c.nextID++
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      c.nextID,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}
	c.sendLine(t, req)
	var resp JSONRPCResponse
	c.readLine(t, &resp)
	return &resp
}

func callResultText(t *testing.T, resp *JSONRPCResponse) (string, bool) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected JSON-RPC error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("Result is not an object: %T", resp.Result)
	}
	content, ok := result["content"].([]any)
	if !ok || len(content) == 0 {
		t.Fatalf("Missing content in result: %+v", result)
	}
	first, _ := content[0].(map[string]any)
	text, _ := first["text"].(string)
	isError, _ := result["isError"].(bool)
	return text, isError
}

func TestAuthHandshake(t *testing.T) {
	h := startHarness(t, Options{})

	// Wrong token is rejected.
	bad := h.dial(t)
	resp := bad.authenticate(t, "wrong-token")
	if ok, _ := resp["authenticated"].(bool); ok {
		t.Error("Expected authentication failure for bad token")
	}

	// Correct token is accepted.
	good := h.dial(t)
	resp = good.authenticate(t, h.server.Token())
	if ok, _ := resp["authenticated"].(bool); !ok {
		t.Errorf("Expected authentication success, got %+v", resp)
	}
}

func TestInitializeAndToolsList(t *testing.T) {
	h := startHarness(t, Options{AuthDisabled: true})
	c := h.dial(t)

	resp := c.request(t, "initialize", map[string]any{})
	result, _ := resp.Result.(map[string]any)
	info, _ := result["serverInfo"].(map[string]any)
	if info["name"] != "cadbridge" {
		t.Errorf("serverInfo.name = %v", info["name"])
	}

	resp = c.request(t, "tools/list", nil)
	result, _ = resp.Result.(map[string]any)
	tools, _ := result["tools"].([]any)
	if len(tools) != 13 {
		t.Errorf("tools/list returned %d tools, want 13", len(tools))
	}
	names := map[string]bool{}
	for _, raw := range tools {
		tool, _ := raw.(map[string]any)
		name, _ := tool["name"].(string)
		names[name] = true
		if _, ok := tool["inputSchema"].(map[string]any); !ok {
			t.Errorf("Tool %s missing inputSchema", name)
		}
	}
	for _, want := range []string{"create_box", "boolean_operation", "export_stl", "save_document"} {
		if !names[want] {
			t.Errorf("tools/list missing %s", want)
		}
	}
}

func TestToolsCallRoundTrip(t *testing.T) {
	h := startHarness(t, Options{AuthDisabled: true})
	c := h.dial(t)

	resp := c.request(t, "tools/call", map[string]any{
		"name": "create_box",
		"arguments": map[string]any{
			"length": 10, "width": 20, "height": 30,
		},
	})
	text, isError := callResultText(t, resp)
	if isError {
		t.Fatalf("create_box returned error: %s", text)
	}
	if text != "Created box 'Box_0' with dimensions 10x20x30mm" {
		t.Errorf("Unexpected result text: %q", text)
	}

	// State persists across calls on the same server.
	resp = c.request(t, "tools/call", map[string]any{
		"name":      "list_objects",
		"arguments": map[string]any{},
	})
	text, isError = callResultText(t, resp)
	if isError {
		t.Fatalf("list_objects returned error: %s", text)
	}
	if !strings.Contains(text, "Box_0 (Box)") {
		t.Errorf("list_objects = %q", text)
	}
}

func TestToolsCallOperationFailure(t *testing.T) {
	h := startHarness(t, Options{AuthDisabled: true})
	c := h.dial(t)

	resp := c.request(t, "tools/call", map[string]any{
		"name":      "move_object",
		"arguments": map[string]any{"object_name": "Ghost", "vector": map[string]any{"x": 1}},
	})
	text, isError := callResultText(t, resp)
	if !isError {
		t.Fatal("Expected isError result for move without document")
	}
	if !strings.Contains(text, "No active document") {
		t.Errorf("Unexpected error text: %q", text)
	}
}

func TestToolsCallUnknownTool(t *testing.T) {
	h := startHarness(t, Options{AuthDisabled: true})
	c := h.dial(t)

	resp := c.request(t, "tools/call", map[string]any{
		"name":      "fabricate_widget",
		"arguments": map[string]any{},
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("Expected -32602 for unknown tool, got %+v", resp.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	h := startHarness(t, Options{AuthDisabled: true})
	c := h.dial(t)

	resp := c.request(t, "unsupported/method", nil)
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Errorf("Expected -32601, got %+v", resp.Error)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := startHarness(t, Options{AuthDisabled: true})
	if err := h.server.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := h.server.Stop(); err != nil {
		t.Fatalf("Second Stop failed: %v", err)
	}
	if h.server.Running() {
		t.Error("Server still reports running after Stop")
	}
}
