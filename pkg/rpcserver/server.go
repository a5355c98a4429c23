// Package rpcserver exposes the operation set over TCP as an MCP server
// speaking line-delimited JSON-RPC 2.0. Every accepted operation is funneled
// through the bridge so that execution happens on the UI goroutine; the
// listener itself never touches the document.
package rpcserver

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"

	"cadbridge/pkg/bridge"
	"cadbridge/pkg/logx"
	"cadbridge/pkg/ops"
	"cadbridge/pkg/proto"
)

// Server accepts remote operation calls and submits them to the bridge.
type Server struct {
	bridge       *bridge.Bridge
	logger       *logx.Logger
	listener     net.Listener
	host         string
	port         int
	authToken    string
	authDisabled bool
	mu           sync.Mutex
	running      bool
	cancel       context.CancelFunc
}

// Options configures optional server behavior.
type Options struct {
	// AuthDisabled skips the token handshake. Only sensible for local
	// loopback setups.
	AuthDisabled bool
}

// NewServer creates a server with a randomly generated auth token.
// Use Token() to get the token to hand to clients.
func NewServer(b *bridge.Bridge, logger *logx.Logger, opts Options) *Server {
	if logger == nil {
		logger = logx.NewLogger("rpc-server")
	}
	return &Server{
		bridge:       b,
		logger:       logger,
		authToken:    generateToken(),
		authDisabled: opts.AuthDisabled,
	}
}

// generateToken creates a cryptographically random 32-byte hex token.
func generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand.Read only fails if the system's entropy source is broken
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// Start begins listening on host:port and blocks in the accept loop until
// Stop is called or the context is cancelled. Port 0 asks the OS for a free
// port; use Port() to read the assignment after Start begins accepting.
func (s *Server) Start(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return proto.FailErrorf(proto.FailTransport, "server already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		s.mu.Unlock()
		cancel()
		return proto.FailErrorf(proto.FailTransport, "failed to listen on %s:%d: %v", host, port, err)
	}

	addr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		s.mu.Unlock()
		cancel()
		_ = listener.Close()
		return proto.FailErrorf(proto.FailTransport, "unexpected listener address type: %T", listener.Addr())
	}
	s.host = host
	s.port = addr.Port
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.logger.Info("RPC server listening on %s:%d", host, s.port)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.logger.Error("Failed to accept connection: %v", err)
				continue
			}
		}

		go s.handleConnection(ctx, conn)
	}
}

// Stop shuts down the accept loop and closes the listener. Idempotent.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			return fmt.Errorf("failed to close listener: %w", err)
		}
	}

	s.logger.Info("RPC server stopped")
	return nil
}

// Running reports whether the accept loop is active.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Port returns the TCP port the server is listening on, 0 when stopped.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Token returns the auth token clients must present.
func (s *Server) Token() string {
	return s.authToken
}

// authMessage is the expected first message from clients.
type authMessage struct {
	Auth string `json:"auth"`
}

// handleConnection processes a single client connection. The first message
// must be an auth message with a valid token unless auth is disabled.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close() //nolint:errcheck // Best-effort close on defer

	s.logger.Debug("New connection from %s", conn.RemoteAddr())

	reader := bufio.NewReader(conn)

	if !s.authDisabled && !s.authenticateConnection(reader, conn) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				s.logger.Debug("Connection read error: %v", err)
			}
			return
		}

		var request JSONRPCRequest
		if err := json.Unmarshal(line, &request); err != nil {
			s.sendError(conn, nil, -32700, "Parse error", err.Error())
			continue
		}

		s.handleRequest(conn, &request)
	}
}

// authenticateConnection validates the first message as an auth token.
func (s *Server) authenticateConnection(reader *bufio.Reader, conn net.Conn) bool {
	line, err := reader.ReadBytes('\n')
	if err != nil {
		s.logger.Debug("Failed to read auth message: %v", err)
		return false
	}

	var auth authMessage
	if err := json.Unmarshal(line, &auth); err != nil {
		s.logger.Warn("Invalid auth message format: %v", err)
		s.sendAuthError(conn, "Invalid auth message format")
		return false
	}

	if auth.Auth != s.authToken {
		s.logger.Warn("Invalid auth token from client")
		s.sendAuthError(conn, "Invalid auth token")
		return false
	}

	s.logger.Debug("Client authenticated successfully")

	response := map[string]any{"authenticated": true}
	data, _ := json.Marshal(response)
	data = append(data, '\n')
	if _, writeErr := conn.Write(data); writeErr != nil {
		s.logger.Debug("Failed to send auth response: %v", writeErr)
		return false
	}
	return true
}

func (s *Server) sendAuthError(conn net.Conn, message string) {
	response := map[string]any{
		"authenticated": false,
		"error":         message,
	}
	data, _ := json.Marshal(response)
	data = append(data, '\n')
	_, _ = conn.Write(data)
}

// handleRequest dispatches a JSON-RPC request to the appropriate handler.
func (s *Server) handleRequest(conn net.Conn, req *JSONRPCRequest) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(conn, req)
	case "notifications/initialized":
		// No response needed for notifications
	case "tools/list":
		s.handleToolsList(conn, req)
	case "tools/call":
		s.handleToolsCall(conn, req)
	default:
		s.sendError(conn, req.ID, -32601, "Method not found", req.Method)
	}
}

func (s *Server) handleInitialize(conn net.Conn, req *JSONRPCRequest) {
	result := map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "cadbridge",
			"version": "1.0.0",
		},
	}
	s.sendResult(conn, req.ID, result)
}

func (s *Server) handleToolsList(conn net.Conn, req *JSONRPCRequest) {
	metas := ops.List()

	tools := make([]map[string]any, 0, len(metas))
	for i := range metas {
		tools = append(tools, map[string]any{
			"name":        metas[i].Name,
			"description": metas[i].Description,
			"inputSchema": convertInputSchema(metas[i].InputSchema),
		})
	}
	s.sendResult(conn, req.ID, map[string]any{"tools": tools})
}

// convertInputSchema converts an ops schema to MCP-compatible format.
func convertInputSchema(schema ops.InputSchema) map[string]any {
	result := map[string]any{"type": schema.Type}

	if len(schema.Properties) > 0 {
		props := make(map[string]any)
		for name, prop := range schema.Properties {
			props[name] = convertProperty(prop)
		}
		result["properties"] = props
	}
	if len(schema.Required) > 0 {
		result["required"] = schema.Required
	}
	return result
}

func convertProperty(prop ops.Property) map[string]any {
	result := map[string]any{"type": prop.Type}
	if prop.Description != "" {
		result["description"] = prop.Description
	}
	if len(prop.Enum) > 0 {
		result["enum"] = prop.Enum
	}
	return result
}

// handleToolsCall routes an operation through the bridge and maps the result.
func (s *Server) handleToolsCall(conn net.Conn, req *JSONRPCRequest) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(conn, req.ID, -32602, "Invalid params", err.Error())
		return
	}

	s.logger.Info("Tool call: %s", params.Name)

	// Unknown operations are rejected without touching the bridge.
	if !ops.Known(params.Name) {
		s.logger.Warn("Tool not found: %s", params.Name)
		s.sendError(conn, req.ID, -32602, "Tool not found", params.Name)
		return
	}

	call := proto.NewCall(params.Name, params.Arguments)
	res := s.bridge.Submit(call)

	if !res.OK() {
		switch res.Failure.Kind {
		case proto.FailBridgeTimeout, proto.FailShutdown:
			// The pump never produced a value; surface as a transport-level fault.
			s.sendError(conn, req.ID, -32000, res.Failure.Message, string(res.Failure.Kind))
		default:
			// Operation-level failures go back as tool results so callers see
			// the human-readable message.
			s.logger.Warn("Tool %s failed: %s", params.Name, res.Failure.Message)
			s.sendResult(conn, req.ID, map[string]any{
				"content": []map[string]any{
					{"type": "text", "text": fmt.Sprintf("Error: %s", res.Failure.Message)},
				},
				"isError": true,
			})
		}
		return
	}

	preview := res.Value
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	s.logger.Info("Tool %s succeeded: %s", params.Name, preview)

	content := res.Value
	if content == "" {
		content = "Operation executed successfully"
	}
	s.sendResult(conn, req.ID, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": content},
		},
	})
}

// JSON-RPC message types

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) sendResult(conn net.Conn, id, result any) {
	s.send(conn, &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(conn net.Conn, id any, code int, message, data string) {
	s.send(conn, &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message, Data: data},
	})
}

func (s *Server) send(conn net.Conn, response *JSONRPCResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("Failed to marshal response: %v", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Debug("Failed to write response: %v", err)
	}
}
