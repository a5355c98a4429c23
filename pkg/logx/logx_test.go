package logx

import "testing"

func TestDomainFiltering(t *testing.T) {
	// Save and restore global state.
	debugMutex.Lock()
	saved := *debugConfig
	debugMutex.Unlock()
	defer func() {
		debugMutex.Lock()
		*debugConfig = saved
		debugMutex.Unlock()
	}()

	SetDebugConfig(false, nil)
	if IsDebugEnabledForDomain("bridge") {
		t.Error("Expected debug disabled by default")
	}

	SetDebugConfig(true, nil)
	if !IsDebugEnabledForDomain("bridge") {
		t.Error("Expected all domains enabled when no filter is set")
	}

	SetDebugConfig(true, []string{"bridge", "rpc"})
	if !IsDebugEnabledForDomain("bridge") {
		t.Error("Expected bridge domain enabled")
	}
	if IsDebugEnabledForDomain("ops") {
		t.Error("Expected ops domain disabled by filter")
	}
}

func TestLoggerName(t *testing.T) {
	logger := NewLogger("rpc-server")
	if logger.Name() != "rpc-server" {
		t.Errorf("Name() = %q, want %q", logger.Name(), "rpc-server")
	}
}
