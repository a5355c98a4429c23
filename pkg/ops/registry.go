// Package ops implements the operation executor: one handler per named
// operation, all invoked serially from the pump goroutine against the shared
// document state. Handlers register themselves in init() into a global
// registry that is sealed on first executor construction.
package ops

import (
	"fmt"
	"sort"
	"sync"

	"cadbridge/pkg/document"
)

// Handler runs one operation against the document state and returns a
// human-readable confirmation.
type Handler func(ex *Executor, args map[string]any) (string, error)

type descriptor struct {
	meta    Meta
	handler Handler
}

// immutableRegistry is the global, read-only operation registry.
type immutableRegistry struct {
	mu     sync.RWMutex
	sealed bool
	ops    map[string]descriptor
}

var globalRegistry = &immutableRegistry{
	ops: make(map[string]descriptor),
}

// Register adds an operation to the global registry.
// Panics if called after the registry is sealed.
func Register(name string, handler Handler, meta *Meta) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if globalRegistry.sealed {
		panic(fmt.Sprintf("operation registry sealed - cannot register '%s'", name))
	}
	globalRegistry.ops[name] = descriptor{meta: *meta, handler: handler}
}

// Seal prevents further registrations. Called automatically when the first
// Executor is created.
func Seal() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.sealed = true
}

// Known reports whether name is a registered operation.
func Known(name string) bool {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	_, ok := globalRegistry.ops[name]
	return ok
}

// List returns metadata for all registered operations, sorted by name.
func List() []Meta {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make([]Meta, 0, len(globalRegistry.ops))
	for _, desc := range globalRegistry.ops {
		result = append(result, desc.meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func handlerFor(name string) (Handler, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	desc, ok := globalRegistry.ops[name]
	if !ok {
		return nil, false
	}
	return desc.handler, true
}

// ensureDocumentForCreator returns the active document, creating the default
// one when absent. Creator operations repair the missing-document precondition
// instead of failing.
func ensureDocumentForCreator(ex *Executor) *document.Document {
	if doc := ex.state.Active(); doc != nil {
		return doc
	}
	ex.logger.Info("No document available, creating new document...")
	doc := document.New(defaultDocumentName)
	ex.state.SetActive(doc)
	return doc
}
