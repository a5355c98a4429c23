package ops

import (
	"cadbridge/pkg/document"
	"cadbridge/pkg/logx"
	"cadbridge/pkg/proto"
)

// Executor runs operations against the shared document state. It has no
// locking; the bridge's serial drain is the concurrency contract.
type Executor struct {
	state  *document.State
	logger *logx.Logger
}

// NewExecutor creates an executor over state and seals the registry.
func NewExecutor(state *document.State) *Executor {
	Seal()
	return &Executor{
		state:  state,
		logger: logx.NewLogger("ops"),
	}
}

// State returns the document state the executor mutates.
func (ex *Executor) State() *document.State {
	return ex.state
}

// Execute dispatches one call to its handler and converts every outcome into
// exactly one result.
func (ex *Executor) Execute(call *proto.Call) *proto.Result {
	handler, ok := handlerFor(call.Op)
	if !ok {
		return proto.Failed(call.ID, proto.FailUnknownOperation, "Unknown tool: %s", call.Op)
	}

	value, err := handler(ex, call.Args)
	if err != nil {
		ex.logger.Warn("%s failed: %v", call.Op, err)
		return proto.FailedWith(call.ID, err)
	}
	return proto.Success(call.ID, value)
}
