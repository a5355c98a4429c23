// Package proto defines the call/result pair exchanged between the RPC
// listener and the GUI-thread executor, together with the failure vocabulary
// shared across the system.
package proto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FailureKind classifies why an operation did not produce a value.
type FailureKind string

const (
	// FailNoDocument means the operation requires an active document and none exists.
	FailNoDocument FailureKind = "NO_DOCUMENT"
	// FailObjectNotFound means a named object is absent from the active document.
	FailObjectNotFound FailureKind = "OBJECT_NOT_FOUND"
	// FailUnknownOperation means the operation name is not in the supported set.
	FailUnknownOperation FailureKind = "UNKNOWN_OPERATION"
	// FailUnsupportedOperation means the operation is recognized but intentionally unimplemented.
	FailUnsupportedOperation FailureKind = "UNSUPPORTED_OPERATION"
	// FailInvalidArgument means a required argument is missing or has the wrong shape.
	FailInvalidArgument FailureKind = "INVALID_ARGUMENT"
	// FailBridgeTimeout means no result arrived within the submission timeout.
	FailBridgeTimeout FailureKind = "BRIDGE_TIMEOUT"
	// FailShutdown means the bridge was closed while the call was in flight.
	FailShutdown FailureKind = "SHUTDOWN"
	// FailTransport means a listener-level I/O problem.
	FailTransport FailureKind = "TRANSPORT_FAILURE"
	// FailInternal covers executor faults that fit no other kind.
	FailInternal FailureKind = "INTERNAL"
)

// String returns the string representation of FailureKind.
func (k FailureKind) String() string {
	return string(k)
}

// ValidateFailureKind validates if a string is a valid failure kind.
func ValidateFailureKind(kind string) (FailureKind, bool) {
	switch FailureKind(strings.ToUpper(kind)) {
	case FailNoDocument, FailObjectNotFound, FailUnknownOperation, FailUnsupportedOperation,
		FailInvalidArgument, FailBridgeTimeout, FailShutdown, FailTransport, FailInternal:
		return FailureKind(strings.ToUpper(kind)), true
	default:
		return "", false
	}
}

// Call is a single pending operation. It is immutable once created and owned
// by the bridge from enqueue until its result is consumed by the submitter.
type Call struct {
	ID        string         `json:"id"`
	Op        string         `json:"op"`
	Args      map[string]any `json:"args,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewCall creates a call with a fresh unique ID.
func NewCall(op string, args map[string]any) *Call {
	return &Call{
		ID:        uuid.NewString(),
		Op:        op,
		Args:      args,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the structural invariants of a call.
func (c *Call) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("call ID is required")
	}
	if c.Op == "" {
		return fmt.Errorf("operation name is required")
	}
	if c.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	return nil
}

// Failure describes an unsuccessful outcome. It implements error so operation
// handlers can return it directly.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return f.Message
}

// FailErrorf builds a Failure as an error value with a formatted message.
func FailErrorf(kind FailureKind, format string, args ...any) error {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from an error, defaulting to FailInternal
// for errors that carry no kind.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailInternal
}

// Result is the single outcome of a call. Exactly one Result exists per Call
// regardless of executor outcome.
type Result struct {
	CallID  string   `json:"call_id"`
	Value   string   `json:"value,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// Success creates a successful result carrying a human-readable value.
func Success(callID, value string) *Result {
	return &Result{CallID: callID, Value: value}
}

// Failed creates a failure result of the given kind.
func Failed(callID string, kind FailureKind, format string, args ...any) *Result {
	return &Result{
		CallID:  callID,
		Failure: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)},
	}
}

// FailedWith creates a failure result from an error, preserving its kind when
// it carries one.
func FailedWith(callID string, err error) *Result {
	var f *Failure
	if errors.As(err, &f) {
		return &Result{CallID: callID, Failure: f}
	}
	return Failed(callID, FailInternal, "%s", err.Error())
}

// OK reports whether the result carries a value rather than a failure.
func (r *Result) OK() bool {
	return r.Failure == nil
}
