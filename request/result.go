package request

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a failed upstream call.
type Kind int

const (
	// KindUnexpected covers transport, decoding and local failures.
	KindUnexpected Kind = iota
	// KindTimeout means a connect, read, write or pool budget ran out.
	KindTimeout
	// KindHTTPError means the upstream answered with a non-2xx status.
	KindHTTPError
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTPError:
		return "http_error"
	default:
		return "unexpected"
	}
}

// Phase names the part of a call that exceeded its budget.
type Phase string

// Timeout phases.
const (
	PhaseConnect Phase = "connect"
	PhaseRead    Phase = "read"
	PhaseWrite   Phase = "write"
	PhasePool    Phase = "pool"
	PhaseRequest Phase = "request"
)

// Failure describes why a call produced no payload.
type Failure struct {
	Kind       Kind
	Message    string
	StatusCode int   // set for KindHTTPError
	Phase      Phase // set for KindTimeout
}

// Error implements error. The format is "<kind>: <message>".
func (f *Failure) Error() string {
	return f.Kind.String() + ": " + f.Message
}

// Result is either Ok with a JSON payload or Failed with a Failure.
// The zero value is a failed Result with an unexpected kind.
type Result struct {
	payload json.RawMessage
	failure *Failure
}

// Ok returns a successful result carrying payload.
func Ok(payload json.RawMessage) Result {
	return Result{payload: payload}
}

// Failed returns a failed result.
func Failed(kind Kind, format string, args ...any) Result {
	return Result{failure: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// FailedWith returns a failed result wrapping f.
func FailedWith(f *Failure) Result {
	return Result{failure: f}
}

// IsOk reports whether the call succeeded.
func (r Result) IsOk() bool {
	return r.failure == nil && r.payload != nil
}

// Payload returns the raw JSON body of a successful call, or nil.
func (r Result) Payload() json.RawMessage {
	if !r.IsOk() {
		return nil
	}
	return r.payload
}

// Failure returns the failure of an unsuccessful call, or nil.
func (r Result) Failure() *Failure {
	if r.IsOk() {
		return nil
	}
	if r.failure == nil {
		return &Failure{Kind: KindUnexpected, Message: "empty result"}
	}
	return r.failure
}
