package client

import "encoding/json"

// Kind is the tri-state outcome classification of one API call.
type Kind int

const (
	// KindOK is a 2xx response; Data holds the payload.
	KindOK Kind = iota
	// KindNotOK is a non-2xx response with a parseable envelope; Message
	// holds the backend's explanation.
	KindNotOK
	// KindError is a transport failure; nothing usable came back.
	KindError
)

// Result is the normalized outcome every executor call collapses into.
// Failures are values; the only error the executor ever returns alongside
// is a configuration mistake.
type Result struct {
	Kind    Kind            `json:"kind"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	// AuthRequired marks the distinct not-ok variant raised when a 401
	// could not be recovered by a refresh. The session orchestrator has
	// already broadcast the sign-out by the time callers see this.
	AuthRequired bool `json:"auth_required,omitempty"`
	// StatusCode is the final HTTP status, 0 for transport failures.
	StatusCode int `json:"status_code,omitempty"`
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Kind == KindOK }

// Decode unmarshals Data into out.
func (r Result) Decode(out any) error {
	return json.Unmarshal(r.Data, out)
}

func okResult(status int, data json.RawMessage) Result {
	return Result{Kind: KindOK, StatusCode: status, Data: data}
}

func notOkResult(status int, message string, data json.RawMessage) Result {
	return Result{Kind: KindNotOK, StatusCode: status, Message: message, Data: data}
}

func errorResult(message string) Result {
	return Result{Kind: KindError, Message: message}
}
