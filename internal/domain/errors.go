package domain

import "fmt"

// TrustError rejects an action the user's trust level does not cover.
type TrustError struct {
	Kind     ActionKind
	Required TrustLevel
	Actual   TrustLevel
}

func (e *TrustError) Error() string {
	return fmt.Sprintf("action %s requires %s trust level, but user has %s", e.Kind, e.Required, e.Actual)
}

// Codes carried by ActionError.
const (
	CodeActionNotAllowed = "ACTION_NOT_ALLOWED"
	CodeInvalidPayload   = "INVALID_PAYLOAD"
	CodeConflict         = "CONFLICT"
)

// ActionError rejects an action that is illegal in the current state or
// whose payload fails its shape or range check.
type ActionError struct {
	Code  string
	Kind  ActionKind
	State State
	Msg   string
}

func (e *ActionError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("action %s not allowed from %s", e.Kind, e.State)
}

// NotAllowed reports whether the action was refused for the session state.
func (e *ActionError) NotAllowed() bool {
	return e.Code == CodeActionNotAllowed
}

// NewNotAllowedError is returned when kind is outside state's allowed set.
func NewNotAllowedError(kind ActionKind, state State) *ActionError {
	return &ActionError{Code: CodeActionNotAllowed, Kind: kind, State: state}
}

// NewPayloadError is returned for a missing or out-of-range payload.
func NewPayloadError(kind ActionKind, format string, args ...any) *ActionError {
	return &ActionError{
		Code: CodeInvalidPayload,
		Kind: kind,
		Msg:  fmt.Sprintf("invalid %s payload: %s", kind, fmt.Sprintf(format, args...)),
	}
}

// NotFoundError is raised by callers when a referenced session or user
// does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError is returned by a store when the session changed after the
// snapshot being written was read. The attempt can be retried.
type ConflictError struct {
	ID      string
	Version int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("session %s was modified concurrently (version %d is stale)", e.ID, e.Version)
}
