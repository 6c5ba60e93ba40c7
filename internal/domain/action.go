package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Action is a requested transition. Each kind is its own type, so the
// payload shape follows from the kind and needs no narrowing at call sites.
type Action interface {
	Kind() ActionKind
	isAction()
}

type (
	DeliverNow    struct{}
	MarkOut       struct{}
	MarkDelivered struct{}
	StartActive   struct{}
	Close         struct{}
	Cancel        struct{}
	Undo          struct{}

	SetBuffer struct {
		Seconds int
	}
	SetZone struct {
		Zone Zone
	}
	AddItem struct {
		Count int
	}
	ExtendMin struct {
		Minutes int
	}
	ReassignRunner struct {
		Runner string
	}
)

func (DeliverNow) Kind() ActionKind     { return KindDeliverNow }
func (MarkOut) Kind() ActionKind        { return KindMarkOut }
func (MarkDelivered) Kind() ActionKind  { return KindMarkDelivered }
func (StartActive) Kind() ActionKind    { return KindStartActive }
func (Close) Kind() ActionKind          { return KindClose }
func (Cancel) Kind() ActionKind         { return KindCancel }
func (Undo) Kind() ActionKind           { return KindUndo }
func (SetBuffer) Kind() ActionKind      { return KindSetBuffer }
func (SetZone) Kind() ActionKind        { return KindSetZone }
func (AddItem) Kind() ActionKind        { return KindAddItem }
func (ExtendMin) Kind() ActionKind      { return KindExtendMin }
func (ReassignRunner) Kind() ActionKind { return KindReassignRunner }

func (DeliverNow) isAction()     {}
func (MarkOut) isAction()        {}
func (MarkDelivered) isAction()  {}
func (StartActive) isAction()    {}
func (Close) isAction()          {}
func (Cancel) isAction()         {}
func (Undo) isAction()           {}
func (SetBuffer) isAction()      {}
func (SetZone) isAction()        {}
func (AddItem) isAction()        {}
func (ExtendMin) isAction()      {}
func (ReassignRunner) isAction() {}

// Malformed is an attempt whose envelope could not be decoded. It still
// goes through the engine so the trust check runs first and the attempt is
// audited; the engine then rejects it with Err.
type Malformed struct {
	Envelope ActionEnvelope
	Err      *ActionError
}

func (m Malformed) Kind() ActionKind { return m.Envelope.Type }
func (Malformed) isAction()          {}

// ParseAction is DecodeAction for callers that hand every attempt to the
// engine: decode failures come back as a Malformed action instead of an
// error.
func ParseAction(env ActionEnvelope) Action {
	a, err := DecodeAction(env)
	if err != nil {
		actionErr, ok := err.(*ActionError)
		if !ok {
			actionErr = NewPayloadError(env.Type, "%v", err)
		}
		return Malformed{Envelope: env, Err: actionErr}
	}
	return a
}

// ActionEnvelope is the transport form of an action: {"type": ..., "value": ...}.
type ActionEnvelope struct {
	Type  ActionKind      `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// DecodeAction builds an Action from its envelope. A kind that needs a
// payload and lacks one, or carries one of the wrong JSON type, is rejected
// with an INVALID_PAYLOAD ActionError.
func DecodeAction(env ActionEnvelope) (Action, error) {
	switch env.Type {
	case KindDeliverNow:
		return DeliverNow{}, nil
	case KindMarkOut:
		return MarkOut{}, nil
	case KindMarkDelivered:
		return MarkDelivered{}, nil
	case KindStartActive:
		return StartActive{}, nil
	case KindClose:
		return Close{}, nil
	case KindCancel:
		return Cancel{}, nil
	case KindUndo:
		return Undo{}, nil
	case KindSetBuffer:
		n, err := decodeInt(env)
		if err != nil {
			return nil, err
		}
		return SetBuffer{Seconds: n}, nil
	case KindAddItem:
		n, err := decodeInt(env)
		if err != nil {
			return nil, err
		}
		return AddItem{Count: n}, nil
	case KindExtendMin:
		n, err := decodeInt(env)
		if err != nil {
			return nil, err
		}
		return ExtendMin{Minutes: n}, nil
	case KindSetZone:
		s, err := decodeString(env)
		if err != nil {
			return nil, err
		}
		return SetZone{Zone: Zone(s)}, nil
	case KindReassignRunner:
		s, err := decodeString(env)
		if err != nil {
			return nil, err
		}
		return ReassignRunner{Runner: s}, nil
	}
	return nil, &ActionError{
		Code: CodeInvalidPayload,
		Kind: env.Type,
		Msg:  fmt.Sprintf("unknown action type %q", env.Type),
	}
}

// EncodeAction is the inverse of DecodeAction.
func EncodeAction(a Action) ActionEnvelope {
	env := ActionEnvelope{Type: a.Kind()}
	switch act := a.(type) {
	case SetBuffer:
		env.Value = strconv.AppendInt(nil, int64(act.Seconds), 10)
	case AddItem:
		env.Value = strconv.AppendInt(nil, int64(act.Count), 10)
	case ExtendMin:
		env.Value = strconv.AppendInt(nil, int64(act.Minutes), 10)
	case SetZone:
		env.Value = appendJSONString(nil, string(act.Zone))
	case ReassignRunner:
		env.Value = appendJSONString(nil, act.Runner)
	case Malformed:
		return act.Envelope
	}
	return env
}

const hexDigits = "0123456789abcdef"

// appendJSONString writes s as a JSON string literal. Invalid UTF-8 is
// replaced with U+FFFD the way encoding/json does.
func appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			dst = append(dst, '\\', byte(r))
		case r < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[r>>4], hexDigits[r&0xf])
		default:
			dst = utf8.AppendRune(dst, r)
		}
	}
	return append(dst, '"')
}

func decodeInt(env ActionEnvelope) (int, error) {
	if isMissing(env.Value) {
		return 0, NewPayloadError(env.Type, "numeric value is required")
	}
	var n int
	if err := json.Unmarshal(env.Value, &n); err != nil {
		return 0, NewPayloadError(env.Type, "value must be an integer")
	}
	return n, nil
}

func decodeString(env ActionEnvelope) (string, error) {
	if isMissing(env.Value) {
		return "", NewPayloadError(env.Type, "string value is required")
	}
	var s string
	if err := json.Unmarshal(env.Value, &s); err != nil {
		return "", NewPayloadError(env.Type, "value must be a string")
	}
	return s, nil
}

func isMissing(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (env ActionEnvelope) String() string {
	if len(env.Value) == 0 {
		return string(env.Type)
	}
	return fmt.Sprintf("%s(%s)", env.Type, env.Value)
}
