package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Action
	}{
		{"no payload", `{"type":"DELIVER_NOW"}`, DeliverNow{}},
		{"ignored payload", `{"type":"UNDO","value":3}`, Undo{}},
		{"buffer", `{"type":"SET_BUFFER","value":10}`, SetBuffer{Seconds: 10}},
		{"zone", `{"type":"SET_ZONE","value":"C"}`, SetZone{Zone: ZoneC}},
		{"add item", `{"type":"ADD_ITEM","value":2}`, AddItem{Count: 2}},
		{"extend", `{"type":"EXTEND_MIN","value":15}`, ExtendMin{Minutes: 15}},
		{"runner", `{"type":"REASSIGN_RUNNER","value":"user-1"}`, ReassignRunner{Runner: "user-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env ActionEnvelope
			require.NoError(t, json.Unmarshal([]byte(tt.body), &env))
			got, err := DecodeAction(env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeActionRejectsBadPayload(t *testing.T) {
	bodies := []string{
		`{"type":"SET_BUFFER"}`,
		`{"type":"SET_BUFFER","value":null}`,
		`{"type":"SET_BUFFER","value":"ten"}`,
		`{"type":"ADD_ITEM","value":1.5}`,
		`{"type":"SET_ZONE","value":4}`,
		`{"type":"REASSIGN_RUNNER"}`,
		`{"type":"TELEPORT"}`,
	}

	for _, body := range bodies {
		var env ActionEnvelope
		require.NoError(t, json.Unmarshal([]byte(body), &env))
		_, err := DecodeAction(env)

		var actionErr *ActionError
		require.ErrorAs(t, err, &actionErr, body)
		assert.Equal(t, CodeInvalidPayload, actionErr.Code, body)
	}
}

func TestEncodeActionRoundTrip(t *testing.T) {
	for _, a := range []Action{Close{}, SetZone{Zone: ZoneB}, ExtendMin{Minutes: 5}, ReassignRunner{Runner: "r"}} {
		got, err := DecodeAction(EncodeAction(a))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	assert.Equal(t, "SET_BUFFER(10)", EncodeAction(SetBuffer{Seconds: 10}).String())
	assert.Equal(t, "CLOSE", EncodeAction(Close{}).String())
}

func TestEncodeActionEscapesStrings(t *testing.T) {
	for _, runner := range []string{`say "hi"`, `back\slash`, "tab\tand\nnewline\x00", "Ünïcode ☕"} {
		env := EncodeAction(ReassignRunner{Runner: runner})
		assert.True(t, json.Valid(env.Value), runner)

		got, err := DecodeAction(env)
		require.NoError(t, err)
		assert.Equal(t, ReassignRunner{Runner: runner}, got)
	}
	assert.JSONEq(t, `-3`, string(EncodeAction(SetBuffer{Seconds: -3}).Value))
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, AddItem{Count: 2}, ParseAction(ActionEnvelope{Type: KindAddItem, Value: json.RawMessage(`2`)}))

	env := ActionEnvelope{Type: KindExtendMin, Value: json.RawMessage(`"x"`)}
	got := ParseAction(env)
	m, ok := got.(Malformed)
	require.True(t, ok)
	assert.Equal(t, KindExtendMin, m.Kind())
	assert.Equal(t, CodeInvalidPayload, m.Err.Code)
	assert.Equal(t, env, EncodeAction(got))
}

func TestRoleTrust(t *testing.T) {
	assert.Equal(t, TrustBasic, RoleStaff.TrustLevel())
	assert.Equal(t, TrustBasic, RoleRunner.TrustLevel())
	assert.Equal(t, TrustVerified, RoleSupervisor.TrustLevel())
	assert.Equal(t, TrustVerified, RoleManager.TrustLevel())
	assert.Equal(t, TrustAdmin, RoleOwner.TrustLevel())
	assert.Equal(t, TrustNone, Role("GUEST").TrustLevel())
}

func TestNewUser(t *testing.T) {
	u, err := NewUser("user-3", "Morgan Manager", RoleManager)
	require.NoError(t, err)
	assert.Equal(t, DisplayInfo{Name: "Morgan Manager", Role: RoleManager, TrustLevel: TrustVerified}, u.DisplayInfo())

	_, err = NewUser("user-9", "Ghost", "GUEST")
	assert.Error(t, err)
	_, err = NewUser("", "Ghost", RoleStaff)
	assert.Error(t, err)
}

func TestTrustLevelText(t *testing.T) {
	b, err := json.Marshal(DisplayInfo{Name: "a", Role: RoleOwner, TrustLevel: TrustAdmin})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a","role":"OWNER","trust_level":"ADMIN"}`, string(b))

	var lvl TrustLevel
	require.NoError(t, lvl.UnmarshalText([]byte("VERIFIED")))
	assert.Equal(t, TrustVerified, lvl)
	assert.Error(t, lvl.UnmarshalText([]byte("ROOT")))
}

func TestNewSession(t *testing.T) {
	now := time.Now()
	s, err := NewSession(NewSessionParams{Table: "T-5", CustomerLabel: "customer_683", Items: 1}, now)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StateReady, s.State)
	assert.Equal(t, ZoneA, s.Zone)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now, s.UpdatedAt)

	other, err := NewSession(NewSessionParams{Table: "T-5"}, now)
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, other.ID)

	_, err = NewSession(NewSessionParams{}, now)
	assert.Error(t, err)
	_, err = NewSession(NewSessionParams{Table: "T-1", Zone: "Q"}, now)
	assert.ErrorIs(t, err, ErrInvalidZone)
	_, err = NewSession(NewSessionParams{Table: "T-1", Items: -1}, now)
	assert.Error(t, err)
}

func TestSessionValidateTimestamps(t *testing.T) {
	now := time.Now()
	s, err := NewSession(NewSessionParams{Table: "T-2"}, now)
	require.NoError(t, err)

	s.UpdatedAt = now.Add(-time.Second)
	assert.Error(t, s.Validate())

	s.UpdatedAt = now
	s.State = "BURNT"
	assert.ErrorIs(t, s.Validate(), ErrInvalidState)
}

func TestRejectionCode(t *testing.T) {
	assert.Equal(t, CodeInsufficientTrust, RejectionCode(&TrustError{Kind: KindClose}))
	assert.Equal(t, CodeActionNotAllowed, RejectionCode(NewNotAllowedError(KindMarkOut, StateDelivered)))
	assert.Equal(t, CodeInvalidPayload, RejectionCode(NewPayloadError(KindAddItem, "x")))
	assert.Equal(t, CodeConflict, RejectionCode(&ConflictError{ID: "s"}))
	assert.Equal(t, "ACTION_ERROR", RejectionCode(errors.New("boom")))
}

func TestAuditEntryStates(t *testing.T) {
	before := Session{State: StateReady}
	after := Session{State: StateOut}

	accepted := AuditEntry{Before: before, After: &after}
	assert.Equal(t, StateReady, accepted.PreviousState())
	assert.Equal(t, StateOut, accepted.NewState())

	rejected := AuditEntry{Before: before}
	assert.Equal(t, StateReady, rejected.NewState())
}
