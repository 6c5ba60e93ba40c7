package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/adapter/memory"
	"github.com/YelzhanWeb/hookah/internal/app/session"
	"github.com/YelzhanWeb/hookah/internal/app/tracking"
	"github.com/YelzhanWeb/hookah/internal/audit"
	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/lifecycle"
)

func newTestServer(t *testing.T, rateLimit int) (*httptest.Server, *audit.Log) {
	t.Helper()

	sessions := memory.NewSessionRepository()
	staff := memory.NewStaffRepository(memory.DemoStaff()...)
	log := audit.NewLog(audit.DefaultCapacity)
	recorder := audit.NewRecorder(logger.Nop(), log)

	svc := session.NewService(sessions, staff, lifecycle.NewEngine(), recorder, nil, logger.Nop())
	track := tracking.NewService(sessions, staff, log, nil, logger.Nop())

	router := NewRouter(RouterConfig{
		Sessions:  NewSessionHandler(svc, nil, logger.Nop()),
		Tracking:  NewTrackingHandler(track, log, logger.Nop()),
		Logger:    logger.Nop(),
		RateLimit: rateLimit,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, log
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createSession(t *testing.T, srv *httptest.Server) domain.Session {
	t.Helper()
	var s domain.Session
	resp := do(t, srv, http.MethodPost, "/sessions", CreateSessionRequest{
		Table: "T-4", CustomerLabel: "customer_412", Items: 1, EtaMin: 3, BufferSec: 10, Zone: domain.ZoneC,
	}, &s)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return s
}

func action(userID string, a domain.Action) ActionRequest {
	return ActionRequest{UserID: userID, Action: domain.EncodeAction(a)}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t, 0)
	s := createSession(t, srv)
	assert.Equal(t, domain.StateReady, s.State)

	var got domain.Session
	resp := do(t, srv, http.MethodGet, "/sessions/"+s.ID, nil, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, s.ID, got.ID)

	var next domain.Session
	resp = do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/actions", action("user-1", domain.DeliverNow{}), &next)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StateOut, next.State)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var status map[string]interface{}
	resp = do(t, srv, http.MethodGet, "/sessions/"+s.ID+"/status", nil, &status)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OUT", status["current_state"])
	assert.NotNil(t, status["estimated_arrival"])

	var history []domain.AuditEntry
	resp = do(t, srv, http.MethodGet, "/sessions/"+s.ID+"/history", nil, &history)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OutcomeAccepted, history[0].Outcome)

	var list []domain.Session
	resp = do(t, srv, http.MethodGet, "/sessions", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list, 1)
}

func TestActionErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t, 0)
	s := createSession(t, srv)
	path := "/sessions/" + s.ID + "/actions"

	tests := []struct {
		name string
		body any
		path string
		want int
		code string
	}{
		{"insufficient trust", action("user-1", domain.Cancel{}), path, http.StatusForbidden, domain.CodeInsufficientTrust},
		{"wrong state", action("user-4", domain.StartActive{}), path, http.StatusConflict, domain.CodeActionNotAllowed},
		{"bad payload", ActionRequest{UserID: "user-1", Action: domain.ActionEnvelope{Type: domain.KindSetBuffer, Value: json.RawMessage(`"ten"`)}}, path, http.StatusUnprocessableEntity, domain.CodeInvalidPayload},
		{"negative buffer", action("user-1", domain.SetBuffer{Seconds: -5}), path, http.StatusUnprocessableEntity, domain.CodeInvalidPayload},
		{"unknown session", action("user-1", domain.MarkOut{}), "/sessions/missing/actions", http.StatusNotFound, "NOT_FOUND"},
		{"unknown user", action("user-42", domain.MarkOut{}), path, http.StatusNotFound, "NOT_FOUND"},
		{"missing user", ActionRequest{Action: domain.EncodeAction(domain.MarkOut{})}, path, http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp ErrorResponse
			resp := do(t, srv, http.MethodPost, tt.path, tt.body, &errResp)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.code, errResp.Code)
		})
	}

	var got domain.Session
	do(t, srv, http.MethodGet, "/sessions/"+s.ID, nil, &got)
	assert.Equal(t, domain.StateReady, got.State)
}

func TestMalformedPayloadIsTrustCheckedAndAudited(t *testing.T) {
	srv, log := newTestServer(t, 0)
	s := createSession(t, srv)
	path := "/sessions/" + s.ID + "/actions"
	extend := func(userID, value string) ActionRequest {
		return ActionRequest{UserID: userID, Action: domain.ActionEnvelope{Type: domain.KindExtendMin, Value: json.RawMessage(value)}}
	}

	// EXTEND_MIN needs VERIFIED; a bad value must not change that answer.
	for _, value := range []string{`"x"`, `-1`} {
		var errResp ErrorResponse
		resp := do(t, srv, http.MethodPost, path, extend("user-1", value), &errResp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, value)
		assert.Equal(t, domain.CodeInsufficientTrust, errResp.Code, value)
	}

	var errResp ErrorResponse
	resp := do(t, srv, http.MethodPost, path, ActionRequest{UserID: "user-1", Action: domain.ActionEnvelope{Type: "TELEPORT"}}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, domain.CodeInvalidPayload, errResp.Code)

	entries := log.SessionHistory(s.ID)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.ActionKind("TELEPORT"), entries[0].Action.Type)
	assert.Equal(t, json.RawMessage(`"x"`), entries[2].Action.Value)
	assert.Len(t, log.TrustViolations(), 2)
}

func TestAllowedActionsOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t, 0)
	s := createSession(t, srv)

	var resp AllowedActionsResponse
	r := do(t, srv, http.MethodGet, "/sessions/"+s.ID+"/allowed?user_id=user-4", nil, &resp)
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Contains(t, resp.Actions, domain.KindCancel)

	r = do(t, srv, http.MethodGet, "/sessions/"+s.ID+"/allowed", nil, nil)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestAuditEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, 0)
	s := createSession(t, srv)
	do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/actions", action("user-1", domain.Cancel{}), nil)
	do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/actions", action("user-1", domain.MarkOut{}), nil)

	var all []domain.AuditEntry
	do(t, srv, http.MethodGet, "/audit", nil, &all)
	require.Len(t, all, 2)
	assert.Equal(t, domain.KindMarkOut, all[0].Action.Type)

	var violations []domain.AuditEntry
	do(t, srv, http.MethodGet, "/audit?violations=true", nil, &violations)
	require.Len(t, violations, 1)
	assert.True(t, violations[0].TrustViolation)

	var accepted []domain.AuditEntry
	do(t, srv, http.MethodGet, "/audit?outcome=accepted&trust_level=BASIC", nil, &accepted)
	assert.Len(t, accepted, 1)

	var limited []domain.AuditEntry
	do(t, srv, http.MethodGet, "/audit?limit=1", nil, &limited)
	assert.Len(t, limited, 1)

	resp := do(t, srv, http.MethodGet, "/audit?trust_level=ROOT", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var exported []domain.AuditEntry
	resp = do(t, srv, http.MethodGet, "/audit/export", nil, &exported)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "audit-log.json")
	require.Len(t, exported, 2)
	assert.Equal(t, domain.KindCancel, exported[0].Action.Type)
}

func TestStaffEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	var staff []map[string]interface{}
	resp := do(t, srv, http.MethodGet, "/staff", nil, &staff)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, staff, 4)

	var info domain.DisplayInfo
	resp = do(t, srv, http.MethodGet, "/staff/user-4", nil, &info)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.TrustAdmin, info.TrustLevel)

	resp = do(t, srv, http.MethodGet, "/staff/user-9", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSeedAndQueue(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	var out map[string]int
	resp := do(t, srv, http.MethodPost, "/sessions/seed", SeedRequest{Count: 5, Reset: true}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, out["total"])

	resp = do(t, srv, http.MethodPost, "/sessions/seed", SeedRequest{Count: 1000}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/sessions/x/actions/queue", action("user-1", domain.MarkOut{}), nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	resp := do(t, srv, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		resp := do(t, srv, http.MethodPost, "/sessions", CreateSessionRequest{Table: "T-1"}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp := do(t, srv, http.MethodPost, "/sessions/seed", SeedRequest{Count: 1}, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/sessions", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
