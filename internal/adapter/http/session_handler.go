package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

type SessionHandler struct {
	service   interfaces.SessionService
	publisher interfaces.MessagePublisher
	logger    logger.Logger
}

// NewSessionHandler builds the handler. publisher may be nil, in which case
// queued actions are refused.
func NewSessionHandler(service interfaces.SessionService, publisher interfaces.MessagePublisher, logger logger.Logger) *SessionHandler {
	return &SessionHandler{
		service:   service,
		publisher: publisher,
		logger:    logger,
	}
}

type CreateSessionRequest struct {
	Table         string      `json:"table"`
	CustomerLabel string      `json:"customer_label"`
	Position      string      `json:"position"`
	Items         int         `json:"items"`
	DurationMin   int         `json:"duration_min"`
	EtaMin        int         `json:"eta_min"`
	BufferSec     int         `json:"buffer_sec"`
	Zone          domain.Zone `json:"zone"`
}

type SeedRequest struct {
	Count int  `json:"count"`
	Reset bool `json:"reset"`
}

type ActionRequest struct {
	UserID string                `json:"user_id"`
	Action domain.ActionEnvelope `json:"action"`
}

type AllowedActionsResponse struct {
	SessionID string              `json:"session_id"`
	UserID    string              `json:"user_id"`
	Actions   []domain.ActionKind `json:"actions"`
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("session_list_failed", "Failed to list sessions", RequestID(r.Context()), nil, err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	session, err := h.service.Create(r.Context(), domain.NewSessionParams{
		Table:         strings.TrimSpace(req.Table),
		CustomerLabel: strings.TrimSpace(req.CustomerLabel),
		Position:      req.Position,
		Items:         req.Items,
		DurationMin:   req.DurationMin,
		EtaMin:        req.EtaMin,
		BufferSec:     req.BufferSec,
		Zone:          req.Zone,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) Seed(w http.ResponseWriter, r *http.Request) {
	req := SeedRequest{Count: 8}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
			return
		}
	}

	total, err := h.service.Seed(r.Context(), req.Count, req.Reset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"total": total})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Allowed(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "user_id is required")
		return
	}

	kinds, err := h.service.AllowedActions(r.Context(), sessionID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if kinds == nil {
		kinds = []domain.ActionKind{}
	}
	respondJSON(w, http.StatusOK, AllowedActionsResponse{SessionID: sessionID, UserID: userID, Actions: kinds})
}

// ApplyAction runs an action synchronously and returns the new snapshot.
func (h *SessionHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeActionRequest(w, r)
	if !ok {
		return
	}

	// Malformed payloads still go to the service, which checks trust first
	// and audits the attempt.
	session, err := h.service.Apply(r.Context(), interfaces.ApplyActionCommand{
		SessionID: chi.URLParam(r, "id"),
		UserID:    req.UserID,
		Action:    domain.ParseAction(req.Action),
		RequestID: RequestID(r.Context()),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// QueueAction hands the action to the dispatch worker and returns 202. The
// worker validates and audits it like a synchronous attempt.
func (h *SessionHandler) QueueAction(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		respondError(w, http.StatusServiceUnavailable, "QUEUE_DISABLED", "Action queue is not configured")
		return
	}

	req, ok := decodeActionRequest(w, r)
	if !ok {
		return
	}
	if req.Action.Type == "" {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "action.type is required")
		return
	}

	msg := interfaces.ActionCommandMessage{
		SessionID: chi.URLParam(r, "id"),
		UserID:    req.UserID,
		Action:    req.Action,
		RequestID: RequestID(r.Context()),
	}
	if err := h.publisher.PublishActionCommand(r.Context(), msg); err != nil {
		h.logger.Error("rabbitmq_publish_failed", "Failed to queue action", msg.RequestID, map[string]interface{}{
			"session_id": msg.SessionID,
		}, err)
		respondError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "Failed to queue action")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"request_id": msg.RequestID})
}

func decodeActionRequest(w http.ResponseWriter, r *http.Request) (ActionRequest, bool) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return req, false
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "user_id is required")
		return req, false
	}
	return req, true
}
