package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/audit"
	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	log     *audit.Log
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, log *audit.Log, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		log:     log,
		logger:  logger,
	}
}

func (h *TrackingHandler) Status(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetSessionStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := map[string]interface{}{
		"session_id":        result.SessionID,
		"table":             result.Table,
		"current_state":     result.CurrentState,
		"updated_at":        result.UpdatedAt,
		"estimated_arrival": result.EstimatedArrival,
		"runner":            result.Runner,
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetSessionHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (h *TrackingHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListStaff(r.Context())
	if err != nil {
		h.logger.Error("staff_list_failed", "Failed to list staff", RequestID(r.Context()), nil, err)
		respondServiceError(w, err)
		return
	}

	resp := make([]map[string]interface{}, len(users))
	for i, u := range users {
		resp[i] = map[string]interface{}{
			"id":          u.ID,
			"name":        u.Name,
			"role":        u.Role,
			"trust_level": u.TrustLevel(),
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) GetStaff(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetStaff(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// Audit lists recent entries, newest first. Query parameters: user_id,
// session_id, action, trust_level, outcome, since, until (RFC 3339),
// violations=true and limit.
func (h *TrackingHandler) Audit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := audit.Filter{
		UserID:     q.Get("user_id"),
		SessionID:  q.Get("session_id"),
		ActionKind: domain.ActionKind(q.Get("action")),
		Outcome:    domain.Outcome(q.Get("outcome")),
	}
	if v := q.Get("trust_level"); v != "" {
		lvl, err := domain.ParseTrustLevel(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
		filter.TrustLevel = &lvl
	}
	for key, dst := range map[string]*time.Time{"since": &filter.Since, "until": &filter.Until} {
		if v := q.Get(key); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "BAD_REQUEST", key+" must be an RFC 3339 timestamp")
				return
			}
			*dst = t
		}
	}

	var entries []domain.AuditEntry
	if q.Get("violations") == "true" {
		entries = h.log.TrustViolations()
	} else {
		entries = h.log.Entries(filter)
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be a non-negative integer")
			return
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *TrackingHandler) Export(w http.ResponseWriter, r *http.Request) {
	body, err := h.log.Export()
	if err != nil {
		h.logger.Error("audit_export_failed", "Failed to export audit log", RequestID(r.Context()), nil, err)
		respondError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-log.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
