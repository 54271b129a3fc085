package turnos

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// Handler provides HTTP endpoints for appointment lifecycle management.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.turnoID(w, r)
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

// Stats tallies appointments per state for the dashboard.
// GET /admin/turnos/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.StatsByState(r.Context())
	if err != nil {
		h.logger.Error("stats query failed", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, counts)
}

// ConfirmRequest assigns the inspector who will perform the visit.
type ConfirmRequest struct {
	InspectorID uuid.UUID `json:"inspector_id"`
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.turnoID(w, r)
	if !ok {
		return
	}
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	a, err := h.service.Confirm(r.Context(), id, req.InspectorID)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.turnoID(w, r)
	if !ok {
		return
	}
	a, err := h.service.Reject(r.Context(), id)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) MarkVisited(w http.ResponseWriter, r *http.Request) {
	id, ok := h.turnoID(w, r)
	if !ok {
		return
	}
	a, err := h.service.MarkVisited(r.Context(), id)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

// CloseRequest carries the physical form number filed for the inspection.
type CloseRequest struct {
	FormNumber string `json:"form_number"`
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := h.turnoID(w, r)
	if !ok {
		return
	}
	var req CloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	a, err := h.service.CloseWithForm(r.Context(), id, req.FormNumber)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

// CancelRequest is an owner-initiated cancellation.
type CancelRequest struct {
	Reason         string    `json:"reason"`
	ActorAccountID uuid.UUID `json:"actor_account_id"`
}

// Cancel handles the public portal cancellation. The ownership check is
// always enforced; staff cancel through the authenticated route instead.
// POST /turnos/{turnoID}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.turnoID(w, r)
	if !ok {
		return
	}
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	a, err := h.service.Cancel(r.Context(), id, req.Reason, req.ActorAccountID, false)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

// StaffCancel cancels on an owner's behalf, skipping the ownership check.
// Only mounted behind staff authentication; the usual date guard still
// applies, unlike ForceCancel.
// POST /admin/turnos/{turnoID}/cancel
func (h *Handler) StaffCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.turnoID(w, r)
	if !ok {
		return
	}
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	a, err := h.service.Cancel(r.Context(), id, req.Reason, uuid.Nil, true)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

// ForceCancelRequest is the staff override with its mandatory reason.
type ForceCancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) ForceCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.turnoID(w, r)
	if !ok {
		return
	}
	var req ForceCancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	a, err := h.service.ForceCancel(r.Context(), id, req.Reason)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) MarkAbsent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.turnoID(w, r)
	if !ok {
		return
	}
	a, err := h.service.MarkAbsent(r.Context(), id)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) turnoID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "turnoID"))
	if err != nil {
		http.Error(w, `{"error": "invalid appointment id"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		http.Error(w, `{"error": "appointment not found"}`, http.StatusNotFound)
	case errors.Is(err, ErrNotOwner):
		http.Error(w, `{"error": "not the owner of this appointment"}`, http.StatusForbidden)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, `{"error": "transition not allowed from current state"}`, http.StatusUnprocessableEntity)
	case errors.Is(err, ErrPastDate):
		http.Error(w, `{"error": "transition not allowed on this date"}`, http.StatusUnprocessableEntity)
	default:
		h.logger.Error("appointment operation failed", "appointment_id", id, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
