package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/agenda"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// Handler provides HTTP endpoints for creating reservations.
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

// ReservationRequest is the request body for a new reservation.
type ReservationRequest struct {
	EstablishmentID uuid.UUID `json:"establishment_id"`
	SlotID          uuid.UUID `json:"slot_id"`
	Shift           string    `json:"shift"`
	ContactPhone    string    `json:"contact_phone"`
	LocationRef     string    `json:"location_ref,omitempty"`
	Observations    string    `json:"observations,omitempty"`
	// InspectorID is only honored on the walk-in route.
	InspectorID uuid.UUID `json:"inspector_id,omitempty"`
}

func (req *ReservationRequest) draft() (Draft, error) {
	shift, err := turnos.ParseShift(req.Shift)
	if err != nil {
		return Draft{}, err
	}
	return Draft{
		EstablishmentID: req.EstablishmentID,
		SlotID:          req.SlotID,
		Shift:           shift,
		ContactPhone:    req.ContactPhone,
		LocationRef:     req.LocationRef,
		Observations:    req.Observations,
	}, nil
}

// Request creates an owner reservation pending staff review.
// POST /turnos
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	var req ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	draft, err := req.draft()
	if err != nil {
		http.Error(w, `{"error": "invalid shift, expected MORNING or AFTERNOON"}`, http.StatusBadRequest)
		return
	}
	if err := draft.Validate(); err != nil {
		http.Error(w, `{"error": "establishment, slot and contact phone are required"}`, http.StatusBadRequest)
		return
	}

	a, err := h.service.Request(r.Context(), draft)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, a)
}

// WalkIn registers a desk reservation, already confirmed.
// POST /admin/turnos/walk-in
func (h *Handler) WalkIn(w http.ResponseWriter, r *http.Request) {
	var req ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	draft, err := req.draft()
	if err != nil {
		http.Error(w, `{"error": "invalid shift, expected MORNING or AFTERNOON"}`, http.StatusBadRequest)
		return
	}
	if err := draft.Validate(); err != nil {
		http.Error(w, `{"error": "establishment, slot and contact phone are required"}`, http.StatusBadRequest)
		return
	}
	if req.InspectorID == uuid.Nil {
		http.Error(w, `{"error": "inspector_id required for walk-in"}`, http.StatusBadRequest)
		return
	}

	a, err := h.service.WalkIn(r.Context(), draft, req.InspectorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case IsCapacityExceeded(err):
		http.Error(w, `{"error": "selected shift is full"}`, http.StatusConflict)
	case errors.Is(err, ErrActiveAppointment):
		http.Error(w, `{"error": "establishment already has an active appointment"}`, http.StatusConflict)
	case errors.Is(err, ErrSlotClosed):
		http.Error(w, `{"error": "slot is not accepting reservations"}`, http.StatusUnprocessableEntity)
	case errors.Is(err, ErrSlotInPast):
		http.Error(w, `{"error": "slot date already passed"}`, http.StatusUnprocessableEntity)
	case errors.Is(err, agenda.ErrSlotNotFound):
		http.Error(w, `{"error": "slot not found"}`, http.StatusNotFound)
	default:
		h.logger.Error("reservation failed", "error", err)
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
