package agenda

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// Handler provides HTTP endpoints for calendar administration.
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

// GenerateRequest is the request body for bulk slot generation.
type GenerateRequest struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Zones    []string `json:"zones"`
	Weekdays []int    `json:"weekdays"` // 0=Sunday ... 6=Saturday

	// Omitted capacities fall back to the configured defaults; an
	// explicit zero is honored.
	MorningCapacity   *int `json:"morning_capacity,omitempty"`
	AfternoonCapacity *int `json:"afternoon_capacity,omitempty"`
}

// Generate creates slots for a date range.
// POST /admin/agenda/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		http.Error(w, `{"error": "invalid from date, expected YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		http.Error(w, `{"error": "invalid to date, expected YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	params := GenerateParams{
		From:              from,
		To:                to,
		MorningCapacity:   req.MorningCapacity,
		AfternoonCapacity: req.AfternoonCapacity,
	}
	for _, z := range req.Zones {
		zone, err := geo.ParseZone(z)
		if err != nil {
			http.Error(w, `{"error": "unknown zone"}`, http.StatusBadRequest)
			return
		}
		params.Zones = append(params.Zones, zone)
	}
	for _, wd := range req.Weekdays {
		if wd < 0 || wd > 6 {
			http.Error(w, `{"error": "weekdays must be 0..6"}`, http.StatusBadRequest)
			return
		}
		params.Weekdays = append(params.Weekdays, time.Weekday(wd))
	}

	created, err := h.service.Generate(r.Context(), params)
	if err != nil {
		if errors.Is(err, ErrStartDateInPast) {
			http.Error(w, `{"error": "range starts in the past"}`, http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("slot generation failed", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, map[string]int{"created": created})
}

// OverrideRequest is the request body for a single-slot override.
type OverrideRequest struct {
	MorningCapacity   int  `json:"morning_capacity"`
	AfternoonCapacity int  `json:"afternoon_capacity"`
	Enabled           bool `json:"enabled"`
}

// Override adjusts one slot's capacities or disables it.
// PATCH /admin/agenda/slots/{slotID}
func (h *Handler) Override(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		http.Error(w, `{"error": "invalid slot id"}`, http.StatusBadRequest)
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	slot, err := h.service.Override(r.Context(), id, req.MorningCapacity, req.AfternoonCapacity, req.Enabled)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			http.Error(w, `{"error": "slot not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("slot override failed", "slot_id", id, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, slot)
}

// GetAvailability reports live per-shift occupancy for one slot.
// GET /admin/agenda/slots/{slotID}/availability
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		http.Error(w, `{"error": "invalid slot id"}`, http.StatusBadRequest)
		return
	}

	av, err := h.service.GetAvailability(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			http.Error(w, `{"error": "slot not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("availability lookup failed", "slot_id", id, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, av)
}

// GetAvailabilityOn reports live occupancy for the slot of a date and zone.
// GET /agenda/availability?date=YYYY-MM-DD&zone=ZONE
func (h *Handler) GetAvailabilityOn(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, `{"error": "invalid date, expected YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	zone, err := geo.ParseZone(r.URL.Query().Get("zone"))
	if err != nil {
		http.Error(w, `{"error": "unknown zone"}`, http.StatusBadRequest)
		return
	}

	av, err := h.service.GetAvailabilityOn(r.Context(), date, zone)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			http.Error(w, `{"error": "no slot for that date and zone"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("availability lookup failed", "zone", zone, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, av)
}

// ListOpenSlots lists upcoming enabled slots for a zone with occupancy.
// GET /agenda/zones/{zone}/slots
func (h *Handler) ListOpenSlots(w http.ResponseWriter, r *http.Request) {
	zone, err := geo.ParseZone(chi.URLParam(r, "zone"))
	if err != nil {
		http.Error(w, `{"error": "unknown zone"}`, http.StatusBadRequest)
		return
	}

	out, err := h.service.ListOpenSlots(r.Context(), zone)
	if err != nil {
		h.logger.Error("open slot listing failed", "zone", zone, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{"zone": zone, "slots": out})
}

func writeJSON(w http.ResponseWriter, logger *logging.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
