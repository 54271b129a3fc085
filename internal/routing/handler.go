package routing

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// Handler exposes itinerary planning to staff.
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

// Routes returns a chi router with routing routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{date}/{zone}/{shift}", h.PlanRoute)
	return r
}

// PlanRoute computes the itinerary for a day, zone and shift.
// GET /admin/routes/{date}/{zone}/{shift}
func (h *Handler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		http.Error(w, `{"error": "invalid date, expected YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	zone, err := geo.ParseZone(chi.URLParam(r, "zone"))
	if err != nil {
		http.Error(w, `{"error": "unknown zone"}`, http.StatusBadRequest)
		return
	}
	shift, err := turnos.ParseShift(chi.URLParam(r, "shift"))
	if err != nil {
		http.Error(w, `{"error": "invalid shift, expected MORNING or AFTERNOON"}`, http.StatusBadRequest)
		return
	}

	route, err := h.service.PlanRoute(r.Context(), date, zone, shift)
	if err != nil {
		h.logger.Error("route planning failed", "date", date.Format("2006-01-02"), "zone", zone, "shift", shift, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(route); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
