package establishments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// Handler provides HTTP endpoints for the establishment registry.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// CreateRequest is the request body for registering an establishment.
type CreateRequest struct {
	OwnerAccountID uuid.UUID `json:"owner_account_id"`
	OwnerName      string    `json:"owner_name"`
	OwnerEmail     string    `json:"owner_email"`
	LegalName      string    `json:"legal_name"`
	TradeName      string    `json:"trade_name"`
	Address        string    `json:"address"`
	Zone           string    `json:"zone"`
	ContactPhone   string    `json:"contact_phone"`
}

// Create registers a new establishment.
// POST /establishments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if req.OwnerAccountID == uuid.Nil || strings.TrimSpace(req.LegalName) == "" || strings.TrimSpace(req.Address) == "" {
		http.Error(w, `{"error": "owner_account_id, legal_name and address are required"}`, http.StatusBadRequest)
		return
	}
	zone, err := geo.ParseZone(req.Zone)
	if err != nil {
		http.Error(w, `{"error": "unknown zone"}`, http.StatusBadRequest)
		return
	}

	e := &Establishment{
		OwnerAccountID: req.OwnerAccountID,
		OwnerName:      req.OwnerName,
		OwnerEmail:     req.OwnerEmail,
		LegalName:      req.LegalName,
		TradeName:      req.TradeName,
		Address:        req.Address,
		Zone:           zone,
		ContactPhone:   req.ContactPhone,
	}
	if err := h.repo.Create(r.Context(), e); err != nil {
		h.logger.Error("establishment registration failed", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, e)
}

// Get fetches one establishment.
// GET /establishments/{establishmentID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "establishmentID"))
	if err != nil {
		http.Error(w, `{"error": "invalid establishment id"}`, http.StatusBadRequest)
		return
	}
	e, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrEstablishmentNotFound) {
			http.Error(w, `{"error": "establishment not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("establishment lookup failed", "establishment_id", id, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, e)
}

// SetLocationRequest pins the establishment on the map.
type SetLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SetLocation records the verified coordinates used for route planning.
// PUT /establishments/{establishmentID}/location
func (h *Handler) SetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "establishmentID"))
	if err != nil {
		http.Error(w, `{"error": "invalid establishment id"}`, http.StatusBadRequest)
		return
	}
	var req SetLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		http.Error(w, `{"error": "coordinates out of range"}`, http.StatusBadRequest)
		return
	}

	point := geo.Point{Latitude: req.Latitude, Longitude: req.Longitude}
	if err := h.repo.SetLocation(r.Context(), id, point); err != nil {
		if errors.Is(err, ErrEstablishmentNotFound) {
			http.Error(w, `{"error": "establishment not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("location update failed", "establishment_id", id, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
