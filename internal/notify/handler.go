package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// Handler exposes the owner-facing notification inbox.
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

// Routes returns a chi router with notification routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{accountID}/unread", h.ListUnread)
	r.Post("/{accountID}/{notificationID}/read", h.MarkRead)
	return r
}

// ListUnread returns the newest unread notifications for an account.
// GET /notifications/{accountID}/unread?limit=20
func (h *Handler) ListUnread(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		http.Error(w, `{"error": "invalid account id"}`, http.StatusBadRequest)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	out, err := h.service.ListUnread(r.Context(), accountID, limit)
	if err != nil {
		h.logger.Error("unread listing failed", "account_id", accountID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"notifications": out}); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// MarkRead acknowledges a single notification.
// POST /notifications/{accountID}/{notificationID}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		http.Error(w, `{"error": "invalid account id"}`, http.StatusBadRequest)
		return
	}
	notificationID, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		http.Error(w, `{"error": "invalid notification id"}`, http.StatusBadRequest)
		return
	}

	if err := h.service.MarkRead(r.Context(), notificationID, accountID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			http.Error(w, `{"error": "notification not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("mark read failed", "notification_id", notificationID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
