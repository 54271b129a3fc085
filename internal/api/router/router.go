package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cbtulcan/inspection-platform/internal/agenda"
	"github.com/cbtulcan/inspection-platform/internal/booking"
	"github.com/cbtulcan/inspection-platform/internal/establishments"
	httpmiddleware "github.com/cbtulcan/inspection-platform/internal/http/middleware"
	"github.com/cbtulcan/inspection-platform/internal/notify"
	"github.com/cbtulcan/inspection-platform/internal/routing"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger                *logging.Logger
	AgendaHandler         *agenda.Handler
	TurnosHandler         *turnos.Handler
	BookingHandler        *booking.Handler
	EstablishmentsHandler *establishments.Handler
	NotifyHandler         *notify.Handler
	RoutingHandler        *routing.Handler
	MetricsHandler        http.Handler
	CORSAllowedOrigins    []string
	StaffAuthSecret       string

	// PublicRateLimit throttles the public reservation endpoint per IP.
	// Zero disables throttling.
	PublicRateLimit float64
	PublicRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (owner portal, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AgendaHandler != nil {
			public.Get("/agenda/zones/{zone}/slots", cfg.AgendaHandler.ListOpenSlots)
			public.Get("/agenda/availability", cfg.AgendaHandler.GetAvailabilityOn)
		}
		if cfg.BookingHandler != nil {
			reserve := public.With()
			if cfg.PublicRateLimit > 0 {
				reserve = public.With(httpmiddleware.RateLimit(cfg.PublicRateLimit, cfg.PublicRateBurst))
			}
			reserve.Post("/turnos", cfg.BookingHandler.Request)
		}
		if cfg.TurnosHandler != nil {
			public.Get("/turnos/{turnoID}", cfg.TurnosHandler.Get)
			public.Post("/turnos/{turnoID}/cancel", cfg.TurnosHandler.Cancel)
		}
		if cfg.EstablishmentsHandler != nil {
			public.Post("/establishments", cfg.EstablishmentsHandler.Create)
			public.Get("/establishments/{establishmentID}", cfg.EstablishmentsHandler.Get)
			public.Put("/establishments/{establishmentID}/location", cfg.EstablishmentsHandler.SetLocation)
		}
		if cfg.NotifyHandler != nil {
			public.Mount("/notifications", cfg.NotifyHandler.Routes())
		}
	})

	// Staff routes (protected by HMAC JWT)
	if cfg.StaffAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.StaffJWT(cfg.StaffAuthSecret))
			if cfg.AgendaHandler != nil {
				admin.Post("/agenda/generate", cfg.AgendaHandler.Generate)
				admin.Patch("/agenda/slots/{slotID}", cfg.AgendaHandler.Override)
				admin.Get("/agenda/slots/{slotID}/availability", cfg.AgendaHandler.GetAvailability)
			}
			admin.Route("/turnos", func(rt chi.Router) {
				if cfg.BookingHandler != nil {
					rt.Post("/walk-in", cfg.BookingHandler.WalkIn)
				}
				if cfg.TurnosHandler != nil {
					rt.Get("/stats", cfg.TurnosHandler.Stats)
					rt.Get("/{turnoID}", cfg.TurnosHandler.Get)
					rt.Post("/{turnoID}/confirm", cfg.TurnosHandler.Confirm)
					rt.Post("/{turnoID}/reject", cfg.TurnosHandler.Reject)
					rt.Post("/{turnoID}/visited", cfg.TurnosHandler.MarkVisited)
					rt.Post("/{turnoID}/close", cfg.TurnosHandler.Close)
					rt.Post("/{turnoID}/cancel", cfg.TurnosHandler.StaffCancel)
					rt.Post("/{turnoID}/force-cancel", cfg.TurnosHandler.ForceCancel)
					rt.Post("/{turnoID}/absent", cfg.TurnosHandler.MarkAbsent)
				}
			})
			if cfg.RoutingHandler != nil {
				admin.Mount("/routes", cfg.RoutingHandler.Routes())
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
