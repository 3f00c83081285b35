package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/belvedhair/booking-widget/internal/http/handlers"
	httpmiddleware "github.com/belvedhair/booking-widget/internal/http/middleware"
	"github.com/belvedhair/booking-widget/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Pages              *handlers.PageHandler
	Widget             *handlers.WidgetHandler
	Admin              *handlers.AdminHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Submission rate limiting (optional, requests per second + burst)
	SubmitRate  float64
	SubmitBurst int
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

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Server-rendered pages
	if cfg.Pages != nil {
		r.Get("/", cfg.Pages.Widget)
		r.Get("/admin", cfg.Pages.Admin)
		r.Get("/impressum", cfg.Pages.Impressum)
		r.Get("/datenschutz", cfg.Pages.Datenschutz)
	}

	// Booking wizard API
	r.Route("/api/widget", func(api chi.Router) {
		api.Post("/session", cfg.Widget.StartSession)
		api.Route("/session/{sessionID}", func(s chi.Router) {
			s.Get("/", cfg.Widget.GetSession)
			s.Post("/barber", cfg.Widget.SelectBarber)
			s.Post("/month/prev", cfg.Widget.PrevMonth)
			s.Post("/month/next", cfg.Widget.NextMonth)
			s.Post("/date", cfg.Widget.SelectDate)
			s.Post("/time", cfg.Widget.SelectTime)
			s.Post("/next", cfg.Widget.NextStep)
			s.Post("/back", cfg.Widget.BackStep)
			s.Post("/priority/toggle", cfg.Widget.TogglePriority)
			s.Post("/confirmation/dismiss", cfg.Widget.DismissConfirmation)
			s.Get("/confirmation.ics", cfg.Widget.DownloadICS)

			// Everything that reaches the booking backend is rate limited.
			s.Group(func(sub chi.Router) {
				if cfg.SubmitRate > 0 {
					sub.Use(httpmiddleware.RateLimit(cfg.SubmitRate, cfg.SubmitBurst))
				}
				sub.Post("/booking", cfg.Widget.SubmitBooking)
				sub.Post("/priority", cfg.Widget.SubmitPriority)
			})
		})
	})

	// Admin panel API
	r.Route("/api/admin", func(api chi.Router) {
		api.Get("/bookings", cfg.Admin.ListBookings)
		api.Post("/cancel", cfg.Admin.CancelBooking)
		api.Post("/time_off", cfg.Admin.AddTimeOff)
	})

	return r
}
