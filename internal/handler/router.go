package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Bookings  *BookingHandler
	Users     *UserHandler
	Payments  *PaymentHandler
	Dashboard *DashboardHandler
	Verifier  IdentityVerifier
}

// NewRouter builds the API router with the global middleware stack.
func NewRouter(h Handlers, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.Bookings.Create)
		r.Get("/", h.Bookings.List)
		r.Get("/{id}", h.Bookings.Get)
		r.Patch("/{id}", h.Bookings.Update)
		r.Delete("/{id}", h.Bookings.Delete)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.Users.Save)
		r.With(RequireBearer(h.Verifier)).Get("/", h.Users.List)
		r.Get("/{email}", h.Users.Get)
		r.Get("/{email}/role", h.Users.Role)
		r.Patch("/{email}", h.Users.UpdateProfile)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/checkout", h.Payments.Checkout)
		r.Post("/confirm", h.Payments.Confirm)
		r.Get("/confirm", h.Payments.ConfirmRedirect)
		r.Get("/", h.Payments.List)
	})

	r.Get("/dashboard/stats", h.Dashboard.Stats)

	return r
}
