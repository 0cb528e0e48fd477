package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ceylonix/internal/siteservice"
)

// Deps configures NewRouter.
type Deps struct {
	Services *siteservice.Services
	// Events, if non-nil, is mounted at GET /events inside the admin group.
	Events      http.Handler
	AuthEnabled bool
	Token       string
	// Limiter, if non-nil, throttles the public form submissions.
	Limiter   Limiter
	MaxUpload int64
}

// NewRouter creates a chi router with all API routes, meant to be mounted at /api.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Services, d.MaxUpload, TokenChecker(d.AuthEnabled, d.Token))

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
	})

	r.Get("/health", h.Health)

	// Public reads.
	r.Get("/portfolio", h.ListPortfolio)
	r.Get("/testimonials", h.ListTestimonials)
	r.Get("/services", h.ListServices)

	// Public submissions.
	r.Group(func(r chi.Router) {
		r.Use(RateLimit(d.Limiter))
		r.Post("/contact", h.CreateContact)
		r.Post("/booking", h.CreateBooking)
		r.Post("/testimonials", h.CreateTestimonial)
	})

	// Admin.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(d.AuthEnabled, d.Token))

		r.Get("/contacts", h.ListContacts)
		r.Get("/bookings", h.ListBookings)
		r.Put("/bookings/{id}", h.UpdateBooking)

		r.Post("/portfolio", h.CreatePortfolio)
		r.Delete("/portfolio/{id}", h.DeletePortfolio)

		r.Put("/testimonials/{id}", h.UpdateTestimonial)
		r.Delete("/testimonials/{id}", h.DeleteTestimonial)

		r.Put("/services/{id}", h.UpdateService)

		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
	})

	return r
}
