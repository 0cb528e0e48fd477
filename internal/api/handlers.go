package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ceylonix/internal/apperr"
	"github.com/starford/ceylonix/internal/media"
	"github.com/starford/ceylonix/internal/siteservice"
	"github.com/starford/ceylonix/internal/validate"
)

// maxJSONBody caps non-upload request bodies.
const maxJSONBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc       *siteservice.Services
	maxUpload int64
	isAdmin   func(*http.Request) bool
}

// NewHandler creates a new Handler. isAdmin reports whether a request carries
// admin credentials; nil treats every request as admin.
func NewHandler(svc *siteservice.Services, maxUpload int64, isAdmin func(*http.Request) bool) *Handler {
	if maxUpload <= 0 {
		maxUpload = validate.DefaultMaxUpload
	}
	if isAdmin == nil {
		isAdmin = func(*http.Request) bool { return true }
	}
	return &Handler{svc: svc, maxUpload: maxUpload, isAdmin: isAdmin}
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ErrInvalidID
	}
	return id, nil
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
	})
}

// CreateContact handles POST /api/contact.
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var req ContactRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, "Failed to send message. Please try again.")
		return
	}
	rec, err := h.svc.Contacts.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err, "Failed to send message. Please try again.")
		return
	}
	writeOK(w, "Message sent successfully!", rec)
}

// ListContacts handles GET /api/contacts.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Contacts.List(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching contacts")
		return
	}
	writeOK(w, "", list)
}

// CreateBooking handles POST /api/booking.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var req BookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, "Failed to submit booking request. Please try again.")
		return
	}
	rec, err := h.svc.Bookings.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err, "Failed to submit booking request. Please try again.")
		return
	}
	writeOK(w, "Booking request submitted successfully!", rec)
}

// ListBookings handles GET /api/bookings.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Bookings.List(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching bookings")
		return
	}
	writeOK(w, "", list)
}

// UpdateBooking handles PUT /api/bookings/{id}.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, "Error updating booking")
		return
	}
	var req BookingStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, "Error updating booking")
		return
	}
	rec, err := h.svc.Bookings.UpdateStatus(r.Context(), id, string(req.Status))
	if err != nil {
		writeError(w, r, err, "Error updating booking")
		return
	}
	writeOK(w, "Booking updated successfully", rec)
}

// ListPortfolio handles GET /api/portfolio.
func (h *Handler) ListPortfolio(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Portfolio.List(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching portfolio")
		return
	}
	writeOK(w, "", list)
}

// CreatePortfolio handles POST /api/portfolio: multipart with an optional
// "image" file, or any body carrying an embedUrl.
func (h *Handler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxJSONBody)
	var req PortfolioRequest
	if err := decodeBody(r, &req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			err = &apperr.UploadError{Reason: fmt.Sprintf("File too large. Maximum size is %d MB.", h.maxUpload>>20)}
		}
		writeError(w, r, err, "Error adding portfolio item")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	in := req.input()
	if r.MultipartForm != nil {
		for field, files := range r.MultipartForm.File {
			if field != "image" || len(files) != 1 {
				writeError(w, r, &apperr.UploadError{Reason: "Exactly one file is allowed, in the image field."}, "")
				return
			}
		}
		if files := r.MultipartForm.File["image"]; len(files) == 1 {
			fh := files[0]
			f, err := fh.Open()
			if err != nil {
				writeError(w, r, err, "Error adding portfolio item")
				return
			}
			defer f.Close()
			in.File = &media.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Body:        f,
			}
		}
	}

	item, err := h.svc.Portfolio.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "Error adding portfolio item")
		return
	}
	writeOK(w, "Portfolio item added successfully", item)
}

// DeletePortfolio handles DELETE /api/portfolio/{id}.
func (h *Handler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, "Error deleting portfolio item")
		return
	}
	if err := h.svc.Portfolio.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, "Error deleting portfolio item")
		return
	}
	writeOK(w, "Portfolio item deleted successfully", nil)
}

// ListTestimonials handles GET /api/testimonials. Only approved testimonials
// are returned unless an admin asks for ?all=true.
func (h *Handler) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		if !h.isAdmin(r) {
			writeJSON(w, http.StatusUnauthorized, errorBody("Unauthorized"))
			return
		}
		list, err := h.svc.Testimonials.List(r.Context())
		if err != nil {
			writeError(w, r, err, "Error fetching testimonials")
			return
		}
		writeOK(w, "", list)
		return
	}
	list, err := h.svc.Testimonials.ListApproved(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching testimonials")
		return
	}
	writeOK(w, "", list)
}

// CreateTestimonial handles POST /api/testimonials.
func (h *Handler) CreateTestimonial(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var req TestimonialRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, "Error adding testimonial")
		return
	}
	rec, err := h.svc.Testimonials.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err, "Error adding testimonial")
		return
	}
	writeOK(w, "Testimonial submitted successfully", rec)
}

// UpdateTestimonial handles PUT /api/testimonials/{id}.
func (h *Handler) UpdateTestimonial(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, "Error updating testimonial")
		return
	}
	var req TestimonialPatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, "Error updating testimonial")
		return
	}
	rec, err := h.svc.Testimonials.Update(r.Context(), id, req.patch())
	if err != nil {
		writeError(w, r, err, "Error updating testimonial")
		return
	}
	writeOK(w, "Testimonial updated successfully", rec)
}

// DeleteTestimonial handles DELETE /api/testimonials/{id}.
func (h *Handler) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, "Error deleting testimonial")
		return
	}
	if err := h.svc.Testimonials.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, "Error deleting testimonial")
		return
	}
	writeOK(w, "Testimonial deleted successfully", nil)
}

// ListServices handles GET /api/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Catalog.List(r.Context())
	if err != nil {
		writeError(w, r, err, "Error fetching services")
		return
	}
	writeOK(w, "", list)
}

// UpdateService handles PUT /api/services/{id}.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err, "Error updating service")
		return
	}
	var req ServiceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, "Error updating service")
		return
	}
	rec, err := h.svc.Catalog.Update(r.Context(), id, siteservice.ServicePatch{
		Title:       string(req.Title),
		Description: string(req.Description),
	})
	if err != nil {
		writeError(w, r, err, "Error updating service")
		return
	}
	writeOK(w, "Service updated successfully", rec)
}
