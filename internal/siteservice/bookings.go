package siteservice

import (
	"context"
	"strconv"
	"strings"

	"github.com/starford/ceylonix/internal/apperr"
	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/notify"
	"github.com/starford/ceylonix/internal/sanitize"
	"github.com/starford/ceylonix/internal/store"
	"github.com/starford/ceylonix/internal/validate"
)

// BookingStatusPending is assigned to every new booking.
const BookingStatusPending = "pending"

// BookingInput is a raw booking request. GuestCount is kept as text until validated.
type BookingInput struct {
	Name            string
	Email           string
	Phone           string
	ServiceType     string
	EventDate       string
	EventTime       string
	Duration        string
	Location        string
	GuestCount      string
	Budget          string
	SpecialRequests string
}

func (in BookingInput) values() map[string]string {
	return map[string]string{
		"name":            in.Name,
		"email":           in.Email,
		"phone":           in.Phone,
		"serviceType":     in.ServiceType,
		"eventDate":       in.EventDate,
		"eventTime":       in.EventTime,
		"duration":        in.Duration,
		"location":        in.Location,
		"guestCount":      in.GuestCount,
		"budget":          in.Budget,
		"specialRequests": in.SpecialRequests,
	}
}

// Bookings handles booking requests and their status changes.
type Bookings struct {
	*base
	coll *store.Collection[models.Booking]
}

// Create validates a booking (the event date may not be before today in the
// reference timezone), stores it as pending and queues the notification.
func (s *Bookings) Create(_ context.Context, in BookingInput) (models.Booking, error) {
	if err := apperr.Validation(validate.Evaluate(bookingSchema(s.today), in.values())); err != nil {
		return models.Booking{}, err
	}

	v := validate.Normalize(in.values())
	rec := models.Booking{
		Name:            v["name"],
		Email:           normalizeEmail(v["email"]),
		Phone:           v["phone"],
		ServiceType:     v["serviceType"],
		EventDate:       v["eventDate"],
		EventTime:       v["eventTime"],
		Duration:        v["duration"],
		Location:        v["location"],
		Budget:          v["budget"],
		SpecialRequests: v["specialRequests"],
		Date:            s.timestamp(),
		Status:          BookingStatusPending,
	}
	if gc := v["guestCount"]; gc != "" {
		n, _ := strconv.Atoi(gc)
		rec.GuestCount = &n
	}
	sanitize.EscapeAll(&rec.Name, &rec.Email, &rec.Phone, &rec.ServiceType, &rec.Duration,
		&rec.Location, &rec.Budget, &rec.SpecialRequests)

	err := s.coll.Update(func(all []models.Booking) ([]models.Booking, error) {
		rec.ID = store.NewID(s.deps.Store, all, func(r models.Booking) int64 { return r.ID })
		return append(all, rec), nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	s.publish(EventBookingCreated, models.CollectionBookings, rec.ID)
	s.notify(notify.BookingMessage(rec))
	return rec, nil
}

// List returns every booking in arrival order.
func (s *Bookings) List(_ context.Context) ([]models.Booking, error) {
	return s.coll.Load()
}

// UpdateStatus sets the status of booking id. The event date is not re-validated.
func (s *Bookings) UpdateStatus(_ context.Context, id int64, status string) (models.Booking, error) {
	values := map[string]string{"status": status}
	if err := apperr.Validation(validate.Evaluate(bookingStatusSchema, values)); err != nil {
		return models.Booking{}, err
	}

	var updated models.Booking
	err := s.coll.Update(func(all []models.Booking) ([]models.Booking, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, apperr.NotFound("Booking")
		}
		all[i].Status = sanitize.Escape(strings.TrimSpace(status))
		all[i].UpdatedAt = s.timestamp()
		updated = all[i]
		return all, nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	s.publish(EventBookingUpdated, models.CollectionBookings, id)
	return updated, nil
}
