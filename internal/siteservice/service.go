// Package siteservice implements the studio's collection services: validated
// intake, escaping, persistence and admin mutation for each collection.
package siteservice

import (
	"log/slog"
	"time"

	"github.com/starford/ceylonix/internal/media"
	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/notify"
	"github.com/starford/ceylonix/internal/store"
)

// Event types published after successful mutations.
const (
	EventContactCreated     = "contact.created"
	EventBookingCreated     = "booking.created"
	EventBookingUpdated     = "booking.updated"
	EventPortfolioCreated   = "portfolio.created"
	EventPortfolioDeleted   = "portfolio.deleted"
	EventTestimonialCreated = "testimonial.created"
	EventTestimonialUpdated = "testimonial.updated"
	EventTestimonialDeleted = "testimonial.deleted"
	EventServiceUpdated     = "service.updated"
)

// Event describes a committed change to a collection.
type Event struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
	ID         int64  `json:"id"`
}

// Publisher receives change notifications. Implementations must not block.
type Publisher interface {
	PublishChange(eventType, collection string, id int64)
}

// Notifier queues outbound notifications.
type Notifier interface {
	Notify(notify.Message) error
}

// Deps are the collaborators shared by all collection services.
type Deps struct {
	Store     *store.Store
	Media     media.Store
	Notifier  Notifier
	Publisher Publisher
	Logger    *slog.Logger
	// Location is the reference timezone for "start of today". Nil means time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
	// MaxUpload caps portfolio uploads in bytes. Zero means validate.DefaultMaxUpload.
	MaxUpload int64
}

// Services bundles one service per collection.
type Services struct {
	Contacts     *Contacts
	Bookings     *Bookings
	Portfolio    *Portfolio
	Testimonials *Testimonials
	Catalog      *Catalog
}

// New wires every collection service over d.
func New(d Deps) *Services {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	b := &base{deps: d}
	return &Services{
		Contacts:     &Contacts{base: b, coll: store.Open[models.Contact](d.Store, models.CollectionContacts)},
		Bookings:     &Bookings{base: b, coll: store.Open[models.Booking](d.Store, models.CollectionBookings)},
		Portfolio:    &Portfolio{base: b, coll: store.Open[models.PortfolioItem](d.Store, models.CollectionPortfolio)},
		Testimonials: &Testimonials{base: b, coll: store.Open[models.Testimonial](d.Store, models.CollectionTestimonials)},
		Catalog:      &Catalog{base: b, coll: store.Open[models.Service](d.Store, models.CollectionServices)},
	}
}

type base struct {
	deps Deps
}

// timestamp formats now like an ISO-8601 UTC instant with milliseconds.
func (b *base) timestamp() string {
	return b.deps.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func (b *base) today() time.Time {
	return startOfDay(b.deps.Now(), b.deps.Location)
}

func (b *base) publish(typ, collection string, id int64) {
	if b.deps.Publisher == nil {
		return
	}
	b.deps.Publisher.PublishChange(typ, collection, id)
}

// notify hands msg to the notifier. Failures are logged only: the record
// has already been stored.
func (b *base) notify(msg notify.Message, err error) {
	if err != nil {
		b.deps.Logger.Error("siteservice: render notification", slog.String("error", err.Error()))
		return
	}
	if b.deps.Notifier == nil {
		return
	}
	if err := b.deps.Notifier.Notify(msg); err != nil {
		b.deps.Logger.Error("siteservice: queue notification",
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()))
	}
}

func indexOf[T models.Record](records []T, id int64) int {
	for i, r := range records {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}
