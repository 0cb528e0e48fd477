package siteservice

import (
	"context"
	"strings"

	"github.com/starford/ceylonix/internal/apperr"
	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/notify"
	"github.com/starford/ceylonix/internal/sanitize"
	"github.com/starford/ceylonix/internal/store"
	"github.com/starford/ceylonix/internal/validate"
)

// ContactInput is a raw contact-form submission.
type ContactInput struct {
	Name    string
	Email   string
	Message string
}

func (in ContactInput) values() map[string]string {
	return map[string]string{"name": in.Name, "email": in.Email, "message": in.Message}
}

// Contacts handles contact-form submissions.
type Contacts struct {
	*base
	coll *store.Collection[models.Contact]
}

// Create validates, escapes and stores a submission, then queues the notification.
func (s *Contacts) Create(_ context.Context, in ContactInput) (models.Contact, error) {
	if err := apperr.Validation(validate.Evaluate(contactSchema, in.values())); err != nil {
		return models.Contact{}, err
	}
	rec := models.Contact{
		Name:    sanitize.Escape(strings.TrimSpace(in.Name)),
		Email:   sanitize.Escape(normalizeEmail(in.Email)),
		Message: sanitize.Escape(strings.TrimSpace(in.Message)),
		Date:    s.timestamp(),
		Status:  "new",
	}
	err := s.coll.Update(func(all []models.Contact) ([]models.Contact, error) {
		rec.ID = store.NewID(s.deps.Store, all, func(r models.Contact) int64 { return r.ID })
		return append(all, rec), nil
	})
	if err != nil {
		return models.Contact{}, err
	}
	s.publish(EventContactCreated, models.CollectionContacts, rec.ID)
	s.notify(notify.ContactMessage(rec))
	return rec, nil
}

// List returns every submission in arrival order.
func (s *Contacts) List(_ context.Context) ([]models.Contact, error) {
	return s.coll.Load()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
