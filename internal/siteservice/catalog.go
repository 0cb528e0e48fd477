package siteservice

import (
	"context"
	"log/slog"

	"github.com/starford/ceylonix/internal/apperr"
	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/sanitize"
	"github.com/starford/ceylonix/internal/store"
	"github.com/starford/ceylonix/internal/validate"
)

// ServicePatch holds replacement text. Empty fields keep the stored value.
type ServicePatch struct {
	Title       string
	Description string
}

// Catalog manages the fixed set of studio services. Entries are never
// created or deleted through the API.
type Catalog struct {
	*base
	coll *store.Collection[models.Service]
}

// DefaultServices is the catalog written on first start.
func DefaultServices() []models.Service {
	return []models.Service{
		{ID: 1, Title: "Wedding Photography", Description: "Capturing your special day with timeless elegance and artistic vision. From intimate ceremonies to grand celebrations."},
		{ID: 2, Title: "Cinematic Videography", Description: "Creating stunning films that tell your unique story with emotion and style. Professional editing and color grading."},
		{ID: 3, Title: "Portrait Sessions", Description: "Professional portraits that showcase personality and character beautifully. Studio and location shoots available."},
		{ID: 4, Title: "Corporate Events", Description: "Premium coverage for your business events and corporate functions. Brand-consistent visual storytelling."},
	}
}

// Seed writes seed when the catalog is empty and reports whether it did.
func (s *Catalog) Seed(_ context.Context, seed []models.Service) (bool, error) {
	if len(seed) == 0 {
		return false, nil
	}
	seeded := false
	err := s.coll.Update(func(all []models.Service) ([]models.Service, error) {
		if len(all) > 0 {
			return all, nil
		}
		seeded = true
		return append([]models.Service(nil), seed...), nil
	})
	if err != nil {
		return false, err
	}
	if seeded {
		s.deps.Logger.Info("siteservice: seeded services", slog.Int("count", len(seed)))
	}
	return seeded, nil
}

// List returns the catalog.
func (s *Catalog) List(_ context.Context) ([]models.Service, error) {
	return s.coll.Load()
}

// Update replaces the title and/or description of service id.
func (s *Catalog) Update(_ context.Context, id int64, patch ServicePatch) (models.Service, error) {
	values := validate.Normalize(map[string]string{"title": patch.Title, "description": patch.Description})
	if err := apperr.Validation(validate.Evaluate(serviceSchema, values)); err != nil {
		return models.Service{}, err
	}

	var updated models.Service
	err := s.coll.Update(func(all []models.Service) ([]models.Service, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, apperr.NotFound("Service")
		}
		if values["title"] != "" {
			all[i].Title = sanitize.Escape(values["title"])
		}
		if values["description"] != "" {
			all[i].Description = sanitize.Escape(values["description"])
		}
		all[i].UpdatedAt = s.timestamp()
		updated = all[i]
		return all, nil
	})
	if err != nil {
		return models.Service{}, err
	}
	s.publish(EventServiceUpdated, models.CollectionServices, id)
	return updated, nil
}
