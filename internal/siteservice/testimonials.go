package siteservice

import (
	"context"
	"strconv"
	"strings"

	"github.com/starford/ceylonix/internal/apperr"
	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/sanitize"
	"github.com/starford/ceylonix/internal/store"
	"github.com/starford/ceylonix/internal/validate"
)

// DefaultRole is stored when a testimonial has no role.
const DefaultRole = "Client"

// TestimonialInput is a raw testimonial submission. Rating is kept as text until validated.
type TestimonialInput struct {
	Name   string
	Role   string
	Text   string
	Rating string
}

func (in TestimonialInput) values() map[string]string {
	return map[string]string{"name": in.Name, "role": in.Role, "text": in.Text, "rating": in.Rating}
}

// TestimonialPatch carries the fields an admin wants to change. Nil means unchanged.
type TestimonialPatch struct {
	Name     *string
	Role     *string
	Text     *string
	Rating   *string
	Approved *bool
}

func (p TestimonialPatch) empty() bool {
	return p.Name == nil && p.Role == nil && p.Text == nil && p.Rating == nil && p.Approved == nil
}

// Testimonials manages client reviews and their approval.
type Testimonials struct {
	*base
	coll *store.Collection[models.Testimonial]
}

// Create stores a new testimonial awaiting approval.
func (s *Testimonials) Create(_ context.Context, in TestimonialInput) (models.Testimonial, error) {
	if err := apperr.Validation(validate.Evaluate(testimonialSchema, in.values())); err != nil {
		return models.Testimonial{}, err
	}
	v := validate.Normalize(in.values())
	rating, _ := strconv.Atoi(v["rating"])
	rec := models.Testimonial{
		Name:      sanitize.Escape(v["name"]),
		Role:      sanitize.Escape(v["role"]),
		Text:      sanitize.Escape(v["text"]),
		Rating:    rating,
		CreatedAt: s.timestamp(),
		Approved:  false,
	}
	if rec.Role == "" {
		rec.Role = DefaultRole
	}
	err := s.coll.Update(func(all []models.Testimonial) ([]models.Testimonial, error) {
		rec.ID = store.NewID(s.deps.Store, all, func(r models.Testimonial) int64 { return r.ID })
		return append(all, rec), nil
	})
	if err != nil {
		return models.Testimonial{}, err
	}
	s.publish(EventTestimonialCreated, models.CollectionTestimonials, rec.ID)
	return rec, nil
}

// List returns all testimonials, approved or not.
func (s *Testimonials) List(_ context.Context) ([]models.Testimonial, error) {
	return s.coll.Load()
}

// ListApproved returns only the testimonials visible to site visitors.
func (s *Testimonials) ListApproved(ctx context.Context) ([]models.Testimonial, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Testimonial, 0, len(all))
	for _, t := range all {
		if t.Approved {
			out = append(out, t)
		}
	}
	return out, nil
}

// Update applies patch to testimonial id. Every provided text field is
// re-validated with the creation rules.
func (s *Testimonials) Update(_ context.Context, id int64, patch TestimonialPatch) (models.Testimonial, error) {
	if patch.empty() {
		return models.Testimonial{}, apperr.Validation([]apperr.FieldError{
			{Field: "body", Message: "At least one of name, role, text, rating or approved is required"},
		})
	}

	values := map[string]string{}
	var names []string
	for name, p := range map[string]*string{"name": patch.Name, "role": patch.Role, "text": patch.Text, "rating": patch.Rating} {
		if p != nil {
			values[name] = *p
			names = append(names, name)
		}
	}
	if err := apperr.Validation(validate.Evaluate(testimonialSchema.Only(names...), values)); err != nil {
		return models.Testimonial{}, err
	}

	var updated models.Testimonial
	err := s.coll.Update(func(all []models.Testimonial) ([]models.Testimonial, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, apperr.NotFound("Testimonial")
		}
		t := &all[i]
		if patch.Name != nil {
			t.Name = sanitize.Escape(strings.TrimSpace(*patch.Name))
		}
		if patch.Role != nil {
			t.Role = sanitize.Escape(strings.TrimSpace(*patch.Role))
			if t.Role == "" {
				t.Role = DefaultRole
			}
		}
		if patch.Text != nil {
			t.Text = sanitize.Escape(strings.TrimSpace(*patch.Text))
		}
		if patch.Rating != nil {
			t.Rating, _ = strconv.Atoi(strings.TrimSpace(*patch.Rating))
		}
		if patch.Approved != nil {
			t.Approved = *patch.Approved
		}
		t.UpdatedAt = s.timestamp()
		updated = *t
		return all, nil
	})
	if err != nil {
		return models.Testimonial{}, err
	}
	s.publish(EventTestimonialUpdated, models.CollectionTestimonials, id)
	return updated, nil
}

// Delete removes testimonial id.
func (s *Testimonials) Delete(_ context.Context, id int64) error {
	err := s.coll.Update(func(all []models.Testimonial) ([]models.Testimonial, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, apperr.NotFound("Testimonial")
		}
		return append(all[:i], all[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	s.publish(EventTestimonialDeleted, models.CollectionTestimonials, id)
	return nil
}
