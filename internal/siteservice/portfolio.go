package siteservice

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/ceylonix/internal/apperr"
	"github.com/starford/ceylonix/internal/media"
	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/sanitize"
	"github.com/starford/ceylonix/internal/store"
	"github.com/starford/ceylonix/internal/validate"
)

// PortfolioInput is a raw portfolio submission. Exactly one of File and
// EmbedURL must be supplied.
type PortfolioInput struct {
	Title          string
	Category       string
	Type           string
	Description    string
	Platform       string
	EmbedURL       string
	ThumbnailImage string
	File           *media.Upload
}

func (in PortfolioInput) values() map[string]string {
	return map[string]string{
		"title":          in.Title,
		"category":       in.Category,
		"type":           in.Type,
		"description":    in.Description,
		"platform":       in.Platform,
		"embedUrl":       in.EmbedURL,
		"thumbnailImage": in.ThumbnailImage,
	}
}

// Portfolio manages uploaded and embedded portfolio items.
type Portfolio struct {
	*base
	coll *store.Collection[models.PortfolioItem]
}

// Create stores an uploaded file or an embed reference as a new item.
func (s *Portfolio) Create(ctx context.Context, in PortfolioInput) (models.PortfolioItem, error) {
	v := validate.Normalize(in.values())
	errs := validate.Evaluate(portfolioSchema, v)

	hasEmbed := v["embedUrl"] != ""
	switch {
	case in.File != nil && hasEmbed:
		errs = append(errs, apperr.FieldError{Field: "image", Message: "Provide either an image or an embedUrl, not both"})
	case in.File == nil && !hasEmbed:
		errs = append(errs, apperr.FieldError{Field: "image", Message: "Image is required"})
	case in.File != nil && v["type"] == models.PortfolioEmbed:
		errs = append(errs, apperr.FieldError{Field: "type", Message: "Type embed requires an embedUrl"})
	}
	if err := apperr.Validation(errs); err != nil {
		return models.PortfolioItem{}, err
	}

	item := models.PortfolioItem{
		Title:          v["title"],
		Category:       v["category"],
		Description:    v["description"],
		Platform:       v["platform"],
		ThumbnailImage: v["thumbnailImage"],
		CreatedAt:      s.timestamp(),
	}
	sanitize.EscapeAll(&item.Title, &item.Category, &item.Description, &item.Platform)

	if hasEmbed {
		item.Type = models.PortfolioEmbed
		item.IsEmbed = true
		item.EmbedURL = v["embedUrl"]
		if item.Platform == "" {
			item.Platform = platformOf(item.EmbedURL)
		}
	} else {
		f := in.File
		if err := validate.CheckUpload(f.Filename, f.ContentType, f.Size, s.deps.MaxUpload); err != nil {
			return models.PortfolioItem{}, err
		}
		item.Type = v["type"]
		if item.Type == "" {
			item.Type = models.PortfolioPhoto
			if validate.IsVideo(f.ContentType) {
				item.Type = models.PortfolioVideo
			}
		}
		stored, err := s.deps.Media.Save(ctx, *f)
		if err != nil {
			return models.PortfolioItem{}, err
		}
		item.Image = stored.URL
		item.Media = stored.Ref
	}

	err := s.coll.Update(func(all []models.PortfolioItem) ([]models.PortfolioItem, error) {
		item.ID = store.NewID(s.deps.Store, all, func(r models.PortfolioItem) int64 { return r.ID })
		return append(all, item), nil
	})
	if err != nil {
		if item.Image != "" {
			s.removeMedia(ctx, item)
		}
		return models.PortfolioItem{}, err
	}
	s.publish(EventPortfolioCreated, models.CollectionPortfolio, item.ID)
	return item, nil
}

// List returns every item in insertion order.
func (s *Portfolio) List(_ context.Context) ([]models.PortfolioItem, error) {
	return s.coll.Load()
}

// Delete removes item id and then its stored media. Media outside the
// uploads directory is never touched.
func (s *Portfolio) Delete(ctx context.Context, id int64) error {
	var removed models.PortfolioItem
	err := s.coll.Update(func(all []models.PortfolioItem) ([]models.PortfolioItem, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, apperr.NotFound("Portfolio item")
		}
		removed = all[i]
		return append(all[:i], all[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	if !removed.IsEmbed {
		s.removeMedia(ctx, removed)
	}
	s.publish(EventPortfolioDeleted, models.CollectionPortfolio, id)
	return nil
}

func (s *Portfolio) removeMedia(ctx context.Context, item models.PortfolioItem) {
	if s.deps.Media == nil {
		return
	}
	if _, err := s.deps.Media.Delete(ctx, item); err != nil {
		s.deps.Logger.Error("siteservice: delete media",
			slog.Int64("id", item.ID),
			slog.String("error", err.Error()))
	}
}

// platformOf guesses the embed platform from the URL host.
func platformOf(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, p := range []struct{ host, name string }{
		{"instagram.com", "instagram"},
		{"tiktok.com", "tiktok"},
		{"youtube.com", "youtube"},
		{"youtu.be", "youtube"},
		{"vimeo.com", "vimeo"},
		{"facebook.com", "facebook"},
	} {
		if strings.Contains(lower, p.host) {
			return p.name
		}
	}
	return ""
}
