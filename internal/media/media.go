// Package media stores portfolio uploads, locally or on Cloudinary.
package media

import (
	"context"
	"io"

	"github.com/starford/ceylonix/internal/models"
)

// Backend names recorded on stored items.
const (
	BackendLocal      = "local"
	BackendCloudinary = "cloudinary"
)

// Upload is one validated file from a portfolio submission.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Stored describes where an upload ended up.
type Stored struct {
	// URL is what clients use to fetch the media.
	URL string
	// Ref is set by remote backends so the file can be removed later.
	Ref *models.MediaRef
}

// Store saves uploads and removes the media behind deleted portfolio items.
type Store interface {
	Save(ctx context.Context, up Upload) (Stored, error)
	// Delete removes the media owned by item. It reports false when there was
	// nothing it was allowed to remove.
	Delete(ctx context.Context, item models.PortfolioItem) (bool, error)
}
