package validate

import (
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/ceylonix/internal/apperr"
)

// DefaultMaxUpload is the per-file size cap for portfolio media.
const DefaultMaxUpload = 10 << 20

// uploadTypes maps each accepted extension to the media types a client may declare for it.
var uploadTypes = map[string][]string{
	".jpg":  {"image/jpeg", "image/jpg"},
	".jpeg": {"image/jpeg", "image/jpg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
	".mp4":  {"video/mp4"},
	".mov":  {"video/quicktime", "video/mov"},
}

// CheckUpload accepts a file only when its extension is allow-listed, its declared
// media type belongs to that extension, and it is no larger than limit bytes.
func CheckUpload(filename, contentType string, size, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxUpload
	}
	ext := strings.ToLower(filepath.Ext(filename))
	allowed, ok := uploadTypes[ext]
	if !ok {
		return &apperr.UploadError{Reason: "Invalid file type. Only images and videos are allowed."}
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !slices.Contains(allowed, strings.ToLower(mediaType)) {
		return &apperr.UploadError{Reason: "Invalid file type. Only images and videos are allowed."}
	}
	if size > limit {
		return &apperr.UploadError{Reason: fmt.Sprintf("File too large. Maximum size is %d MB.", limit>>20)}
	}
	return nil
}

// IsVideo reports whether the declared media type is a video type.
func IsVideo(contentType string) bool {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	return strings.HasPrefix(mediaType, "video/")
}
