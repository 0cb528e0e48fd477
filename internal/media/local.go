package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ceylonix/internal/models"
)

const (
	// URLPrefix is the public path uploads are served under.
	URLPrefix    = "/uploads"
	portfolioDir = "portfolio"
)

// Local keeps uploads on disk under <root>/portfolio.
type Local struct {
	root   string // absolute uploads directory
	logger *slog.Logger
}

// NewLocal creates the uploads directory if needed.
func NewLocal(root string, logger *slog.Logger) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("media: resolve root: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, portfolioDir), 0o755); err != nil {
		return nil, fmt.Errorf("media: create uploads dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{root: abs, logger: logger}, nil
}

// Root returns the absolute uploads directory.
func (l *Local) Root() string { return l.root }

// Save writes the upload as <unixms>-<uuid><ext>.
func (l *Local) Save(_ context.Context, up Upload) (Stored, error) {
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), strings.ToLower(filepath.Ext(up.Filename)))
	abs := filepath.Join(l.root, portfolioDir, name)

	dst, err := os.Create(abs)
	if err != nil {
		return Stored{}, fmt.Errorf("media: create file: %w", err)
	}
	if _, err := io.Copy(dst, up.Body); err != nil {
		_ = dst.Close()
		_ = os.Remove(abs)
		return Stored{}, fmt.Errorf("media: write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(abs)
		return Stored{}, fmt.Errorf("media: close file: %w", err)
	}
	return Stored{URL: URLPrefix + "/" + portfolioDir + "/" + name}, nil
}

// Delete removes the file behind item.Image, but only when that path names a
// regular file directly inside the portfolio directory. Anything else is left
// untouched.
func (l *Local) Delete(_ context.Context, item models.PortfolioItem) (bool, error) {
	if item.Media != nil || item.Image == "" {
		return false, nil
	}
	abs, ok := l.resolve(item.Image)
	if !ok {
		l.logger.Warn("media: refusing to delete path outside uploads dir",
			slog.Int64("id", item.ID),
			slog.String("image", item.Image))
		return false, nil
	}
	info, err := os.Lstat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("media: stat %s: %w", item.Image, err)
	}
	if !info.Mode().IsRegular() {
		l.logger.Warn("media: refusing to delete non-regular file",
			slog.Int64("id", item.ID),
			slog.String("image", item.Image))
		return false, nil
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("media: delete %s: %w", item.Image, err)
	}
	return true, nil
}

// resolve maps a public /uploads/portfolio/<name> path to its file. Paths that
// land anywhere but directly inside the portfolio directory are rejected.
func (l *Local) resolve(publicPath string) (string, bool) {
	if !strings.HasPrefix(publicPath, URLPrefix+"/") {
		return "", false
	}
	rel := strings.TrimPrefix(publicPath, URLPrefix+"/")
	abs := filepath.Join(l.root, filepath.FromSlash(rel))
	if filepath.Dir(abs) != filepath.Join(l.root, portfolioDir) {
		return "", false
	}
	return abs, true
}

// FilePath validates a served file name (no separators, no traversal) and
// returns its absolute path under the portfolio directory.
func (l *Local) FilePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	dir := filepath.Join(l.root, portfolioDir)
	abs := filepath.Join(dir, cleaned)
	if !strings.HasPrefix(abs, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes uploads directory")
	}
	return abs, nil
}
