package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// TempPrefix marks in-flight writes inside the data directory.
const TempPrefix = ".site-tmp-"

var collectionNameRe = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

var emptyArray = []byte("[]")

// FS implements Backend with one <name>.json file per collection.
type FS struct {
	root string // absolute path to the data directory

	mu     sync.Mutex
	writes map[string]time.Time // last successful Write per collection
}

// NewFS creates a file backend rooted at dir, creating the directory if needed.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("store: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("store: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("store: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store: root is not a directory: %s", abs)
	}
	return &FS{root: abs, writes: make(map[string]time.Time)}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string { return f.root }

// filePath maps a collection name to its file and rejects names that could
// resolve outside the data directory.
func (f *FS) filePath(name string) (string, error) {
	if !collectionNameRe.MatchString(name) {
		return "", fmt.Errorf("store: invalid collection name %q", name)
	}
	abs := filepath.Join(f.root, name+".json")
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("store: collection escapes data root: %s", name)
	}
	return abs, nil
}

// CollectionName returns the collection a data-dir file belongs to, or "" when
// the file is not a collection file.
func CollectionName(file string) string {
	base := filepath.Base(file)
	if strings.HasPrefix(base, TempPrefix) || !strings.HasSuffix(base, ".json") {
		return ""
	}
	name := strings.TrimSuffix(base, ".json")
	if !collectionNameRe.MatchString(name) {
		return ""
	}
	return name
}

func (f *FS) Read(name string) ([]byte, error) {
	abs, err := f.filePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		// Create under the lock so an array another process just wrote is kept.
		err = f.Update(name, func(cur []byte) ([]byte, error) {
			data = cur
			return cur, nil
		})
		return data, err
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	return data, nil
}

// Update holds an exclusive flock on <name>.lock in the data directory for the
// whole read-modify-write, so a second process on the same directory waits.
func (f *FS) Update(name string, fn func([]byte) ([]byte, error)) error {
	abs, err := f.filePath(name)
	if err != nil {
		return err
	}
	lock := flock.New(strings.TrimSuffix(abs, ".json") + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("store: lock %s: %w", name, err)
	}
	defer lock.Unlock()

	cur, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		cur = emptyArray
	} else if err != nil {
		return fmt.Errorf("store: read %s: %w", name, err)
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return f.Write(name, next)
}

// Write replaces the collection file atomically: tmp file, fsync, rename.
func (f *FS) Write(name string, data []byte) error {
	abs, err := f.filePath(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, TempPrefix+"*")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("store: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	success = true

	f.mu.Lock()
	f.writes[name] = time.Now()
	f.mu.Unlock()
	return nil
}

// WroteWithin reports whether this process saved collection name during the
// last d. The data-dir watcher uses it to skip its own writes.
func (f *FS) WroteWithin(name string, d time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.writes[name]
	return ok && time.Since(at) <= d
}
