// Package testutil provides shared test helpers for setting up data dirs and services.
package testutil

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/ceylonix/internal/media"
	"github.com/starford/ceylonix/internal/notify"
	"github.com/starford/ceylonix/internal/siteservice"
	"github.com/starford/ceylonix/internal/store"
)

// Recorder captures published events and queued notifications.
type Recorder struct {
	mu       sync.Mutex
	events   []siteservice.Event
	messages []notify.Message
}

func (r *Recorder) PublishChange(eventType, collection string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, siteservice.Event{Type: eventType, Collection: collection, ID: id})
}

func (r *Recorder) Notify(m notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

// Events returns a copy of the published events.
func (r *Recorder) Events() []siteservice.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]siteservice.Event(nil), r.events...)
}

// Messages returns a copy of the queued notifications.
func (r *Recorder) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.messages...)
}

// Site is a fully wired set of services over temporary directories.
type Site struct {
	DataDir    string
	UploadsDir string
	Store      *store.Store
	Media      *media.Local
	Services   *siteservice.Services
	Recorder   *Recorder
}

// Colombo is the fixed reference timezone used by tests.
var Colombo = time.FixedZone("Asia/Colombo", 5*3600+1800)

// NewSite creates temp data and uploads dirs and wires services whose clock
// is pinned to now.
func NewSite(t *testing.T, now time.Time) *Site {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	uploadsDir := filepath.Join(root, "uploads")

	backend, err := store.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	local, err := media.NewLocal(uploadsDir, nil)
	if err != nil {
		t.Fatal(err)
	}
	st := store.New(backend)
	rec := &Recorder{}
	svc := siteservice.New(siteservice.Deps{
		Store:     st,
		Media:     local,
		Notifier:  rec,
		Publisher: rec,
		Location:  Colombo,
		Now:       func() time.Time { return now },
	})
	return &Site{
		DataDir:    dataDir,
		UploadsDir: local.Root(),
		Store:      st,
		Media:      local,
		Services:   svc,
		Recorder:   rec,
	}
}

// TestSQLite opens a temporary SQLite collection backend.
func TestSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "site.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
