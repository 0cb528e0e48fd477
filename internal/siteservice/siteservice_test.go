package siteservice_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/ceylonix/internal/apperr"
	"github.com/starford/ceylonix/internal/media"
	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/siteservice"
	"github.com/starford/ceylonix/internal/store"
	"github.com/starford/ceylonix/internal/testutil"
)

var now = time.Date(2026, 5, 1, 15, 0, 0, 0, testutil.Colombo)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *apperr.ValidationError", err)
	}
	out := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		out[i] = fe.Field
	}
	return out
}

func validBooking() siteservice.BookingInput {
	return siteservice.BookingInput{
		Name:        "Nimal Perera",
		Email:       "Nimal@Example.com ",
		Phone:       "+94 77 123 4567",
		ServiceType: "Wedding Photography",
		EventDate:   "2026-06-20",
		EventTime:   "16:30",
		GuestCount:  "150",
	}
}

func TestContactCreateThenList(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()

	rec, err := site.Services.Contacts.Create(ctx, siteservice.ContactInput{
		Name:    "Jo O'Neil",
		Email:   " JO@Example.COM",
		Message: "<b>Hello</b> & welcome to our studio",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := models.Contact{
		ID:      rec.ID,
		Name:    "Jo O&#039;Neil",
		Email:   "jo@example.com",
		Message: "&lt;b&gt;Hello&lt;/b&gt; &amp; welcome to our studio",
		Date:    "2026-05-01T09:30:00.000Z",
		Status:  "new",
	}
	list, err := site.Services.Contacts.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]models.Contact{want}, list); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}

	msgs := site.Recorder.Messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Subject, "Jo O&#039;Neil") {
		t.Errorf("messages = %+v", msgs)
	}
	events := site.Recorder.Events()
	if len(events) != 1 || events[0].Type != siteservice.EventContactCreated || events[0].ID != rec.ID {
		t.Errorf("events = %+v", events)
	}
}

func TestInvalidInputDoesNotTouchStore(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()
	svc := site.Services

	cases := []struct {
		name  string
		field string
		run   func() error
		count func() int
	}{
		{"contact short name", "name", func() error {
			_, err := svc.Contacts.Create(ctx, siteservice.ContactInput{Name: "J", Email: "j@x.io", Message: "long enough message"})
			return err
		}, func() int { l, _ := svc.Contacts.List(ctx); return len(l) }},
		{"contact bad email", "email", func() error {
			_, err := svc.Contacts.Create(ctx, siteservice.ContactInput{Name: "Jo", Email: "jo@x", Message: "long enough message"})
			return err
		}, func() int { l, _ := svc.Contacts.List(ctx); return len(l) }},
		{"contact short message", "message", func() error {
			_, err := svc.Contacts.Create(ctx, siteservice.ContactInput{Name: "Jo", Email: "jo@x.io", Message: "hi"})
			return err
		}, func() int { l, _ := svc.Contacts.List(ctx); return len(l) }},
		{"booking short phone", "phone", func() error {
			in := validBooking()
			in.Phone = "12-34"
			_, err := svc.Bookings.Create(ctx, in)
			return err
		}, func() int { l, _ := svc.Bookings.List(ctx); return len(l) }},
		{"booking bad time", "eventTime", func() error {
			in := validBooking()
			in.EventTime = "24:00"
			_, err := svc.Bookings.Create(ctx, in)
			return err
		}, func() int { l, _ := svc.Bookings.List(ctx); return len(l) }},
		{"booking guest count", "guestCount", func() error {
			in := validBooking()
			in.GuestCount = "lots"
			_, err := svc.Bookings.Create(ctx, in)
			return err
		}, func() int { l, _ := svc.Bookings.List(ctx); return len(l) }},
		{"testimonial rating", "rating", func() error {
			_, err := svc.Testimonials.Create(ctx, siteservice.TestimonialInput{Name: "Jo Lee", Text: "Great service, thanks!", Rating: "6"})
			return err
		}, func() int { l, _ := svc.Testimonials.List(ctx); return len(l) }},
		{"testimonial short text", "text", func() error {
			_, err := svc.Testimonials.Create(ctx, siteservice.TestimonialInput{Name: "Jo Lee", Text: "Great", Rating: "5"})
			return err
		}, func() int { l, _ := svc.Testimonials.List(ctx); return len(l) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			before := c.count()
			got := fieldsOf(t, c.run())
			if len(got) != 1 || got[0] != c.field {
				t.Errorf("fields = %v, want [%s]", got, c.field)
			}
			if after := c.count(); after != before {
				t.Errorf("store size changed %d -> %d", before, after)
			}
		})
	}
	if n := len(site.Recorder.Messages()); n != 0 {
		t.Errorf("%d notifications sent for rejected input", n)
	}
}

func TestBookingEventDateBoundaries(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()

	in := validBooking()
	in.EventDate = "2026-05-01"
	if _, err := site.Services.Bookings.Create(ctx, in); err != nil {
		t.Fatalf("today rejected: %v", err)
	}

	in.EventDate = "2026-04-30"
	_, err := site.Services.Bookings.Create(ctx, in)
	if got := fieldsOf(t, err); len(got) != 1 || got[0] != "eventDate" {
		t.Errorf("yesterday fields = %v", got)
	}

	list, _ := site.Services.Bookings.List(ctx)
	if len(list) != 1 {
		t.Errorf("bookings stored = %d, want 1", len(list))
	}
	if n := len(site.Recorder.Messages()); n != 1 {
		t.Errorf("notifications = %d, want 1", n)
	}
}

func TestBookingCreateAndUpdateStatus(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()

	b, err := site.Services.Bookings.Create(ctx, validBooking())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Status != siteservice.BookingStatusPending || b.Email != "nimal@example.com" {
		t.Errorf("created = %+v", b)
	}
	if b.GuestCount == nil || *b.GuestCount != 150 {
		t.Errorf("guestCount = %v", b.GuestCount)
	}

	updated, err := site.Services.Bookings.UpdateStatus(ctx, b.ID, "confirmed")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != "confirmed" || updated.UpdatedAt == "" || updated.EventDate != b.EventDate {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := site.Services.Bookings.UpdateStatus(ctx, b.ID+1, "confirmed"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing id err = %v", err)
	}
	if _, err := site.Services.Bookings.UpdateStatus(ctx, b.ID, ""); err == nil {
		t.Error("empty status accepted")
	}
}

func TestTestimonialApprovalFlow(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()
	svc := site.Services.Testimonials

	created, err := svc.Create(ctx, siteservice.TestimonialInput{
		Name: "Jo Lee", Text: "Great service, highly recommend!", Rating: "5",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Approved || created.Role != siteservice.DefaultRole || created.Rating != 5 {
		t.Errorf("created = %+v", created)
	}
	if approved, _ := svc.ListApproved(ctx); len(approved) != 0 {
		t.Errorf("unapproved testimonial is public: %+v", approved)
	}

	yes := true
	updated, err := svc.Update(ctx, created.ID, siteservice.TestimonialPatch{Approved: &yes})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := created
	want.Approved = true
	want.UpdatedAt = updated.UpdatedAt
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Errorf("update changed other fields (-want +got):\n%s", diff)
	}
	if approved, _ := svc.ListApproved(ctx); len(approved) != 1 {
		t.Errorf("approved list = %+v", approved)
	}

	bad := "9"
	if _, err := svc.Update(ctx, created.ID, siteservice.TestimonialPatch{Rating: &bad}); fieldsOf(t, err)[0] != "rating" {
		t.Errorf("rating patch err = %v", err)
	}
	if _, err := svc.Update(ctx, created.ID, siteservice.TestimonialPatch{}); err == nil {
		t.Error("empty patch accepted")
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestTestimonialRatingBoundaries(t *testing.T) {
	site := testutil.NewSite(t, now)
	for rating, ok := range map[string]bool{"0": false, "1": true, "5": true, "6": false} {
		_, err := site.Services.Testimonials.Create(context.Background(), siteservice.TestimonialInput{
			Name: "Jo Lee", Text: "Lovely photos, thank you", Rating: rating,
		})
		if (err == nil) != ok {
			t.Errorf("rating %s: err = %v, want ok=%v", rating, err, ok)
		}
	}
}

func upload(name, ctype, body string) *media.Upload {
	return &media.Upload{Filename: name, ContentType: ctype, Size: int64(len(body)), Body: bytes.NewReader([]byte(body))}
}

func TestPortfolioCreateVariants(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()
	svc := site.Services.Portfolio

	photo, err := svc.Create(ctx, siteservice.PortfolioInput{Title: "Beach <Wedding>", Category: "wedding", File: upload("a.jpg", "image/jpeg", "jpg")})
	if err != nil {
		t.Fatalf("photo: %v", err)
	}
	if photo.Type != models.PortfolioPhoto || photo.Title != "Beach &lt;Wedding&gt;" || !strings.HasPrefix(photo.Image, "/uploads/portfolio/") {
		t.Errorf("photo = %+v", photo)
	}

	video, err := svc.Create(ctx, siteservice.PortfolioInput{Title: "Film", Category: "films", File: upload("b.mov", "video/quicktime", "mov")})
	if err != nil || video.Type != models.PortfolioVideo {
		t.Errorf("video = %+v, %v", video, err)
	}

	embed, err := svc.Create(ctx, siteservice.PortfolioInput{
		Title: "Reel", Category: "social", EmbedURL: "https://www.instagram.com/reel/abc/?a=1&b=2",
	})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if !embed.IsEmbed || embed.Type != models.PortfolioEmbed || embed.Platform != "instagram" || embed.EmbedURL != "https://www.instagram.com/reel/abc/?a=1&b=2" {
		t.Errorf("embed = %+v", embed)
	}

	list, _ := svc.List(ctx)
	if len(list) != 3 {
		t.Errorf("stored %d items, want 3", len(list))
	}
}

func TestPortfolioCreateRejects(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()
	svc := site.Services.Portfolio

	if got := fieldsOf(t, mustErr(svc.Create(ctx, siteservice.PortfolioInput{Title: "x", Category: "y"}))); got[0] != "image" {
		t.Errorf("neither: %v", got)
	}
	both := siteservice.PortfolioInput{Title: "x", Category: "y", EmbedURL: "https://vimeo.com/1", File: upload("a.png", "image/png", "p")}
	if got := fieldsOf(t, mustErr(svc.Create(ctx, both))); got[0] != "image" {
		t.Errorf("both: %v", got)
	}
	if got := fieldsOf(t, mustErr(svc.Create(ctx, siteservice.PortfolioInput{Title: "x", Category: "y", EmbedURL: "vimeo.com/1"}))); got[0] != "embedUrl" {
		t.Errorf("relative url: %v", got)
	}

	_, err := svc.Create(ctx, siteservice.PortfolioInput{Title: "x", Category: "y", File: upload("a.pdf", "application/pdf", "%PDF")})
	var ue *apperr.UploadError
	if !errors.As(err, &ue) {
		t.Errorf("pdf err = %v, want UploadError", err)
	}

	if list, _ := svc.List(ctx); len(list) != 0 {
		t.Errorf("rejected items stored: %+v", list)
	}
	entries, _ := os.ReadDir(filepath.Join(site.UploadsDir, "portfolio"))
	if len(entries) != 0 {
		t.Errorf("rejected upload written to disk: %d files", len(entries))
	}
}

func mustErr(_ models.PortfolioItem, err error) error { return err }

func TestPortfolioDeleteRemovesUpload(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()

	item, err := site.Services.Portfolio.Create(ctx, siteservice.PortfolioInput{Title: "x", Category: "y", File: upload("a.gif", "image/gif", "gif")})
	if err != nil {
		t.Fatal(err)
	}
	abs := filepath.Join(site.UploadsDir, "portfolio", filepath.Base(item.Image))
	if _, err := os.Stat(abs); err != nil {
		t.Fatalf("upload missing: %v", err)
	}
	if err := site.Services.Portfolio.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(abs); !os.IsNotExist(err) {
		t.Errorf("upload still on disk")
	}
	if err := site.Services.Portfolio.Delete(ctx, item.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestPortfolioDeleteOutsideUploadsDir(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()

	victim := filepath.Join(filepath.Dir(site.UploadsDir), "secret.txt")
	if err := os.WriteFile(victim, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	coll := store.Open[models.PortfolioItem](site.Store, models.CollectionPortfolio)
	if err := coll.Save([]models.PortfolioItem{{ID: 7, Title: "t", Category: "c", Type: "photo", Image: "/uploads/../secret.txt"}}); err != nil {
		t.Fatal(err)
	}

	if err := site.Services.Portfolio.Delete(ctx, 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, _ := coll.Load(); len(list) != 0 {
		t.Errorf("record not removed: %+v", list)
	}
	if _, err := os.Stat(victim); err != nil {
		t.Errorf("file outside uploads dir was removed: %v", err)
	}
}

func TestCatalogSeedAndUpdate(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()
	cat := site.Services.Catalog

	seeded, err := cat.Seed(ctx, siteservice.DefaultServices())
	if err != nil || !seeded {
		t.Fatalf("Seed = %v, %v", seeded, err)
	}
	if again, _ := cat.Seed(ctx, siteservice.DefaultServices()); again {
		t.Error("second seed rewrote the catalog")
	}

	updated, err := cat.Update(ctx, 2, siteservice.ServicePatch{Title: "Cinematic Films"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Cinematic Films" || updated.Description != siteservice.DefaultServices()[1].Description {
		t.Errorf("updated = %+v", updated)
	}
	if _, err := cat.Update(ctx, 99, siteservice.ServicePatch{Title: "Nope"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing id err = %v", err)
	}
	list, _ := cat.List(ctx)
	if len(list) != 4 {
		t.Errorf("catalog size = %d", len(list))
	}
}

func TestConcurrentCreatesAreAllStored(t *testing.T) {
	site := testutil.NewSite(t, now)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := site.Services.Testimonials.Create(ctx, siteservice.TestimonialInput{
				Name: "Guest", Text: fmt.Sprintf("Wonderful experience number %d", i), Rating: "4",
			})
			if err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	list, err := site.Services.Testimonials.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != n {
		t.Fatalf("stored %d, want %d", len(list), n)
	}
	seen := map[int64]bool{}
	for _, rec := range list {
		if seen[rec.ID] {
			t.Errorf("duplicate id %d", rec.ID)
		}
		seen[rec.ID] = true
	}
}
