package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/starford/ceylonix/internal/apperr"
	"github.com/starford/ceylonix/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestContactMessage(t *testing.T) {
	msg, err := ContactMessage(models.Contact{Name: "Jo Lee", Email: "jo@example.com", Message: "Hello &amp; hi"})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Subject != "New Contact Form Submission from Jo Lee" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{
		"<p><strong>Name:</strong> Jo Lee</p>",
		"<p>Hello &amp; hi</p>",
		"Sent from Ceylonix.CMB Website",
	} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html missing %q:\n%s", want, msg.HTML)
		}
	}
}

func TestSubjectsCarryPlainNames(t *testing.T) {
	contact, err := ContactMessage(models.Contact{Name: "Sean O&#039;Brien"})
	if err != nil {
		t.Fatal(err)
	}
	if contact.Subject != "New Contact Form Submission from Sean O'Brien" {
		t.Errorf("contact subject = %q", contact.Subject)
	}
	if !strings.Contains(contact.HTML, "Sean O&#039;Brien") {
		t.Errorf("html body lost escaping:\n%s", contact.HTML)
	}

	booking, err := BookingMessage(models.Booking{Name: "Tom &amp; Ana"})
	if err != nil {
		t.Fatal(err)
	}
	if booking.Subject != "New Booking Request from Tom & Ana" {
		t.Errorf("booking subject = %q", booking.Subject)
	}
}

func TestBookingMessageFallbacks(t *testing.T) {
	guests := 80
	msg, err := BookingMessage(models.Booking{
		Name: "Ana", Email: "ana@example.com", Phone: "0771234567",
		ServiceType: "Wedding Photography", EventDate: "2027-01-10", GuestCount: &guests,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"<p><strong>Event Time:</strong> Not specified</p>",
		"<p><strong>Guest Count:</strong> 80</p>",
		"<p>None</p>",
	} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if msg.Subject != "New Booking Request from Ana" {
		t.Errorf("subject = %q", msg.Subject)
	}
}

type flakySender struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     chan Message
}

func (f *flakySender) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("smtp down")
	}
	f.sent <- msg
	return nil
}

func TestDispatcherRetriesUntilDelivered(t *testing.T) {
	sender := &flakySender{failures: 2, sent: make(chan Message, 1)}
	d := NewDispatcher(sender, DispatcherOptions{QueueSize: 1, MaxAttempts: 3, RetryDelay: time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	if err := d.Notify(Message{Subject: "hello"}); err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-sender.sent:
		if msg.Subject != "hello" {
			t.Errorf("subject = %q", msg.Subject)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
	cancel()
	<-done

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.calls != 3 {
		t.Errorf("calls = %d, want 3", sender.calls)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(LogSender{}, DispatcherOptions{QueueSize: 1}, nil)
	if err := d.Notify(Message{Subject: "a"}); err != nil {
		t.Fatal(err)
	}
	err := d.Notify(Message{Subject: "b"})
	if !errors.Is(err, apperr.ErrNotification) {
		t.Errorf("err = %v, want ErrNotification", err)
	}
}
