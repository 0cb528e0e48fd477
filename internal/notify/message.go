// Package notify formats submission emails and delivers them off the request path.
package notify

import (
	"bytes"
	"html"
	"strconv"
	"text/template"

	"github.com/starford/ceylonix/internal/models"
)

// Message is one outbound notification. HTML is built from already escaped
// record fields, so it is rendered with text/template. Subject is plain text
// and carries the unescaped name.
type Message struct {
	Subject string
	HTML    string
}

const footer = `<hr>
<p style="color: #666; font-size: 12px;">Sent from Ceylonix.CMB Website</p>`

var contactTmpl = template.Must(template.New("contact").Parse(`<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
` + footer))

var bookingTmpl = template.Must(template.New("booking").Parse(`<h2>New Booking Request</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Service Type:</strong> {{.ServiceType}}</p>
<p><strong>Event Date:</strong> {{.EventDate}}</p>
<p><strong>Event Time:</strong> {{or .EventTime "Not specified"}}</p>
<p><strong>Duration:</strong> {{or .Duration "Not specified"}}</p>
<p><strong>Location:</strong> {{or .Location "Not specified"}}</p>
<p><strong>Guest Count:</strong> {{or .GuestCount "Not specified"}}</p>
<p><strong>Budget:</strong> {{or .Budget "Not specified"}}</p>
<p><strong>Special Requests:</strong></p>
<p>{{or .SpecialRequests "None"}}</p>
` + footer))

// ContactMessage renders the notification for a new contact submission.
func ContactMessage(c models.Contact) (Message, error) {
	var buf bytes.Buffer
	if err := contactTmpl.Execute(&buf, c); err != nil {
		return Message{}, err
	}
	return Message{
		Subject: "New Contact Form Submission from " + html.UnescapeString(c.Name),
		HTML:    buf.String(),
	}, nil
}

type bookingView struct {
	models.Booking
	GuestCount string
}

// BookingMessage renders the notification for a new booking request.
func BookingMessage(b models.Booking) (Message, error) {
	view := bookingView{Booking: b}
	if b.GuestCount != nil {
		view.GuestCount = strconv.Itoa(*b.GuestCount)
	}
	var buf bytes.Buffer
	if err := bookingTmpl.Execute(&buf, view); err != nil {
		return Message{}, err
	}
	return Message{
		Subject: "New Booking Request from " + html.UnescapeString(b.Name),
		HTML:    buf.String(),
	}, nil
}
