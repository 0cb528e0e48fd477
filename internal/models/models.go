// Package models defines the records persisted by the site collections.
package models

// Collection names double as the backing file stems (contacts.json, ...).
const (
	CollectionContacts     = "contacts"
	CollectionBookings     = "bookings"
	CollectionPortfolio    = "portfolio"
	CollectionTestimonials = "testimonials"
	CollectionServices     = "services"
)

// Record is implemented by every persisted entity.
type Record interface {
	RecordID() int64
}

// Contact is a contact-form submission.
type Contact struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Status  string `json:"status"`
}

// Booking is a booking request. Optional fields are omitted when not supplied.
type Booking struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ServiceType     string `json:"serviceType"`
	EventDate       string `json:"eventDate"`
	EventTime       string `json:"eventTime,omitempty"`
	Duration        string `json:"duration,omitempty"`
	Location        string `json:"location,omitempty"`
	GuestCount      *int   `json:"guestCount,omitempty"`
	Budget          string `json:"budget,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
	Date            string `json:"date"`
	Status          string `json:"status"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// Portfolio item types.
const (
	PortfolioPhoto = "photo"
	PortfolioVideo = "video"
	PortfolioEmbed = "embed"
)

// PortfolioItem is either an uploaded media file or an embedded post.
type PortfolioItem struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	Type           string `json:"type"`
	Description    string `json:"description"`
	Image          string `json:"image,omitempty"`
	ThumbnailImage string `json:"thumbnailImage,omitempty"`
	Platform       string `json:"platform,omitempty"`
	EmbedURL       string `json:"embedUrl,omitempty"`
	IsEmbed        bool   `json:"isEmbed"`
	CreatedAt      string `json:"createdAt"`
	// Media identifies remotely stored uploads so they can be removed later.
	Media *MediaRef `json:"media,omitempty"`
}

// MediaRef locates an upload held by a remote media backend.
type MediaRef struct {
	Backend      string `json:"backend"`
	PublicID     string `json:"publicId"`
	ResourceType string `json:"resourceType,omitempty"`
}

// Testimonial is a client review awaiting or holding approval.
type Testimonial struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Rating    int    `json:"rating"`
	CreatedAt string `json:"createdAt"`
	Approved  bool   `json:"approved"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Service is one of the studio's fixed offerings.
type Service struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

func (c Contact) RecordID() int64       { return c.ID }
func (b Booking) RecordID() int64       { return b.ID }
func (p PortfolioItem) RecordID() int64 { return p.ID }
func (t Testimonial) RecordID() int64   { return t.ID }
func (s Service) RecordID() int64       { return s.ID }
