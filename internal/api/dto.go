package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gorilla/schema"

	"github.com/starford/ceylonix/internal/siteservice"
)

// FlexString accepts a JSON string, number or boolean and keeps its text form,
// so clients may send rating: 5 or rating: "5".
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = FlexString(x)
	case float64:
		*f = FlexString(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*f = FlexString(strconv.FormatBool(x))
	default:
		return fmt.Errorf("expected a string or number")
	}
	return nil
}

func (f *FlexString) ptr() *string {
	if f == nil {
		return nil
	}
	s := string(*f)
	return &s
}

// FlexBool accepts true/false as JSON booleans or strings.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*f = FlexBool(x)
	case string:
		parsed, err := strconv.ParseBool(x)
		if err != nil {
			return fmt.Errorf("expected a boolean")
		}
		*f = FlexBool(parsed)
	default:
		return fmt.Errorf("expected a boolean")
	}
	return nil
}

// ContactRequest is the body of POST /contact.
type ContactRequest struct {
	Name    FlexString `json:"name" schema:"name"`
	Email   FlexString `json:"email" schema:"email"`
	Message FlexString `json:"message" schema:"message"`
}

func (r ContactRequest) input() siteservice.ContactInput {
	return siteservice.ContactInput{Name: string(r.Name), Email: string(r.Email), Message: string(r.Message)}
}

// BookingRequest is the body of POST /booking.
type BookingRequest struct {
	Name            FlexString `json:"name" schema:"name"`
	Email           FlexString `json:"email" schema:"email"`
	Phone           FlexString `json:"phone" schema:"phone"`
	ServiceType     FlexString `json:"serviceType" schema:"serviceType"`
	EventDate       FlexString `json:"eventDate" schema:"eventDate"`
	EventTime       FlexString `json:"eventTime" schema:"eventTime"`
	Duration        FlexString `json:"duration" schema:"duration"`
	Location        FlexString `json:"location" schema:"location"`
	GuestCount      FlexString `json:"guestCount" schema:"guestCount"`
	Budget          FlexString `json:"budget" schema:"budget"`
	SpecialRequests FlexString `json:"specialRequests" schema:"specialRequests"`
}

func (r BookingRequest) input() siteservice.BookingInput {
	return siteservice.BookingInput{
		Name:            string(r.Name),
		Email:           string(r.Email),
		Phone:           string(r.Phone),
		ServiceType:     string(r.ServiceType),
		EventDate:       string(r.EventDate),
		EventTime:       string(r.EventTime),
		Duration:        string(r.Duration),
		Location:        string(r.Location),
		GuestCount:      string(r.GuestCount),
		Budget:          string(r.Budget),
		SpecialRequests: string(r.SpecialRequests),
	}
}

// BookingStatusRequest is the body of PUT /bookings/{id}.
type BookingStatusRequest struct {
	Status FlexString `json:"status" schema:"status"`
}

// PortfolioRequest holds the text fields of POST /portfolio. The file, if any,
// arrives in the multipart field "image".
type PortfolioRequest struct {
	Title          FlexString `json:"title" schema:"title"`
	Category       FlexString `json:"category" schema:"category"`
	Type           FlexString `json:"type" schema:"type"`
	Description    FlexString `json:"description" schema:"description"`
	Platform       FlexString `json:"platform" schema:"platform"`
	EmbedURL       FlexString `json:"embedUrl" schema:"embedUrl"`
	ThumbnailImage FlexString `json:"thumbnailImage" schema:"thumbnailImage"`
}

func (r PortfolioRequest) input() siteservice.PortfolioInput {
	return siteservice.PortfolioInput{
		Title:          string(r.Title),
		Category:       string(r.Category),
		Type:           string(r.Type),
		Description:    string(r.Description),
		Platform:       string(r.Platform),
		EmbedURL:       string(r.EmbedURL),
		ThumbnailImage: string(r.ThumbnailImage),
	}
}

// TestimonialRequest is the body of POST /testimonials.
type TestimonialRequest struct {
	Name   FlexString `json:"name" schema:"name"`
	Role   FlexString `json:"role" schema:"role"`
	Text   FlexString `json:"text" schema:"text"`
	Rating FlexString `json:"rating" schema:"rating"`
}

func (r TestimonialRequest) input() siteservice.TestimonialInput {
	return siteservice.TestimonialInput{Name: string(r.Name), Role: string(r.Role), Text: string(r.Text), Rating: string(r.Rating)}
}

// TestimonialPatchRequest is the body of PUT /testimonials/{id}. Absent fields are unchanged.
type TestimonialPatchRequest struct {
	Name     *FlexString `json:"name" schema:"name"`
	Role     *FlexString `json:"role" schema:"role"`
	Text     *FlexString `json:"text" schema:"text"`
	Rating   *FlexString `json:"rating" schema:"rating"`
	Approved *FlexBool   `json:"approved" schema:"approved"`
}

func (r TestimonialPatchRequest) patch() siteservice.TestimonialPatch {
	p := siteservice.TestimonialPatch{
		Name:   r.Name.ptr(),
		Role:   r.Role.ptr(),
		Text:   r.Text.ptr(),
		Rating: r.Rating.ptr(),
	}
	if r.Approved != nil {
		b := bool(*r.Approved)
		p.Approved = &b
	}
	return p
}

// ServiceRequest is the body of PUT /services/{id}.
type ServiceRequest struct {
	Title       FlexString `json:"title" schema:"title"`
	Description FlexString `json:"description" schema:"description"`
}

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter(FlexString(""), func(s string) reflect.Value {
		return reflect.ValueOf(FlexString(s))
	})
	d.RegisterConverter(FlexBool(false), func(s string) reflect.Value {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(FlexBool(b))
	})
	return d
}

// maxFormMemory is the in-memory part of a multipart body; the rest spills to temp files.
const maxFormMemory = 8 << 20

// decodeBody fills dst from a JSON, urlencoded or multipart body.
func decodeBody(r *http.Request, dst any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(maxFormMemory); err != nil {
				return formError(err)
			}
		}
		return decodeForm(dst, r.MultipartForm.Value)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return formError(err)
		}
		return decodeForm(dst, r.PostForm)
	default:
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return err
			}
			return &bodyError{msg: "Invalid JSON body"}
		}
		return nil
	}
}

func decodeForm(dst any, values map[string][]string) error {
	if err := formDecoder.Decode(dst, values); err != nil {
		return &bodyError{msg: "Invalid form body"}
	}
	return nil
}

func formError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return err
	}
	return &bodyError{msg: "Invalid form body"}
}
