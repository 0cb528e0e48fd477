package siteservice

import (
	"regexp"
	"time"

	"github.com/starford/ceylonix/internal/validate"
)

var (
	nameRe   = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	statusRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z _-]*$`)
)

func startOfDay(now time.Time, loc *time.Location) time.Time {
	return validate.StartOfDay(now, loc)
}

func nameField(label string) validate.Field {
	return validate.Field{Name: "name", Label: label, Required: true, Checks: []validate.Check{
		validate.Length(2, 100, "Name must be between 2 and 100 characters"),
		validate.Pattern(nameRe, "Name can only contain letters, spaces, hyphens, and apostrophes"),
	}}
}

func emailField(label string) validate.Field {
	return validate.Field{Name: "email", Label: label, Required: true, Checks: []validate.Check{
		validate.Email("Please provide a valid email address"),
		validate.Length(0, 254, "Email must not exceed 254 characters"),
	}}
}

var contactSchema = validate.Schema{
	nameField("Name"),
	emailField("Email"),
	{Name: "message", Label: "Message", Required: true, Checks: []validate.Check{
		validate.Length(10, 1000, "Message must be between 10 and 1000 characters"),
	}},
}

func bookingSchema(today func() time.Time) validate.Schema {
	return validate.Schema{
		nameField("Full Name"),
		emailField("Email Address"),
		{Name: "phone", Label: "Phone Number", Required: true, Checks: []validate.Check{
			validate.MinDigits(7, "Please provide a valid phone number"),
			validate.Length(0, 30, "Phone number must not exceed 30 characters"),
		}},
		{Name: "serviceType", Label: "Service Type", Required: true, Checks: []validate.Check{
			validate.Length(1, 50, "Service type must not exceed 50 characters"),
		}},
		{Name: "eventDate", Label: "Event Date", Required: true, Checks: []validate.Check{
			validate.ISODate("Invalid date format"),
			validate.NotBefore(today, "Event Date must be in the future"),
		}},
		{Name: "eventTime", Label: "Event Time", Checks: []validate.Check{
			validate.Clock("Invalid time format"),
		}},
		{Name: "duration", Label: "Duration", Checks: []validate.Check{
			validate.Length(0, 50, "Duration must not exceed 50 characters"),
		}},
		{Name: "location", Label: "Location", Checks: []validate.Check{
			validate.Length(0, 200, "Location must not exceed 200 characters"),
		}},
		{Name: "guestCount", Label: "Guest Count", Checks: []validate.Check{
			validate.IntRange(1, 100000, "Guest count must be a number between 1 and 100000"),
		}},
		{Name: "budget", Label: "Budget", Checks: []validate.Check{
			validate.Length(0, 100, "Budget must not exceed 100 characters"),
		}},
		{Name: "specialRequests", Label: "Special Requests", Checks: []validate.Check{
			validate.Length(0, 500, "Special requests must not exceed 500 characters"),
		}},
	}
}

var bookingStatusSchema = validate.Schema{
	{Name: "status", Label: "Status", Required: true, Checks: []validate.Check{
		validate.Length(1, 30, "Status must be between 1 and 30 characters"),
		validate.Pattern(statusRe, "Status can only contain letters, spaces, hyphens, and underscores"),
	}},
}

var testimonialSchema = validate.Schema{
	nameField("Name"),
	{Name: "role", Label: "Role", Checks: []validate.Check{
		validate.Length(0, 100, "Role must not exceed 100 characters"),
	}},
	{Name: "text", Label: "Testimonial", Required: true, Checks: []validate.Check{
		validate.Length(10, 500, "Testimonial must be between 10 and 500 characters"),
	}},
	{Name: "rating", Label: "Rating", Required: true, Checks: []validate.Check{
		validate.IntRange(1, 5, "Rating must be between 1 and 5"),
	}},
}

var portfolioSchema = validate.Schema{
	{Name: "title", Label: "Title", Required: true, Checks: []validate.Check{
		validate.Length(1, 100, "Title must be between 1 and 100 characters"),
	}},
	{Name: "category", Label: "Category", Required: true, Checks: []validate.Check{
		validate.Length(1, 50, "Category must be between 1 and 50 characters"),
	}},
	{Name: "type", Label: "Type", Checks: []validate.Check{
		validate.OneOf([]string{"photo", "video", "embed"}, "Invalid type value"),
	}},
	{Name: "description", Label: "Description", Checks: []validate.Check{
		validate.Length(0, 500, "Description must not exceed 500 characters"),
	}},
	{Name: "platform", Label: "Platform", Checks: []validate.Check{
		validate.Length(0, 50, "Platform must not exceed 50 characters"),
	}},
	{Name: "embedUrl", Label: "Embed URL", Checks: []validate.Check{
		validate.AbsoluteURL("Invalid URL format for embedUrl"),
	}},
	{Name: "thumbnailImage", Label: "Thumbnail", Checks: []validate.Check{
		validate.AbsoluteURL("Invalid URL format for thumbnailImage"),
	}},
}

var serviceSchema = validate.Schema{
	{Name: "title", Label: "Title", Checks: []validate.Check{
		validate.Length(2, 100, "Title must be between 2 and 100 characters"),
	}},
	{Name: "description", Label: "Description", Checks: []validate.Check{
		validate.Length(10, 1000, "Description must be between 10 and 1000 characters"),
	}},
}
