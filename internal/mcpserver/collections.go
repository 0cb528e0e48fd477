package mcpserver

// CollectionsGuide describes the site's collections for LLM consumers.
const CollectionsGuide = `# Ceylonix Site Collections

All free-text fields are stored HTML-escaped (& < > " ' become entities).
Timestamps are ISO-8601 UTC instants with milliseconds. Ids are integers.

## contacts
Contact form submissions. Fields: id, name, email, message, date, status ("new").
Read-only: use ` + "`list_contacts`" + `.

## bookings
Booking requests. Fields: id, name, email, phone, serviceType, eventDate, eventTime,
duration, location, guestCount, budget, specialRequests, date, status, updatedAt.
New bookings are "pending". Change status with ` + "`update_booking_status`" + `
(e.g. confirmed, cancelled, completed).

## portfolio
Gallery items. type is photo, video or embed. Uploaded media lives under /uploads/portfolio/
(or on the configured media host); embeds carry embedUrl and platform instead of image.
Manage with ` + "`list_portfolio`" + `, ` + "`add_portfolio_item`" + `, ` + "`delete_portfolio_item`" + `.

## testimonials
Client reviews. Fields: id, name, role, text, rating (1-5), createdAt, approved, updatedAt.
Only approved testimonials appear on the public site. Review pending ones with
` + "`list_testimonials`" + ` (pending_only=true) and publish with ` + "`set_testimonial_approval`" + `.

## services
The fixed service catalog (ids 1-4 by default). Only title and description can change,
via ` + "`update_service`" + `. Services are never created or deleted.
`
