package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/siteservice"
	"github.com/starford/ceylonix/internal/testutil"
)

var now = time.Date(2026, 5, 1, 15, 0, 0, 0, testutil.Colombo)

func testServer(t *testing.T) (*Server, *testutil.Site) {
	t.Helper()
	site := testutil.NewSite(t, now)
	return New(site.Services), site
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_contacts":            srv.listContacts,
		"list_bookings":            srv.listBookings,
		"update_booking_status":    srv.updateBookingStatus,
		"list_testimonials":        srv.listTestimonials,
		"set_testimonial_approval": srv.setTestimonialApproval,
		"delete_testimonial":       srv.deleteTestimonial,
		"list_portfolio":           srv.listPortfolio,
		"add_portfolio_item":       srv.addPortfolioItem,
		"delete_portfolio_item":    srv.deletePortfolioItem,
		"list_services":            srv.listServices,
		"update_service":           srv.updateService,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decode[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	return v
}

func TestBookingTools(t *testing.T) {
	srv, site := testServer(t)
	b, err := site.Services.Bookings.Create(context.Background(), siteservice.BookingInput{
		Name: "Nimal Perera", Email: "nimal@example.com", Phone: "0771234567",
		ServiceType: "Wedding Photography", EventDate: "2026-07-01",
	})
	if err != nil {
		t.Fatal(err)
	}

	pending := decode[[]models.Booking](t, callTool(t, srv, "list_bookings", map[string]any{"status": "pending"}))
	if len(pending) != 1 {
		t.Fatalf("pending = %+v", pending)
	}

	updated := decode[models.Booking](t, callTool(t, srv, "update_booking_status", map[string]any{
		"id": float64(b.ID), "status": "confirmed",
	}))
	if updated.Status != "confirmed" {
		t.Errorf("status = %q", updated.Status)
	}

	if got := decode[[]models.Booking](t, callTool(t, srv, "list_bookings", map[string]any{"status": "pending"})); len(got) != 0 {
		t.Errorf("pending after confirm = %+v", got)
	}

	r := callTool(t, srv, "update_booking_status", map[string]any{"id": float64(1), "status": "confirmed"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("missing booking result = %q", resultText(r))
	}
}

func TestTestimonialApprovalTools(t *testing.T) {
	srv, site := testServer(t)
	created, err := site.Services.Testimonials.Create(context.Background(), siteservice.TestimonialInput{
		Name: "Jo Lee", Text: "Great service, highly recommend!", Rating: "5",
	})
	if err != nil {
		t.Fatal(err)
	}

	pending := decode[[]models.Testimonial](t, callTool(t, srv, "list_testimonials", map[string]any{"pending_only": true}))
	if len(pending) != 1 || pending[0].ID != created.ID {
		t.Fatalf("pending = %+v", pending)
	}

	approved := decode[models.Testimonial](t, callTool(t, srv, "set_testimonial_approval", map[string]any{
		"id": float64(created.ID), "approved": true,
	}))
	if !approved.Approved {
		t.Error("testimonial not approved")
	}
	if got := decode[[]models.Testimonial](t, callTool(t, srv, "list_testimonials", map[string]any{"pending_only": true})); len(got) != 0 {
		t.Errorf("pending after approval = %+v", got)
	}

	if r := callTool(t, srv, "delete_testimonial", map[string]any{"id": float64(created.ID)}); r.IsError {
		t.Fatalf("delete: %s", resultText(r))
	}
	if r := callTool(t, srv, "delete_testimonial", map[string]any{"id": float64(created.ID)}); !r.IsError {
		t.Error("second delete should fail")
	}
}

func TestAddPortfolioItemFromDataURI(t *testing.T) {
	srv, _ := testServer(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	item := decode[models.PortfolioItem](t, callTool(t, srv, "add_portfolio_item", map[string]any{
		"title":     "Sunset",
		"category":  "wedding",
		"media_url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}))
	if item.Type != models.PortfolioPhoto || !strings.HasSuffix(item.Image, ".png") {
		t.Errorf("item = %+v", item)
	}

	if r := callTool(t, srv, "delete_portfolio_item", map[string]any{"id": float64(item.ID)}); r.IsError {
		t.Fatalf("delete: %s", resultText(r))
	}
	if got := decode[[]models.PortfolioItem](t, callTool(t, srv, "list_portfolio", nil)); len(got) != 0 {
		t.Errorf("portfolio = %+v", got)
	}
}

func TestAddPortfolioItemRejects(t *testing.T) {
	srv, _ := testServer(t)

	cases := map[string]map[string]any{
		"pdf content": {
			"title": "Doc", "category": "misc",
			"media_url": "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 test")),
		},
		"loopback url": {"title": "Local", "category": "misc", "media_url": "http://127.0.0.1/a.png"},
		"nothing":      {"title": "Empty", "category": "misc"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if r := callTool(t, srv, "add_portfolio_item", args); !r.IsError {
				t.Errorf("accepted: %s", resultText(r))
			}
		})
	}
}

func TestAddPortfolioEmbed(t *testing.T) {
	srv, _ := testServer(t)
	item := decode[models.PortfolioItem](t, callTool(t, srv, "add_portfolio_item", map[string]any{
		"title": "Reel", "category": "social", "embed_url": "https://www.youtube.com/watch?v=abc",
	}))
	if !item.IsEmbed || item.Platform != "youtube" {
		t.Errorf("item = %+v", item)
	}
}

func TestServiceTools(t *testing.T) {
	srv, site := testServer(t)
	if _, err := site.Services.Catalog.Seed(context.Background(), siteservice.DefaultServices()); err != nil {
		t.Fatal(err)
	}

	list := decode[[]models.Service](t, callTool(t, srv, "list_services", nil))
	if len(list) != 4 {
		t.Fatalf("services = %d", len(list))
	}

	updated := decode[models.Service](t, callTool(t, srv, "update_service", map[string]any{
		"id": float64(2), "title": "Films",
	}))
	if updated.Title != "Films" || updated.Description != list[1].Description {
		t.Errorf("updated = %+v", updated)
	}

	r := callTool(t, srv, "update_service", map[string]any{"id": float64(2), "title": "x"})
	if !r.IsError || !strings.Contains(resultText(r), "title") {
		t.Errorf("short title result = %q", resultText(r))
	}
	if r := callTool(t, srv, "update_service", map[string]any{"id": float64(2)}); !r.IsError {
		t.Error("empty update accepted")
	}
	if r := callTool(t, srv, "update_service", map[string]any{"id": 2.5, "title": "Films"}); !r.IsError {
		t.Error("fractional id accepted")
	}
}

func TestListContacts(t *testing.T) {
	srv, site := testServer(t)
	if _, err := site.Services.Contacts.Create(context.Background(), siteservice.ContactInput{
		Name: "Jo Lee", Email: "jo@example.com", Message: "Please send your rates",
	}); err != nil {
		t.Fatal(err)
	}
	list := decode[[]models.Contact](t, callTool(t, srv, "list_contacts", nil))
	if len(list) != 1 || list[0].Email != "jo@example.com" {
		t.Errorf("contacts = %+v", list)
	}
}

func TestCollectionsResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readCollectionsResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != collectionsURI || !strings.Contains(tc.Text, "## testimonials") {
		t.Errorf("resource = %+v", contents)
	}
}
