// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ceylonix admin tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ceylonix/internal/apperr"
	"github.com/starford/ceylonix/internal/models"
	"github.com/starford/ceylonix/internal/siteservice"
)

const collectionsURI = "ceylonix://collections"

// Server wraps the MCP server with Ceylonix tools.
type Server struct {
	mcp *server.MCPServer
	svc *siteservice.Services
}

// New creates a new MCP server with all Ceylonix tools registered.
func New(svc *siteservice.Services) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ceylonix",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_contacts",
		mcp.WithDescription("List contact form submissions, oldest first."),
	), s.listContacts)

	s.mcp.AddTool(mcp.NewTool("list_bookings",
		mcp.WithDescription("List booking requests, optionally filtered by status."),
		mcp.WithString("status", mcp.Description("Only return bookings with this status (e.g. pending, confirmed)")),
	), s.listBookings)

	s.mcp.AddTool(mcp.NewTool("update_booking_status",
		mcp.WithDescription("Set the status of a booking request."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Booking id")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status, e.g. confirmed, cancelled, completed")),
	), s.updateBookingStatus)

	s.mcp.AddTool(mcp.NewTool("list_testimonials",
		mcp.WithDescription("List testimonials. By default both approved and pending are returned."),
		mcp.WithBoolean("pending_only", mcp.Description("Only return testimonials awaiting approval")),
	), s.listTestimonials)

	s.mcp.AddTool(mcp.NewTool("set_testimonial_approval",
		mcp.WithDescription("Approve or hide a testimonial on the public site."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Testimonial id")),
		mcp.WithBoolean("approved", mcp.Required(), mcp.Description("true to publish, false to hide")),
	), s.setTestimonialApproval)

	s.mcp.AddTool(mcp.NewTool("delete_testimonial",
		mcp.WithDescription("Delete a testimonial."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Testimonial id")),
	), s.deleteTestimonial)

	s.mcp.AddTool(mcp.NewTool("list_portfolio",
		mcp.WithDescription("List portfolio items, photos, videos and embedded posts."),
	), s.listPortfolio)

	s.mcp.AddTool(mcp.NewTool("add_portfolio_item",
		mcp.WithDescription("Add a portfolio item. Supply either media_url (an http(s) URL or base64 data URI "+
			"of a jpg, png, gif, webp or mp4 file) or embed_url (an Instagram, TikTok, YouTube or similar post)."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Item title")),
		mcp.WithString("category", mcp.Required(), mcp.Description("Gallery category, e.g. wedding")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("media_url", mcp.Description("Source of the media file to upload")),
		mcp.WithString("embed_url", mcp.Description("Absolute URL of a social post to embed")),
	), s.addPortfolioItem)

	s.mcp.AddTool(mcp.NewTool("delete_portfolio_item",
		mcp.WithDescription("Delete a portfolio item and its uploaded media."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Portfolio item id")),
	), s.deletePortfolioItem)

	s.mcp.AddTool(mcp.NewTool("list_services",
		mcp.WithDescription("List the studio's service catalog."),
	), s.listServices)

	s.mcp.AddTool(mcp.NewTool("update_service",
		mcp.WithDescription("Change the title and/or description of a service. Omitted fields are kept."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Service id")),
		mcp.WithString("title", mcp.Description("New title, 2-100 characters")),
		mcp.WithString("description", mcp.Description("New description, 10-1000 characters")),
	), s.updateService)

	s.mcp.AddResource(
		mcp.NewResource(collectionsURI, "Site Collections",
			mcp.WithResourceDescription("The collections managed by the studio site and their record fields."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCollectionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// errorResult turns a service error into a tool error, spelling out field violations.
func errorResult(err error) *mcp.CallToolResult {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		msg := "invalid input:"
		for _, fe := range ve.Errors {
			msg += fmt.Sprintf("\n- %s: %s", fe.Field, fe.Message)
		}
		return mcp.NewToolResultError(msg)
	}
	return mcp.NewToolResultError(err.Error())
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	f, err := req.RequireFloat("id")
	if err != nil {
		return 0, err
	}
	id := int64(f)
	if id <= 0 || float64(id) != f {
		return 0, fmt.Errorf("id must be a positive integer")
	}
	return id, nil
}

func (s *Server) listContacts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Contacts.List(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(list)
}

func (s *Server) listBookings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Bookings.List(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if status := req.GetString("status", ""); status != "" {
		filtered := make([]models.Booking, 0, len(list))
		for _, b := range list {
			if b.Status == status {
				filtered = append(filtered, b)
			}
		}
		list = filtered
	}
	return jsonResult(list)
}

func (s *Server) updateBookingStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.svc.Bookings.UpdateStatus(ctx, id, status)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(b)
}

func (s *Server) listTestimonials(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Testimonials.List(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if req.GetBool("pending_only", false) {
		pending := make([]models.Testimonial, 0, len(list))
		for _, t := range list {
			if !t.Approved {
				pending = append(pending, t)
			}
		}
		list = pending
	}
	return jsonResult(list)
}

func (s *Server) setTestimonialApproval(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	approved, err := req.RequireBool("approved")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.svc.Testimonials.Update(ctx, id, siteservice.TestimonialPatch{Approved: &approved})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(t)
}

func (s *Server) deleteTestimonial(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Testimonials.Delete(ctx, id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted testimonial %d", id)), nil
}

func (s *Server) listPortfolio(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Portfolio.List(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(list)
}

func (s *Server) deletePortfolioItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Portfolio.Delete(ctx, id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted portfolio item %d", id)), nil
}

func (s *Server) listServices(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Catalog.List(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(list)
}

func (s *Server) updateService(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch := siteservice.ServicePatch{
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
	}
	if patch.Title == "" && patch.Description == "" {
		return mcp.NewToolResultError("title or description is required"), nil
	}
	svc, err := s.svc.Catalog.Update(ctx, id, patch)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(svc)
}

func (s *Server) readCollectionsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      collectionsURI,
			MIMEType: "text/markdown",
			Text:     CollectionsGuide,
		},
	}, nil
}
