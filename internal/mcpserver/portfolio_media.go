package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ceylonix/internal/media"
	"github.com/starford/ceylonix/internal/siteservice"
	"github.com/starford/ceylonix/internal/validate"
)

const maxFetchSize = validate.DefaultMaxUpload

// sniffedExt maps detected content types to the extension the upload is stored under.
var sniffedExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
}

func (s *Server) addPortfolioItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := siteservice.PortfolioInput{
		Title:       title,
		Category:    category,
		Description: req.GetString("description", ""),
		EmbedURL:    req.GetString("embed_url", ""),
	}

	if src := req.GetString("media_url", ""); src != "" {
		data, err := loadMedia(ctx, src)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ctype := strings.Split(http.DetectContentType(data), ";")[0]
		ext, ok := sniffedExt[ctype]
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported media content: %s (allowed: jpg, png, gif, webp, mp4)", ctype)), nil
		}
		in.File = &media.Upload{
			Filename:    uuid.NewString() + ext,
			ContentType: ctype,
			Size:        int64(len(data)),
			Body:        bytes.NewReader(data),
		}
	}

	item, err := s.svc.Portfolio.Create(ctx, in)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(item)
}

// loadMedia reads a base64 data URI or downloads an http(s) URL.
func loadMedia(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "data:") {
		return decodeDataURI(src)
	}
	return fetchHTTP(ctx, src)
}

// decodeDataURI parses a data:[<mediatype>];base64,<data> URI.
func decodeDataURI(uri string) ([]byte, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.Contains(rest[:commaIdx], ";base64") {
		return nil, fmt.Errorf("only base64 data URIs are supported")
	}
	encoded := rest[commaIdx+1:]
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	if len(data) > maxFetchSize {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", maxFetchSize)
	}
	return data, nil
}

// fetchHTTP downloads a file from an HTTP/HTTPS URL with security checks.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxFetchSize {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", maxFetchSize)
	}
	return data, nil
}

// checkBlockedHost rejects loopback, private and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return fmt.Errorf("blocked host: internal address %s", host)
	}
	return nil
}
