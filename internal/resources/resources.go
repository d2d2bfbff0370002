// Package resources implements MCP resource handlers for the research memory.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (scout://...) following MCP conventions.
package resources

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/scout/internal/domain"
	"github.com/HendryAvila/scout/internal/memory"
)

const (
	StatsURI   = "scout://memory/stats"
	DomainsURI = "scout://domains"
)

// Handler manages research resource endpoints.
type Handler struct {
	svc     *memory.Service
	domains *domain.Manager
}

// NewHandler creates a resource Handler. domains may be nil when only the
// stats resource is served.
func NewHandler(svc *memory.Service, domains *domain.Manager) *Handler {
	return &Handler{svc: svc, domains: domains}
}

// StatsResource returns the MCP resource definition for memory statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		StatsURI,
		"Research Memory Statistics",
		mcp.WithResourceDescription("Topic totals of the served domain and where they are stored"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the memory statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.svc.Stats(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, stats)
}

// DomainsResource returns the MCP resource definition for the domain list.
func (h *Handler) DomainsResource() mcp.Resource {
	return mcp.NewResource(
		DomainsURI,
		"Research Domains",
		mcp.WithResourceDescription("Every research domain, most recently used first"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleDomains returns the stored domains as JSON.
func (h *Handler) HandleDomains(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.domains == nil {
		return errorResource(req.Params.URI, "domain manager not configured"), nil
	}
	list, err := h.domains.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing domains: %w", err)
	}
	if list == nil {
		list = []memory.Domain{}
	}
	return jsonResource(req.Params.URI, list)
}
