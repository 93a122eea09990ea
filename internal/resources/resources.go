// Package resources implements MCP resource handlers for teamfit.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (teamfit://...) following MCP conventions.
package resources

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/teamfit/internal/config"
	"github.com/HendryAvila/teamfit/internal/roles"
)

const (
	RolesURI  = "teamfit://roles"
	ConfigURI = "teamfit://config"
)

// Handler serves the role table and the active configuration.
type Handler struct {
	resolver *roles.Resolver
	cfg      config.Config
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(resolver *roles.Resolver, cfg config.Config) *Handler {
	return &Handler{resolver: resolver, cfg: cfg}
}

// RolesResource returns the MCP resource definition for the role table.
func (h *Handler) RolesResource() mcp.Resource {
	return mcp.NewResource(
		RolesURI,
		"Role Table",
		mcp.WithResourceDescription("Canonical roles with their aliases, keywords and compatible fallback roles"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleRoles returns the active role table as JSON.
func (h *Handler) HandleRoles(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	table := h.resolver.Table()
	if table == nil {
		return errorResource(req.Params.URI, "no role table loaded"), nil
	}
	contents, err := jsonResource(req.Params.URI, table)
	if err != nil {
		return nil, fmt.Errorf("marshaling role table: %w", err)
	}
	return contents, nil
}

// ConfigResource returns the MCP resource definition for the configuration.
func (h *Handler) ConfigResource() mcp.Resource {
	return mcp.NewResource(
		ConfigURI,
		"teamfit Configuration",
		mcp.WithResourceDescription("Effective configuration: data directory, cache backend, role table file and default mode"),
		mcp.WithMIMEType("application/yaml"),
	)
}

// HandleConfig returns the effective configuration as YAML.
func (h *Handler) HandleConfig(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := yaml.Marshal(h.cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	text := fmt.Sprintf("# data_dir: %s\n%s", h.cfg.DataDir, data)
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/yaml",
			Text:     text,
		},
	}, nil
}
