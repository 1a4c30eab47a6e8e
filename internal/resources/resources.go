// Package resources implements MCP resource handlers for the
// constraint engine.
//
// Resources provide read-only data the host can consume for context.
// They use URI-based addressing (tenet://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"tenet/internal/constraint"
)

// Handler serves the constraint library as MCP resources.
type Handler struct {
	lib *constraint.Library
}

// NewHandler creates a resource Handler over the loaded library.
func NewHandler(lib *constraint.Library) *Handler {
	return &Handler{lib: lib}
}

// libraryView is the serialized shape of the library resource.
type libraryView struct {
	TotalConstraints int                     `json:"total_constraints"`
	Atomics          []*constraint.Atomic    `json:"atomics"`
	Composites       []*constraint.Composite `json:"composites"`
}

// LibraryResource returns the MCP resource definition for the loaded
// constraint library.
func (h *Handler) LibraryResource() mcp.Resource {
	return mcp.NewResource(
		"tenet://library",
		"Constraint Library",
		mcp.WithResourceDescription("Every loaded constraint: atomics with their triggers and reminders, composites with their composition metadata"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleLibrary returns the full library as JSON.
func (h *Handler) HandleLibrary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view := libraryView{
		TotalConstraints: h.lib.TotalConstraints(),
		Atomics:          h.lib.Atomics(),
		Composites:       h.lib.Composites(),
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling library: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
