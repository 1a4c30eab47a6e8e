package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"tenet/internal/constraint"
	"tenet/internal/feedback"
	"tenet/internal/plan"
)

// StatusTool handles the tenet_status MCP tool: a read-only view of the
// constraint library, session state, and activation statistics.
type StatusTool struct {
	lib      *constraint.Library
	registry *plan.Registry
	log      *feedback.Store
}

// NewStatusTool creates a StatusTool. log may be nil.
func NewStatusTool(lib *constraint.Library, registry *plan.Registry, log *feedback.Store) *StatusTool {
	return &StatusTool{lib: lib, registry: registry, log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("tenet_status",
		mcp.WithDescription(
			"Show the loaded constraint library, composite progress for a session, "+
				"and activation statistics. Read-only — changes nothing.",
		),
		mcp.WithString("session_id",
			mcp.Description("If set, include this session's composite state "+
				"(which sequences and levels are in progress)."),
		),
	)
}

// Handle processes the tenet_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")

	var b strings.Builder
	b.WriteString("# Constraint Engine Status\n\n")

	atomics := t.lib.Atomics()
	composites := t.lib.Composites()
	fmt.Fprintf(&b, "**Library:** %d constraints (%d atomic, %d composite)\n",
		t.lib.TotalConstraints(), len(atomics), len(composites))
	fmt.Fprintf(&b, "**Active sessions:** %d\n\n", t.registry.Count())

	if len(composites) > 0 {
		b.WriteString("## Composites\n\n")
		for _, c := range composites {
			fmt.Fprintf(&b, "- **%s** (%s, %d components) — %s\n",
				c.ID, c.Composition, len(c.Components), c.Title)
		}
		b.WriteString("\n")
	}

	if len(atomics) > 0 {
		b.WriteString("## Atomics\n\n")
		for _, a := range atomics {
			fmt.Fprintf(&b, "- **%s** (priority %.2f) — %s\n", a.ID, a.Priority, a.Title)
		}
		b.WriteString("\n")
	}

	if sessionID != "" {
		b.WriteString(fmt.Sprintf("## Session `%s`\n\n", sessionID))
		states := t.registry.Session(sessionID).States()
		if len(states) == 0 {
			b.WriteString("No composite state yet — nothing has activated in this session.\n\n")
		} else {
			ids := make([]string, 0, len(states))
			for id := range states {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				marker := "in progress"
				if states[id] {
					marker = "complete"
				}
				fmt.Fprintf(&b, "- **%s**: %s\n", id, marker)
			}
			b.WriteString("\n")
		}
	}

	if t.log != nil {
		stats, err := t.log.Stats()
		if err == nil {
			fmt.Fprintf(&b, "## Activation Log\n\n**Sessions:** %d\n**Activations:** %d\n",
				stats.TotalSessions, stats.TotalActivations)
			for _, cs := range stats.PerConstraint {
				line := fmt.Sprintf("- **%s**: %d activations", cs.ConstraintID, cs.Activations)
				if cs.AverageScore != nil {
					line += fmt.Sprintf(", avg score %.1f over %d ratings", *cs.AverageScore, cs.Rated)
				}
				b.WriteString(line + "\n")
			}
		}
	} else {
		b.WriteString("## Activation Log\n\nDisabled — activations are not persisted.\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}
