package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"tenet/internal/plan"
	"tenet/internal/strategy"
)

// SignalTool handles the tenet_signal MCP tool. It advances the
// per-session state of a composite constraint: sequential steps,
// hierarchical level satisfaction, progressive level transitions, and
// layered progression.
type SignalTool struct {
	registry *plan.Registry
}

// NewSignalTool creates a SignalTool over the session registry.
func NewSignalTool(registry *plan.Registry) *SignalTool {
	return &SignalTool{registry: registry}
}

// Definition returns the MCP tool definition for registration.
func (t *SignalTool) Definition() mcp.Tool {
	return mcp.NewTool("tenet_signal",
		mcp.WithDescription(
			"Report progress on a composite constraint so the next tenet_check "+
				"serves the right step. Sequential composites advance on an explicit "+
				"signal with evidence (e.g. 'test now failing'). Hierarchical composites "+
				"mark a level satisfied. Progressive composites move to the next level "+
				"only — skipping levels is refused. Layered composites move to the next layer.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session whose composite state should change."),
		),
		mcp.WithString("constraint_id",
			mcp.Required(),
			mcp.Description("The composite constraint id, e.g. 'methodology.tdd'."),
		),
		mcp.WithString("signal",
			mcp.Required(),
			mcp.Description("One of: 'advance' (sequential step done or next layer), "+
				"'satisfy-level' (hierarchical level met), "+
				"'advance-to-level' (progressive transition)."),
		),
		mcp.WithString("evidence",
			mcp.Description("For sequential 'advance': what happened that completes "+
				"the current step. Required for sequential composites."),
		),
		mcp.WithNumber("level",
			mcp.Description("For 'satisfy-level' and 'advance-to-level': the level number."),
		),
	)
}

// Handle processes the tenet_signal tool call.
func (t *SignalTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	constraintID := req.GetString("constraint_id", "")
	signal := req.GetString("signal", "")
	evidence := req.GetString("evidence", "")
	level := int(req.GetFloat("level", 0))

	if sessionID == "" || constraintID == "" || signal == "" {
		return mcp.NewToolResultError("'session_id', 'constraint_id', and 'signal' are all required"), nil
	}

	st := t.registry.Session(sessionID).Get(constraintID)
	if st == nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"no active state for %q in session %q — run tenet_check first so the composite activates",
			constraintID, sessionID,
		)), nil
	}

	switch s := st.(type) {
	case *strategy.Sequential:
		if signal != "advance" {
			return mcp.NewToolResultError(fmt.Sprintf("%q is sequential — use signal 'advance'", constraintID)), nil
		}
		if err := s.Advance(evidence); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(sequentialStatus(constraintID, s)), nil

	case *strategy.Hierarchical:
		if signal != "satisfy-level" {
			return mcp.NewToolResultError(fmt.Sprintf("%q is hierarchical — use signal 'satisfy-level' with a level", constraintID)), nil
		}
		if err := s.MarkSatisfied(level); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if s.Exhausted() {
			return mcp.NewToolResultText(fmt.Sprintf(
				"# Level Satisfied\n\nAll %d levels of **%s** are satisfied.", s.LevelCount(), constraintID,
			)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"# Level Satisfied\n\nLevel %d of **%s** marked satisfied. The next tenet_check serves the lowest unsatisfied level.",
			level, constraintID,
		)), nil

	case *strategy.Progressive:
		if signal != "advance-to-level" {
			return mcp.NewToolResultError(fmt.Sprintf("%q is progressive — use signal 'advance-to-level' with a level", constraintID)), nil
		}
		if err := s.AdvanceToLevel(level); err != nil {
			// Skip refusals carry the expected level: surface them as
			// guidance, not faults.
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"# Level Advanced\n\n**%s** is now at level %d.\n**History:** %v\n",
			constraintID, s.CurrentLevel(), s.LevelHistory(),
		)), nil

	case *strategy.Layered:
		if signal != "advance" {
			return mcp.NewToolResultError(fmt.Sprintf("%q is layered — use signal 'advance' to move to the next layer", constraintID)), nil
		}
		if err := s.AdvanceLayer(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if s.Exhausted() {
			return mcp.NewToolResultText(fmt.Sprintf("# Layer Advanced\n\nAll layers of **%s** are done.", constraintID)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"# Layer Advanced\n\n**%s** is now on layer **%s**.", constraintID, s.CurrentLayer(),
		)), nil
	}

	return mcp.NewToolResultError(fmt.Sprintf("%q holds no signallable state", constraintID)), nil
}

func sequentialStatus(constraintID string, s *strategy.Sequential) string {
	var b strings.Builder
	b.WriteString("# Step Advanced\n\n")
	if s.Exhausted() {
		fmt.Fprintf(&b, "**%s** is complete — every step of the sequence has been signalled.\n", constraintID)
	} else {
		fmt.Fprintf(&b, "**%s** advanced to step %d.\n", constraintID, s.Index()+1)
	}
	if signals := s.Signals(); len(signals) > 0 {
		b.WriteString("\n**Signals so far:**\n")
		for i, sig := range signals {
			fmt.Fprintf(&b, "%d. %s\n", i+1, sig)
		}
	}
	return b.String()
}
