package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"tenet/internal/feedback"
)

// FeedbackTool handles the tenet_feedback MCP tool: rating a logged
// activation so the stats show which reminders actually help.
type FeedbackTool struct {
	log *feedback.Store
}

// NewFeedbackTool creates a FeedbackTool. log may be nil — the tool is
// still registered so callers get a clear message instead of a missing
// tool.
func NewFeedbackTool(log *feedback.Store) *FeedbackTool {
	return &FeedbackTool{log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *FeedbackTool) Definition() mcp.Tool {
	return mcp.NewTool("tenet_feedback",
		mcp.WithDescription(
			"Rate a logged activation. tenet_check prints an activation id for "+
				"each reminder it logs — pass that id with a score from 1 (noise) "+
				"to 5 (exactly what was needed).",
		),
		mcp.WithNumber("activation_id",
			mcp.Required(),
			mcp.Description("The activation id printed by tenet_check."),
		),
		mcp.WithNumber("score",
			mcp.Required(),
			mcp.Description("Usefulness from 1 to 5."),
		),
		mcp.WithString("note",
			mcp.Description("Optional short note on why."),
		),
	)
}

// Handle processes the tenet_feedback tool call.
func (t *FeedbackTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.log == nil {
		return mcp.NewToolResultError("the activation log is disabled — feedback cannot be recorded"), nil
	}

	activationID := int64(req.GetFloat("activation_id", 0))
	score := int(req.GetFloat("score", 0))
	note := req.GetString("note", "")

	if activationID <= 0 {
		return mcp.NewToolResultError("'activation_id' is required — use the id printed by tenet_check"), nil
	}

	if err := t.log.Rate(activationID, score, note); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Feedback Recorded\n\nActivation #%d rated %d/5. Aggregate scores show up in `tenet_status`.",
		activationID, score,
	)), nil
}
