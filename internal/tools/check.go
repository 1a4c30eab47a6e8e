package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"tenet/internal/feedback"
	"tenet/internal/plan"
	"tenet/internal/trigger"
)

// CheckTool handles the tenet_check MCP tool. It is the workhorse of
// the engine: it classifies the session context, matches constraint
// triggers against it, and assembles the reminder plan for the session.
type CheckTool struct {
	analyzer *trigger.Analyzer
	matcher  *trigger.Matcher
	builder  *plan.Builder
	registry *plan.Registry
	log      *feedback.Store
}

// NewCheckTool creates a CheckTool. log may be nil — activations are
// then served without being persisted.
func NewCheckTool(analyzer *trigger.Analyzer, matcher *trigger.Matcher, builder *plan.Builder, registry *plan.Registry, log *feedback.Store) *CheckTool {
	return &CheckTool{analyzer: analyzer, matcher: matcher, builder: builder, registry: registry, log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *CheckTool) Definition() mcp.Tool {
	return mcp.NewTool("tenet_check",
		mcp.WithDescription(
			"Check the current working context against the constraint library and "+
				"return the methodology reminders that apply right now. "+
				"Call this before starting a task, after switching activities, or "+
				"whenever you want to know which practices are due. "+
				"Composite constraints keep per-session state: repeated calls with the "+
				"same session_id walk sequences step by step instead of repeating them.",
		),
		mcp.WithString("text",
			mcp.Description("What is being worked on, in the user's or assistant's words. "+
				"Keywords are extracted from this to classify the activity."),
		),
		mcp.WithString("files",
			mcp.Description("Files being touched, comma- or newline-separated. "+
				"Matched against constraint file patterns."),
		),
		mcp.WithString("activity",
			mcp.Description("Recent actions, comma- or newline-separated "+
				"(e.g. 'ran tests, edited handler'). The most recent action last."),
		),
		mcp.WithString("session_id",
			mcp.Description("Stable identifier for the working session. "+
				"Composite progress (TDD step, refactoring level) is tracked per session. "+
				"Defaults to 'default'."),
		),
	)
}

// Handle processes the tenet_check tool call.
func (t *CheckTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	files := splitList(req.GetString("files", ""))
	actions := splitList(req.GetString("activity", ""))
	sessionID := req.GetString("session_id", "default")

	if strings.TrimSpace(text) == "" && len(files) == 0 && len(actions) == 0 {
		return mcp.NewToolResultError("provide at least one of 'text', 'files', or 'activity' — there is nothing to classify"), nil
	}

	sc := t.analyzer.Analyze(trigger.Snapshot{
		Text:          text,
		Files:         files,
		RecentActions: actions,
	})

	if sc.Type == trigger.ContextUnclear {
		return mcp.NewToolResultText(
			"# Methodology Reminders\n\n" +
				"**Context:** unclear\n\n" +
				"The signals were too weak to classify the activity, so no reminders " +
				"were activated. Describe the task in more detail, or include the files " +
				"being changed.",
		), nil
	}

	candidates := t.matcher.Match(sc)
	p := t.builder.Build(ctx, candidates, t.registry.Session(sessionID))

	var b strings.Builder
	b.WriteString("# Methodology Reminders\n\n")
	fmt.Fprintf(&b, "**Context:** %s\n", sc.Type)
	if len(sc.Keywords) > 0 {
		fmt.Fprintf(&b, "**Keywords:** %s\n", strings.Join(sc.Keywords, ", "))
	}
	fmt.Fprintf(&b, "**Session:** `%s`\n\n", sessionID)

	if len(p.Activations) == 0 {
		b.WriteString("No constraints are due right now.\n")
	} else {
		b.WriteString("## Active\n\n")
		logged := t.recordActivations(sessionID, p)
		for i, act := range p.Activations {
			fmt.Fprintf(&b, "%d. **%s** — %s _(%s)_\n", i+1, act.ConstraintID, act.Reminder, act.Reason)
			if id, ok := logged[act.ConstraintID]; ok {
				fmt.Fprintf(&b, "   logged as activation #%d — rate it with `tenet_feedback`\n", id)
				delete(logged, act.ConstraintID)
			}
		}
	}

	if len(p.Skipped) > 0 {
		b.WriteString("\n## Skipped\n\n")
		for _, sk := range p.Skipped {
			fmt.Fprintf(&b, "- **%s**: %s\n", sk.ConstraintID, sk.Reason)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

// recordActivations logs one record per distinct constraint in the plan
// and returns the record ids. Logging failures are swallowed: the
// feedback store is an optional subsystem and must never block serving.
func (t *CheckTool) recordActivations(sessionID string, p *plan.Plan) map[string]int64 {
	logged := make(map[string]int64)
	if t.log == nil {
		return logged
	}
	for _, act := range p.Activations {
		if _, done := logged[act.ConstraintID]; done {
			continue
		}
		id, err := t.log.RecordActivation(sessionID, act.ConstraintID, string(act.Reason))
		if err != nil {
			continue
		}
		logged[act.ConstraintID] = id
	}
	return logged
}
