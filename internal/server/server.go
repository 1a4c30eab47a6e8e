// Package server wires all MCP components and creates the server
// instance.
//
// This is the composition root: it loads the constraint library,
// builds the trigger and planning pipeline, and injects them into the
// tools and resources. No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"tenet/internal/config"
	"tenet/internal/constraint"
	"tenet/internal/feedback"
	"tenet/internal/plan"
	"tenet/internal/resolve"
	"tenet/internal/resources"
	"tenet/internal/tools"
	"tenet/internal/trigger"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Environment variables read at startup.
const (
	// EnvPack points at a YAML pack file or a directory of pack files.
	// Unset means the built-in default library.
	EnvPack = "TENET_PACK"
	// EnvDataDir overrides where the activation log database lives.
	EnvDataDir = "TENET_DATA_DIR"
)

// New creates and configures the MCP server with all tools and
// resources registered. This is the single place where dependencies
// are resolved.
//
// The returned cleanup function closes the activation log's database
// connection and must be called on shutdown (typically via defer). It
// is always non-nil and safe to call even if the log init failed.
func New() (*server.MCPServer, func(), error) {
	lib, err := loadLibrary()
	if err != nil {
		return nil, noop, fmt.Errorf("loading constraint library: %w", err)
	}

	resolver := resolve.New(lib)
	analyzer := trigger.NewAnalyzer()
	matcher := trigger.NewMatcher(lib)
	builder := plan.NewBuilder(resolver, plan.Config{})
	registry := plan.NewRegistry()

	// The activation log is an independent subsystem: if it fails to
	// initialize, the engine keeps serving reminders without
	// persistence. We log a warning and pass a nil store to the tools.
	cleanup := noop
	logCfg := feedback.DefaultConfig()
	if dir := os.Getenv(EnvDataDir); dir != "" {
		logCfg.DataDir = dir
	}
	feedbackStore, fbErr := feedback.New(logCfg)
	if fbErr != nil {
		log.Printf("WARNING: activation log disabled: %v", fbErr)
		feedbackStore = nil
	} else {
		cleanup = func() {
			if err := feedbackStore.Close(); err != nil {
				log.Printf("WARNING: activation log close: %v", err)
			}
		}
	}

	s := server.NewMCPServer(
		"tenet",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	checkTool := tools.NewCheckTool(analyzer, matcher, builder, registry, feedbackStore)
	s.AddTool(checkTool.Definition(), checkTool.Handle)

	signalTool := tools.NewSignalTool(registry)
	s.AddTool(signalTool.Definition(), signalTool.Handle)

	statusTool := tools.NewStatusTool(lib, registry, feedbackStore)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	feedbackTool := tools.NewFeedbackTool(feedbackStore)
	s.AddTool(feedbackTool.Definition(), feedbackTool.Handle)

	resourceHandler := resources.NewHandler(lib)
	s.AddResource(resourceHandler.LibraryResource(), resourceHandler.HandleLibrary)

	return s, cleanup, nil
}

// noop is the default cleanup when the activation log is disabled.
func noop() {}

// loadLibrary picks the constraint source: a pack file or directory
// named by TENET_PACK, or the built-in default library.
func loadLibrary() (*constraint.Library, error) {
	pack := os.Getenv(EnvPack)
	if pack == "" {
		return config.DefaultLibrary()
	}

	info, err := os.Stat(pack)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", pack, err)
	}
	if info.IsDir() {
		return config.LoadDir(pack)
	}
	return config.Load(pack)
}

// serverInstructions returns the system instructions that tell the AI
// how to use the engine effectively.
func serverInstructions() string {
	return `You have access to tenet, a methodology reminder engine.

tenet watches what you are working on and injects the right practice
reminders at the right moment — write a failing test first, refactor
only on green, keep the domain layer pure. It does not write code or
enforce anything; it keeps the methodology you chose in view.

## WHEN TO CALL tenet_check

Call tenet_check:
- Before starting a new task or feature
- After switching activity (testing -> implementation -> refactoring)
- When you are unsure which practice applies right now

Pass what you know: a short description of the task (text), the files
being touched (files), and recent actions (activity). Use a stable
session_id for the whole working session — composite constraints track
progress per session, so repeated checks walk a sequence step by step
instead of repeating it.

## COMPOSITE CONSTRAINTS AND SIGNALS

Some reminders come from composite constraints with internal state:

- Sequential (e.g. a TDD cycle): steps are served one at a time and
  only move forward when you report progress. Call tenet_signal with
  signal "advance" and evidence of what happened ("test now failing").
- Hierarchical: all constraints of the lowest unsatisfied level are
  served together. Mark a level done with signal "satisfy-level".
- Progressive (e.g. refactoring levels): levels are served one at a
  time and can only advance to the NEXT level — skipping is refused
  with the level you should complete first. Barrier levels carry extra
  guidance; read it before advancing. Use signal "advance-to-level".
- Layered (e.g. clean architecture): reminders come per layer; use
  signal "advance" to move to the next layer.

Never fake a signal. The engine trusts your evidence — reporting a
step done that is not done defeats the point of the methodology.

## FEEDBACK

When a reminder was logged, tenet_check prints its activation id. If a
reminder was especially useful or pure noise, rate it with
tenet_feedback (score 1-5). Ratings show up in tenet_status and help
tune the constraint pack.

## STATUS

tenet_status shows the loaded library, a session's composite progress,
and activation statistics. It is read-only — call it freely.`
}
