// Tenet: methodology reminder MCP server
//
// An MCP server that integrates with AI coding tools to inject
// methodology reminders (TDD cycles, refactoring levels, architecture
// rules) at the right moment in the workflow.
//
// Usage:
//
//	tenet serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	tenetserver "tenet/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("tenet v%s\n", tenetserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := tenetserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Tenet v%s — methodology reminder MCP server

Usage:
  tenet serve    Start the MCP server (stdio transport)

Environment:
  TENET_PACK       YAML constraint pack file or directory
                   (default: built-in library)
  TENET_DATA_DIR   Activation log location (default: ~/.tenet)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "tenet": {
        "command": "tenet",
        "args": ["serve"]
      }
    }
  }
`, tenetserver.Version)
}
