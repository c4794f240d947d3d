// Command mcp-reminder provides an MCP server for reminder management.
//
// This server exposes tools for adding, listing, updating and deleting
// reminders in the same reminders.json used by remindme, so a running
// remindme picks the changes up on its next check.
//
// Usage:
//
//	./mcp-reminder          # Start MCP server (stdio)
//	./mcp-reminder --help   # Show help
//
// Environment:
//
//	REMINDME_STORE__PATH  Path to reminders.json (default: ~/.remindme/reminders.json)
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"
	"github.com/notexe/remindme/internal/config"
	"github.com/notexe/remindme/internal/reminder"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--help", "-h":
			printHelp()
			return
		}
	}

	cfg, err := config.Load(config.GetDefaultConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol; logs go to stderr.
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "mcp-reminder"})

	store, err := reminder.Open(cfg.Store.Path, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open reminders: %v\n", err)
		os.Exit(1)
	}

	s := reminder.NewServer(store)

	if err := server.ServeStdio(s.MCPServer()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`MCP Reminder Server - Reminder management via MCP protocol

USAGE:
    mcp-reminder          Start MCP server (communicates via stdio)
    mcp-reminder --help   Show this help

ENVIRONMENT:
    REMINDME_STORE__PATH  Path to reminders.json
                          Default: ~/.remindme/reminders.json

TOOLS:
    add_reminder       Add a reminder (time, message, value, type, repeat)
    list_reminders     List all reminders with their positions
    get_due_reminders  List reminders whose time has passed
    update_reminder    Update fields of the reminder at a position
    delete_reminder    Delete the reminder at a position

CONFIGURATION:
    Add to your MCP client config:
    {
      "mcpServers": {
        "reminder": {
          "command": "/path/to/mcp-reminder",
          "args": []
        }
      }
    }`)
}
