package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "reminder"
	serverVersion = "1.0.0"
)

// Server is the MCP server for reminder management.
type Server struct {
	mcpServer *server.MCPServer
	store     *Store
	now       func() time.Time
}

// listedReminder is a reminder together with its 1-based list position.
type listedReminder struct {
	Position int `json:"position"`
	Reminder
}

// NewServer creates a new Reminder MCP server backed by the given store.
func NewServer(store *Store) *Server {
	s := &Server{
		store: store,
		now:   time.Now,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	// add_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Schedule a reminder that shows a notification and opens a link or launches a program"),
			mcp.WithString("time", mcp.Required(), mcp.Description("Local time in the form YYYY-MM-DD HH:MM")),
			mcp.WithString("message", mcp.Required(), mcp.Description("Notification text")),
			mcp.WithString("value", mcp.Required(), mcp.Description("URL to open or path of the program to launch")),
			mcp.WithString("type", mcp.Description("Action: url or program (default: url)")),
			mcp.WithString("repeat", mcp.Description("Repeat: none, daily, weekly (default: none)")),
		),
		s.handleAddReminder,
	)

	// list_reminders
	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List all reminders with their positions"),
		),
		s.handleListReminders,
	)

	// get_due_reminders
	s.mcpServer.AddTool(
		mcp.NewTool("get_due_reminders",
			mcp.WithDescription("List reminders whose time is now or in the past"),
		),
		s.handleGetDueReminders,
	)

	// update_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("update_reminder",
			mcp.WithDescription("Update fields of the reminder at the given position"),
			mcp.WithNumber("position", mcp.Required(), mcp.Description("1-based position from list_reminders")),
			mcp.WithString("time", mcp.Description("New time (YYYY-MM-DD HH:MM)")),
			mcp.WithString("message", mcp.Description("New notification text")),
			mcp.WithString("value", mcp.Description("New URL or program path")),
			mcp.WithString("type", mcp.Description("New action: url or program")),
			mcp.WithString("repeat", mcp.Description("New repeat: none, daily, weekly")),
		),
		s.handleUpdateReminder,
	)

	// delete_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete the reminder at the given position"),
			mcp.WithNumber("position", mcp.Required(), mcp.Description("1-based position from list_reminders")),
		),
		s.handleDeleteReminder,
	)
}

func (s *Server) handleAddReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r := Reminder{
		Time:    req.GetString("time", ""),
		Message: req.GetString("message", ""),
		Value:   req.GetString("value", ""),
	}

	kind, err := ParseActionKind(req.GetString("type", string(ActionURL)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r.Kind = kind

	repeat, err := ParseRepeat(req.GetString("repeat", string(RepeatNone)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r.Repeat = repeat

	if _, err := s.store.Reload(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read reminders: %v", err)), nil
	}
	added, err := s.store.Add(r)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}

	output, _ := json.MarshalIndent(listedReminder{Position: s.store.Len(), Reminder: added}, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleListReminders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.store.Reload(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read reminders: %v", err)), nil
	}

	reminders := s.store.List()
	if len(reminders) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}

	output, _ := json.MarshalIndent(withPositions(reminders), "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleGetDueReminders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.store.Reload(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read reminders: %v", err)), nil
	}

	reminders := s.store.Due(s.now())
	if len(reminders) == 0 {
		return mcp.NewToolResultText("No due reminders."), nil
	}

	output, _ := json.MarshalIndent(reminders, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleUpdateReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos := int(req.GetFloat("position", 0))
	if pos < 1 {
		return mcp.NewToolResultError("position is required and must be 1 or greater"), nil
	}

	if _, err := s.store.Reload(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read reminders: %v", err)), nil
	}
	current, err := s.store.Get(pos - 1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r := current
	if v := req.GetString("time", ""); v != "" {
		r.Time = v
	}
	if v := req.GetString("message", ""); v != "" {
		r.Message = v
	}
	if v := req.GetString("value", ""); v != "" {
		r.Value = v
	}
	if v := req.GetString("type", ""); v != "" {
		kind, err := ParseActionKind(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		r.Kind = kind
	}
	if v := req.GetString("repeat", ""); v != "" {
		repeat, err := ParseRepeat(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		r.Repeat = repeat
	}

	updated, err := s.store.Update(pos-1, current, r)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update reminder: %v", err)), nil
	}

	output, _ := json.MarshalIndent(listedReminder{Position: pos, Reminder: updated}, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleDeleteReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos := int(req.GetFloat("position", 0))
	if pos < 1 {
		return mcp.NewToolResultError("position is required and must be 1 or greater"), nil
	}

	if _, err := s.store.Reload(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read reminders: %v", err)), nil
	}
	current, err := s.store.Get(pos - 1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := s.store.Delete(pos-1, current)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reminder %d deleted: %s", pos, removed.Summary())), nil
}

func withPositions(reminders []Reminder) []listedReminder {
	out := make([]listedReminder, 0, len(reminders))
	for i, r := range reminders {
		out = append(out, listedReminder{Position: i + 1, Reminder: r})
	}
	return out
}
