// ABOUTME: MCP tool definitions and registration for the converse server
// ABOUTME: Defines JSON schemas for the conversation, session, fact and topic tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/pensive-labs/converse/internal/core"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, engine *core.Engine) *Handlers {
	handlers := &Handlers{engine: engine}

	server.AddTool(mcp.Tool{
		Name:        "send_turn",
		Description: "Send a user message to the current conversation session and get the assistant's reply. Creates a session if none is current.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "The user's message",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Optional origin of the message, e.g. 'voice' or 'text'",
				},
			},
			Required: []string{"text"},
		},
	}, handlers.SendTurn)

	server.AddTool(mcp.Tool{
		Name:        "new_chat",
		Description: "Start a fresh conversation session and make it current. The previous session is kept and can be resumed later.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.NewChat)

	server.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all conversation sessions, most recently active first.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListSessions)

	server.AddTool(mcp.Tool{
		Name:        "load_session",
		Description: "Switch to an existing session and return its message history. Topic context resumes where it left off.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the session to load",
				},
			},
			Required: []string{"session_id"},
		},
	}, handlers.LoadSession)

	server.AddTool(mcp.Tool{
		Name:        "delete_session",
		Description: "Delete a session along with its messages and topic context. Stored user facts are not affected.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the session to delete",
				},
			},
			Required: []string{"session_id"},
		},
	}, handlers.DeleteSession)

	server.AddTool(mcp.Tool{
		Name:        "list_facts",
		Description: "List all stored facts about the user.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListFacts)

	server.AddTool(mcp.Tool{
		Name:        "add_fact",
		Description: "Store a durable fact about the user. Facts persist across sessions and topic resets.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "The fact text, e.g. 'prefers tea over coffee'",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "One of: personal, preference, context, other",
					"default":     "other",
				},
				"confidence": map[string]interface{}{
					"type":        "number",
					"description": "Confidence in the fact, 0 to 1 (default: 1)",
					"default":     1,
				},
			},
			Required: []string{"content"},
		},
	}, handlers.AddFact)

	server.AddTool(mcp.Tool{
		Name:        "delete_fact",
		Description: "Delete a stored fact by ID.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"fact_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the fact to delete",
				},
			},
			Required: []string{"fact_id"},
		},
	}, handlers.DeleteFact)

	server.AddTool(mcp.Tool{
		Name:        "clear_facts",
		Description: "Delete every stored fact about the user.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ClearFacts)

	server.AddTool(mcp.Tool{
		Name:        "reset_topic",
		Description: "Clear the current session's tracked topic so the next message starts fresh. Recent topic history and user facts are kept.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ResetTopic)

	return handlers
}
