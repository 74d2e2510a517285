// ABOUTME: MCP tool handler implementations for the converse server
// ABOUTME: Thin shims over the engine; responses are compact JSON payloads
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pensive-labs/converse/internal/core"
	"github.com/pensive-labs/converse/internal/models"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	engine *core.Engine
}

// SendTurn handles the send_turn tool
func (h *Handlers) SendTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}

	var metadata map[string]string
	if source := request.GetString("source", ""); source != "" {
		metadata = map[string]string{models.MetaSource: source}
	}

	result, err := h.engine.SendTurn(ctx, text, metadata)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("turn failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"session_id":    string(result.SessionID),
		"reply":         result.AssistantText,
		"topic_changed": result.TopicChanged,
		"topic_reset":   result.TopicReset,
		"current_topic": result.CurrentTopicLabel,
		"topic_summary": result.RecentTopics,
	})
}

// NewChat handles the new_chat tool
func (h *Handlers) NewChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.engine.NewChat(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("starting session failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"session_id": string(sess.ID),
		"title":      sess.Title,
		"created_at": sess.CreatedAt.Format(time.RFC3339),
	})
}

// ListSessions handles the list_sessions tool
func (h *Handlers) ListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.engine.ListSessions(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing sessions failed: %v", err)), nil
	}

	currentID, err := h.engine.Sessions().CurrentID(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolving current session failed: %v", err)), nil
	}

	entries := make([]map[string]interface{}, 0, len(sessions))
	for _, sess := range sessions {
		entry := map[string]interface{}{
			"session_id":    string(sess.ID),
			"title":         sess.Title,
			"message_count": sess.MessageCount,
			"created_at":    sess.CreatedAt.Format(time.RFC3339),
			"current":       sess.ID == currentID,
		}
		if !sess.LastMessageAt.IsZero() {
			entry["last_message_at"] = sess.LastMessageAt.Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}
	return jsonResult(map[string]interface{}{"sessions": entries})
}

// LoadSession handles the load_session tool
func (h *Handlers) LoadSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id argument is required and must be a string"), nil
	}

	sess, messages, err := h.engine.LoadSession(ctx, models.SessionID(id))
	if errors.Is(err, models.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("session %s not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading session failed: %v", err)), nil
	}

	history := make([]map[string]interface{}, 0, len(messages))
	for _, msg := range messages {
		history = append(history, map[string]interface{}{
			"id":        string(msg.ID),
			"role":      string(msg.Role),
			"content":   msg.Content,
			"timestamp": msg.Timestamp.Format(time.RFC3339),
		})
	}
	return jsonResult(map[string]interface{}{
		"session_id": string(sess.ID),
		"title":      sess.Title,
		"messages":   history,
	})
}

// DeleteSession handles the delete_session tool
func (h *Handlers) DeleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id argument is required and must be a string"), nil
	}

	if err := h.engine.DeleteSession(ctx, models.SessionID(id)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("deleting session failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"deleted":    true,
		"session_id": id,
	})
}

// ListFacts handles the list_facts tool
func (h *Handlers) ListFacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	facts, err := h.engine.Facts().List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing facts failed: %v", err)), nil
	}

	entries := make([]map[string]interface{}, 0, len(facts))
	for _, fact := range facts {
		entries = append(entries, map[string]interface{}{
			"fact_id":    string(fact.ID),
			"content":    fact.Content,
			"category":   string(fact.Category),
			"confidence": fact.Confidence,
			"created_at": fact.CreatedAt.Format(time.RFC3339),
		})
	}
	return jsonResult(map[string]interface{}{"facts": entries})
}

// AddFact handles the add_fact tool
func (h *Handlers) AddFact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required and must be a string"), nil
	}
	category := request.GetString("category", string(models.FactOther))
	confidence := request.GetFloat("confidence", 1)

	fact, err := h.engine.Facts().Add(ctx, content, models.FactCategory(category), confidence)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("adding fact failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"fact_id":  string(fact.ID),
		"content":  fact.Content,
		"category": string(fact.Category),
	})
}

// DeleteFact handles the delete_fact tool
func (h *Handlers) DeleteFact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("fact_id")
	if err != nil {
		return mcp.NewToolResultError("fact_id argument is required and must be a string"), nil
	}

	if err := h.engine.Facts().Delete(ctx, models.FactID(id)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("deleting fact failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"deleted": true,
		"fact_id": id,
	})
}

// ClearFacts handles the clear_facts tool
func (h *Handlers) ClearFacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.engine.Facts().ClearAll(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clearing facts failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"cleared": true})
}

// ResetTopic handles the reset_topic tool
func (h *Handlers) ResetTopic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.engine.ResetTopic(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resetting topic failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"reset": true})
}

func jsonResult(response map[string]interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
