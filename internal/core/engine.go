// ABOUTME: Engine wires sessions, facts, topic tracking and assembly per turn
// ABOUTME: SendTurn is the single entry point for a round-trip exchange
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/pensive-labs/converse/internal/classify"
	"github.com/pensive-labs/converse/internal/llm"
	"github.com/pensive-labs/converse/internal/models"
	"github.com/pensive-labs/converse/internal/storage"
)

// TurnResult is the outcome of one SendTurn call
type TurnResult struct {
	SessionID         models.SessionID
	AssistantText     string
	TopicChanged      bool
	TopicReset        bool
	CurrentTopicLabel string
	RecentTopics      string
}

// Engine coordinates the conversation subsystems for each turn
type Engine struct {
	store     storage.Store
	sessions  *SessionManager
	facts     *FactStore
	tracker   *Tracker
	assembler *Assembler
	responder llm.Responder
	fragments Fragments
}

// NewEngine builds an Engine over a store, classifier adapter and responder.
// frags supplies the static personality, emotion and knowledge prompt text.
func NewEngine(store storage.Store, adapter *classify.Adapter, responder llm.Responder, budgets Budgets, frags Fragments) *Engine {
	return &Engine{
		store:     store,
		sessions:  NewSessionManager(store),
		facts:     NewFactStore(store, budgets.Fact),
		tracker:   NewTracker(store, adapter),
		assembler: NewAssembler(budgets),
		responder: responder,
		fragments: frags,
	}
}

// Sessions exposes the session manager for command surfaces
func (e *Engine) Sessions() *SessionManager { return e.sessions }

// Facts exposes the fact store for command surfaces
func (e *Engine) Facts() *FactStore { return e.facts }

// Tracker exposes the topic tracker for command surfaces
func (e *Engine) Tracker() *Tracker { return e.tracker }

// SendTurn runs one full exchange: persist the user message, update topic
// state, assemble the prompt and persist the assistant's reply
func (e *Engine) SendTurn(ctx context.Context, text string, metadata map[string]string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("turn text is required")
	}

	session, err := e.sessions.ContinueOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	userMsg := &models.Message{
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   text,
		Metadata:  metadata,
	}
	if err := e.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	if err := e.sessions.MaybeAssignTitle(ctx, session.ID, text); err != nil {
		return nil, err
	}

	update, err := e.tracker.ObserveTurn(ctx, session.ID, text)
	if err != nil {
		return nil, err
	}

	factsBlock, err := e.facts.FormatForPrompt(ctx)
	if err != nil {
		return nil, err
	}

	payload := e.assembler.Assemble(session.ID, text, factsBlock, update.Summary, update.Hint, e.fragments)

	reply, err := e.responder.Respond(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	assistantMsg := &models.Message{
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		Content:   reply,
	}
	if err := e.store.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("persisting assistant message: %w", err)
	}

	return &TurnResult{
		SessionID:         session.ID,
		AssistantText:     reply,
		TopicChanged:      update.TopicChanged,
		TopicReset:        update.Reset,
		CurrentTopicLabel: update.CurrentLabel,
		RecentTopics:      update.Summary,
	}, nil
}

// NewChat starts a fresh session and makes it current
func (e *Engine) NewChat(ctx context.Context) (*models.Session, error) {
	return e.sessions.SwitchToNew(ctx)
}

// ListSessions returns all sessions, most recently active first
func (e *Engine) ListSessions(ctx context.Context) ([]models.Session, error) {
	return e.sessions.List(ctx)
}

// LoadSession switches to an existing session and returns it with its
// message history. A missing session surfaces models.ErrNotFound.
func (e *Engine) LoadSession(ctx context.Context, id models.SessionID) (*models.Session, []models.Message, error) {
	session, err := e.store.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := e.sessions.SetCurrent(ctx, id); err != nil {
		return nil, nil, err
	}
	messages, err := e.store.MessagesBySession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return session, messages, nil
}

// DeleteSession removes a session with its messages and context, clearing
// the current pointer if it pointed there
func (e *Engine) DeleteSession(ctx context.Context, id models.SessionID) error {
	if err := e.sessions.Delete(ctx, id); err != nil {
		return err
	}
	e.tracker.Invalidate(id)
	return nil
}

// ResetTopic clears the current session's tracked topic
func (e *Engine) ResetTopic(ctx context.Context) error {
	id, err := e.sessions.CurrentID(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("no active session")
	}
	return e.tracker.Reset(ctx, id)
}
