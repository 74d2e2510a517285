// ABOUTME: Assembler builds the ordered prompt payload for a turn
// ABOUTME: Enforces per-fragment and total character budgets deterministically
package core

import (
	"github.com/pensive-labs/converse/internal/models"
)

// Budgets caps each prompt fragment in characters. A zero budget for a
// fragment means the fragment is omitted entirely.
type Budgets struct {
	Fact        int
	Personality int
	Emotion     int
	Summary     int
	Knowledge   int
	Total       int
}

// DefaultBudgets returns the standard fragment budgets
func DefaultBudgets() Budgets {
	return Budgets{
		Fact:        600,
		Personality: 800,
		Emotion:     200,
		Summary:     400,
		Knowledge:   1200,
		Total:       6000,
	}
}

// Fragments carries the optional caller-supplied prompt material
type Fragments struct {
	Personality string
	Emotion     string
	Knowledge   string
}

// Assembler renders the payload sent to the responder. Block order is
// fixed: personality, emotion, conversation context, user facts,
// knowledge, then the user's text last.
type Assembler struct {
	budgets Budgets
}

// NewAssembler creates an Assembler with the given budgets
func NewAssembler(budgets Budgets) *Assembler {
	return &Assembler{budgets: budgets}
}

// block names identify fragments in the payload and order shrinking:
// lower-priority blocks are trimmed first when the total budget overflows
const (
	blockPersonality = "personality"
	blockEmotion     = "emotion"
	blockContext     = "context"
	blockFacts       = "facts"
	blockKnowledge   = "knowledge"
	blockUser        = "user"
)

// shrinkOrder is the reverse-priority order for total-budget enforcement.
// The user's text is only trimmed once every other block is gone.
var shrinkOrder = []string{blockKnowledge, blockFacts, blockContext, blockEmotion, blockPersonality, blockUser}

// Assemble builds the payload for one turn. factsBlock is the pre-rendered
// fact prompt (already within the fact budget), contextSummary and hint come
// from the topic tracker. The result is deterministic for identical inputs.
func (a *Assembler) Assemble(sessionID models.SessionID, userText string, factsBlock, contextSummary, hint string, frags Fragments) *models.Payload {
	payload := &models.Payload{SessionID: sessionID}

	add := func(role models.BlockRole, name, text string, budget int) {
		if text == "" || budget <= 0 {
			return
		}
		payload.Blocks = append(payload.Blocks, models.PayloadBlock{
			Role: role,
			Name: name,
			Text: truncateRunes(text, budget),
		})
	}

	add(models.BlockSystem, blockPersonality, frags.Personality, a.budgets.Personality)
	add(models.BlockSystem, blockEmotion, frags.Emotion, a.budgets.Emotion)

	contextText := contextSummary
	if hint != "" {
		if contextText != "" {
			contextText += "\n"
		}
		contextText += hint
	}
	add(models.BlockSystem, blockContext, contextText, a.budgets.Summary)

	add(models.BlockSystem, blockFacts, factsBlock, a.budgets.Fact)
	add(models.BlockSystem, blockKnowledge, frags.Knowledge, a.budgets.Knowledge)

	payload.Blocks = append(payload.Blocks, models.PayloadBlock{
		Role: models.BlockUser,
		Name: blockUser,
		Text: userText,
	})

	a.enforceTotal(payload)
	return payload
}

// enforceTotal trims blocks in reverse priority until the payload fits the
// total budget, dropping a block once it shrinks to nothing
func (a *Assembler) enforceTotal(payload *models.Payload) {
	if a.budgets.Total <= 0 {
		return
	}
	for _, name := range shrinkOrder {
		over := payload.Size() - a.budgets.Total
		if over <= 0 {
			return
		}
		idx := blockIndex(payload, name)
		if idx < 0 {
			continue
		}
		blockLen := len([]rune(payload.Blocks[idx].Text))
		if blockLen <= over {
			payload.Blocks = append(payload.Blocks[:idx], payload.Blocks[idx+1:]...)
			continue
		}
		payload.Blocks[idx].Text = truncateRunes(payload.Blocks[idx].Text, blockLen-over)
	}
}

func blockIndex(payload *models.Payload, name string) int {
	for i, b := range payload.Blocks {
		if b.Name == name {
			return i
		}
	}
	return -1
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
