// ABOUTME: Tests for prompt payload assembly and budget enforcement
// ABOUTME: Verifies fixed block order, determinism and total ceiling
package core

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pensive-labs/converse/internal/models"
)

func TestAssemble_BlockOrder(t *testing.T) {
	asm := NewAssembler(DefaultBudgets())
	frags := Fragments{
		Personality: "You are a warm, concise assistant.",
		Emotion:     "The user sounds stressed.",
		Knowledge:   "Carbonara uses guanciale, not bacon.",
	}

	payload := asm.Assemble("sess_1", "How do I make carbonara?",
		"USER FACTS:\n- is vegetarian\n",
		"Currently discussing: cooking, 3 messages so far",
		"", frags)

	var names []string
	for _, b := range payload.Blocks {
		names = append(names, b.Name)
	}
	want := []string{"personality", "emotion", "context", "facts", "knowledge", "user"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("block order = %v, want %v", names, want)
	}

	last := payload.Blocks[len(payload.Blocks)-1]
	if last.Role != models.BlockUser {
		t.Errorf("last block role = %q, want user", last.Role)
	}
	for _, b := range payload.Blocks[:len(payload.Blocks)-1] {
		if b.Role != models.BlockSystem {
			t.Errorf("block %q role = %q, want system", b.Name, b.Role)
		}
	}
}

func TestAssemble_OmitsEmptyFragments(t *testing.T) {
	asm := NewAssembler(DefaultBudgets())

	payload := asm.Assemble("sess_1", "hello", "", "", "", Fragments{})
	if len(payload.Blocks) != 1 {
		t.Fatalf("blocks = %d, want only the user block", len(payload.Blocks))
	}
	if payload.Blocks[0].Name != "user" || payload.Blocks[0].Text != "hello" {
		t.Errorf("sole block = %+v, want the user text", payload.Blocks[0])
	}
}

func TestAssemble_HintJoinsContextBlock(t *testing.T) {
	asm := NewAssembler(DefaultBudgets())

	payload := asm.Assemble("sess_1", "hello", "",
		"Currently discussing: cooking",
		"The conversation has shifted from weather to cooking; acknowledge the change naturally.",
		Fragments{})

	idx := blockIndex(payload, "context")
	if idx < 0 {
		t.Fatal("context block missing")
	}
	text := payload.Blocks[idx].Text
	if !strings.Contains(text, "Currently discussing") || !strings.Contains(text, "shifted from weather") {
		t.Errorf("context block = %q, want summary and hint together", text)
	}
}

func TestAssemble_PerFragmentBudget(t *testing.T) {
	budgets := DefaultBudgets()
	budgets.Knowledge = 10
	asm := NewAssembler(budgets)

	payload := asm.Assemble("sess_1", "hello", "", "", "",
		Fragments{Knowledge: strings.Repeat("k", 100)})

	idx := blockIndex(payload, "knowledge")
	if idx < 0 {
		t.Fatal("knowledge block missing")
	}
	if got := len(payload.Blocks[idx].Text); got != 10 {
		t.Errorf("knowledge block length = %d, want 10", got)
	}
}

func TestAssemble_TotalBudgetShrinksLowPriorityFirst(t *testing.T) {
	budgets := Budgets{
		Fact:        100,
		Personality: 100,
		Emotion:     100,
		Summary:     100,
		Knowledge:   100,
		Total:       250,
	}
	asm := NewAssembler(budgets)

	frags := Fragments{
		Personality: strings.Repeat("p", 100),
		Emotion:     strings.Repeat("e", 100),
		Knowledge:   strings.Repeat("k", 100),
	}
	payload := asm.Assemble("sess_1", strings.Repeat("u", 50),
		strings.Repeat("f", 100), strings.Repeat("c", 100), "", frags)

	if got := payload.Size(); got > budgets.Total {
		t.Errorf("payload size = %d, want <= %d", got, budgets.Total)
	}
	// Knowledge and facts are sacrificed before personality and the user text
	if blockIndex(payload, "knowledge") >= 0 {
		t.Error("knowledge block survived, want it dropped first")
	}
	if idx := blockIndex(payload, "personality"); idx < 0 {
		t.Error("personality block dropped, want it kept")
	}
	if idx := blockIndex(payload, "user"); idx < 0 {
		t.Fatal("user block dropped, must always survive")
	} else if payload.Blocks[idx].Text != strings.Repeat("u", 50) {
		t.Error("user text trimmed while lower-priority blocks remained")
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	asm := NewAssembler(DefaultBudgets())
	frags := Fragments{Personality: "p", Emotion: "e", Knowledge: "k"}

	a := asm.Assemble("sess_1", "hello", "facts", "summary", "hint", frags)
	b := asm.Assemble("sess_1", "hello", "facts", "summary", "hint", frags)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs produced different payloads:\n%+v\n%+v", a, b)
	}
}
