// ABOUTME: Structural tests for the chat, sessions, facts, topic and mcp commands
// ABOUTME: Verifies command wiring without touching storage or the network

package commands

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func subcommandNames(cmd *cobra.Command) []string {
	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	return names
}

func requireSubcommands(t *testing.T, cmd *cobra.Command, want []string) {
	t.Helper()
	have := subcommandNames(cmd)
	for _, name := range want {
		found := false
		for _, got := range have {
			if got == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s: subcommand %q not registered (have %v)", cmd.Name(), name, have)
		}
	}
}

func TestNewChatCmd(t *testing.T) {
	cmd := NewChatCmd()

	if cmd.Use != "chat [text]" {
		t.Errorf("Use = %q, want %q", cmd.Use, "chat [text]")
	}
	if cmd.RunE == nil {
		t.Error("RunE should be set")
	}
	if cmd.Flags().Lookup("new") == nil {
		t.Error("--new flag not found")
	}
	if cmd.Flags().Lookup("interactive") == nil {
		t.Error("--interactive flag not found")
	}
}

func TestNewSessionsCmd(t *testing.T) {
	cmd := NewSessionsCmd()

	if cmd.Use != "sessions" {
		t.Errorf("Use = %q, want %q", cmd.Use, "sessions")
	}
	requireSubcommands(t, cmd, []string{"list", "new", "switch", "show", "delete"})
}

func TestNewFactsCmd(t *testing.T) {
	cmd := NewFactsCmd()

	if cmd.Use != "facts" {
		t.Errorf("Use = %q, want %q", cmd.Use, "facts")
	}
	requireSubcommands(t, cmd, []string{"list", "add", "delete", "clear"})

	// Fact deletion never happens with sessions; the docs say so
	if !strings.Contains(cmd.Long, "survive") {
		t.Error("Long description should mention facts surviving session deletion")
	}
}

func TestNewTopicCmd(t *testing.T) {
	cmd := NewTopicCmd()

	if cmd.Use != "topic" {
		t.Errorf("Use = %q, want %q", cmd.Use, "topic")
	}
	requireSubcommands(t, cmd, []string{"show", "reset"})
}

func TestNewMCPCmd(t *testing.T) {
	cmd := NewMCPCmd()

	if cmd.Use != "mcp" {
		t.Errorf("Use = %q, want %q", cmd.Use, "mcp")
	}
	if cmd.RunE == nil {
		t.Error("RunE should be set")
	}
	if !strings.Contains(cmd.Long, "stdio") {
		t.Error("Long description should mention stdio")
	}
	if cmd.Example == "" {
		t.Error("Example should not be empty")
	}
}
