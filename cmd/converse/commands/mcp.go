// ABOUTME: MCP command starts a Model Context Protocol server
// ABOUTME: Enables LLM agents to use converse sessions and facts via stdio
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/pensive-labs/converse/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs converse as an MCP (Model Context Protocol) server over stdio,
exposing sessions, facts and topic tools to agent hosts.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by the agent host)
  converse mcp

  # Configure in the host's MCP config:
  # {
  #   "mcpServers": {
  #     "converse": {
  #       "command": "converse",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	server := mcpserver.NewMCPServer(
		"Converse",
		versionInfo.Version,
	)
	mcp.RegisterTools(server, rt.engine)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		log.Println("converse MCP server starting on stdio...")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			log.Println("Shutdown signal received, shutting down...")
		}
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	}
}
