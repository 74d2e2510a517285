// ABOUTME: Chat command sends one message to the current session
// ABOUTME: Prints the reply plus a topic-change notice when one fired
package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pensive-labs/converse/internal/models"
)

var (
	chatNew         bool
	chatInteractive bool
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [text]",
		Short: "Send a message and print the reply",
		Long: `Send a message to the current conversation session.

A session is created automatically when none is current. Text can be
given as an argument or piped on stdin.

Examples:
  converse chat "Will it rain tomorrow?"
  echo "What should I cook tonight?" | converse chat
  converse chat --new "Let's start fresh"
  converse chat -i`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().BoolVar(&chatNew, "new", false, "Start a new session before sending")
	cmd.Flags().BoolVarP(&chatInteractive, "interactive", "i", false, "Keep the conversation open, one message per line")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if chatNew {
		if _, err := rt.engine.NewChat(ctx); err != nil {
			return fmt.Errorf("starting session: %w", err)
		}
	}

	if chatInteractive {
		return chatLoop(cmd, rt)
	}

	var text string
	if len(args) > 0 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("no message provided")
	}

	return sendAndPrint(cmd, rt, text)
}

// chatLoop reads one message per line until EOF or "exit"
func chatLoop(cmd *cobra.Command, rt *runtime) error {
	out := cmd.OutOrStdout()
	if !quiet {
		fmt.Fprintln(out, "Type a message and press enter. \"exit\" or ctrl-d to leave.")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			return nil
		}
		if err := sendAndPrint(cmd, rt, text); err != nil {
			return err
		}
	}
}

func sendAndPrint(cmd *cobra.Command, rt *runtime, text string) error {
	result, err := rt.engine.SendTurn(cmd.Context(), text, map[string]string{models.MetaSource: "cli"})
	if err != nil {
		return describeSessionErr(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.AssistantText)

	if !quiet {
		switch {
		case result.TopicReset:
			fmt.Fprintln(out, "[topic reset]")
		case result.TopicChanged:
			fmt.Fprintf(out, "[topic: %s]\n", result.CurrentTopicLabel)
		}
	}
	if verbose && result.RecentTopics != "" {
		fmt.Fprintf(out, "[%s]\n", result.RecentTopics)
	}

	return nil
}
