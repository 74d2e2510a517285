// ABOUTME: Fact management commands: list, add, delete, clear
// ABOUTME: Facts are durable knowledge, independent of sessions and topics
package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pensive-labs/converse/internal/models"
)

var (
	factCategory   string
	factConfidence float64
)

// NewFactsCmd creates the facts command group
func NewFactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Manage durable facts about the user",
		Long: `Manage durable facts about the user.

Facts survive session deletion and topic resets. They are folded
into every assistant reply within a character budget; when the
budget overflows, the oldest facts drop out of the prompt first.`,
	}

	cmd.AddCommand(newFactsListCmd())
	cmd.AddCommand(newFactsAddCmd())
	cmd.AddCommand(newFactsDeleteCmd())
	cmd.AddCommand(newFactsClearCmd())

	return cmd
}

func newFactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored facts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			facts, err := rt.engine.Facts().List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(facts) == 0 {
				fmt.Fprintln(out, "No facts stored.")
				return nil
			}
			for _, fact := range facts {
				fmt.Fprintf(out, "%s  [%-10s]  %s  (%s)\n",
					fact.ID, fact.Category, fact.Content, formatTime(fact.CreatedAt))
			}
			return nil
		},
	}
}

func newFactsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Store a new fact",
		Long: `Store a new fact about the user.

Examples:
  converse facts add "prefers tea over coffee" --category preference
  converse facts add "lives in Chicago" --category personal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			fact, err := rt.engine.Facts().Add(cmd.Context(), args[0],
				models.FactCategory(factCategory), factConfidence)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", fact.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&factCategory, "category", string(models.FactOther),
		"Fact category (personal, preference, context, other)")
	cmd.Flags().Float64Var(&factConfidence, "confidence", 1, "Confidence in the fact (0-1)")

	return cmd
}

func newFactsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <fact-id>",
		Short: "Delete a fact by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			id := models.FactID(args[0])
			if err := rt.engine.Facts().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}

func newFactsClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored fact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Delete ALL stored facts? [y/N] ")
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if strings.ToLower(strings.TrimSpace(answer)) != "y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.engine.Facts().ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All facts cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}
