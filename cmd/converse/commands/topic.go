// ABOUTME: Topic commands: show the current topic state, reset it
// ABOUTME: Operates on the current session's tracked topic
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTopicCmd creates the topic command group
func NewTopicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Inspect or reset the current session's topic",
	}

	cmd.AddCommand(newTopicShowCmd())
	cmd.AddCommand(newTopicResetCmd())

	return cmd
}

func newTopicShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the tracked topic and recent topic history",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			current, err := rt.engine.Sessions().Current(ctx)
			if err != nil {
				return fmt.Errorf("no current session; start one with: converse chat")
			}

			summary, err := rt.engine.Tracker().Summary(ctx, current.ID)
			if err != nil {
				return err
			}
			if summary == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No topic tracked yet.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func newTopicResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the tracked topic so the next message starts fresh",
		Long: `Clear the current session's tracked topic.

Recent topic history and stored facts are kept; only the active
topic is forgotten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.engine.ResetTopic(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Topic reset.")
			return nil
		},
	}
}
