// ABOUTME: Session management commands: list, new, switch, show, delete
// ABOUTME: Sessions are independent threads; exactly one is current
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pensive-labs/converse/internal/models"
)

// describeSessionErr turns the not-found sentinel into the message users
// see; a foreign or deleted session id is expected, not a bug
func describeSessionErr(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return errors.New("conversation not found, please try another")
	}
	return err
}

// NewSessionsCmd creates the sessions command group
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage conversation sessions",
		Long: `Manage conversation sessions.

Each session is an independent conversation thread with its own
history and topic context. Exactly one session is current; chat
messages land there.`,
	}

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsNewCmd())
	cmd.AddCommand(newSessionsSwitchCmd())
	cmd.AddCommand(newSessionsShowCmd())
	cmd.AddCommand(newSessionsDeleteCmd())

	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions, most recently active first",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			sessions, err := rt.engine.ListSessions(ctx)
			if err != nil {
				return err
			}
			currentID, err := rt.engine.Sessions().CurrentID(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions yet. Start one with: converse chat \"hello\"")
				return nil
			}
			for _, sess := range sessions {
				marker := "  "
				if sess.ID == currentID {
					marker = "* "
				}
				when := sess.LastMessageAt
				if when.IsZero() {
					when = sess.CreatedAt
				}
				fmt.Fprintf(out, "%s%s  %-40s %3d msgs  %s\n",
					marker, sess.ID, truncate(sess.Title, 40), sess.MessageCount, formatTime(when))
			}
			return nil
		},
	}
}

func newSessionsNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a fresh session and make it current",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			sess, err := rt.engine.NewChat(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started session %s\n", sess.ID)
			return nil
		},
	}
}

func newSessionsSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <session-id>",
		Short: "Make an existing session current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			id := models.SessionID(args[0])
			sess, _, err := rt.engine.LoadSession(cmd.Context(), id)
			if err != nil {
				return describeSessionErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s (%s)\n", sess.ID, sess.Title)
			return nil
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a session's message history",
		Long:  `Show a session's message history. Defaults to the current session.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			var id models.SessionID
			if len(args) > 0 {
				id = models.SessionID(args[0])
			} else {
				current, err := rt.engine.Sessions().Current(ctx)
				if err != nil {
					return fmt.Errorf("no current session; pass a session id or start one with: converse chat")
				}
				id = current.ID
			}

			sess, messages, err := rt.engine.LoadSession(ctx, id)
			if err != nil {
				return describeSessionErr(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s — %s (%d messages)\n\n", sess.ID, sess.Title, sess.MessageCount)
			for _, msg := range messages {
				fmt.Fprintf(out, "[%s] %s: %s\n", formatTime(msg.Timestamp), msg.Role, msg.Content)
			}
			return nil
		},
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session with its messages and topic context",
		Long: `Delete a session along with its messages and topic context.

Stored user facts are never deleted with a session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			id := models.SessionID(args[0])
			if err := rt.engine.DeleteSession(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}
