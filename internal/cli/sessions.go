package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-meeting/internal/model/session"
)

func newSessionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Short:   "Manage meeting sessions",
		Aliases: []string{"session"},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List sessions, newest first",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.client.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			return render(a.out(), a.format(), sessions, func(w io.Writer) error {
				return printSessions(w, sessions)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <session-id>",
		Short: "Show a session and its conversation history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.client.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(a.out(), a.format(), sess, func(w io.Writer) error {
				return printSession(w, sess)
			})
		},
	})

	cmd.AddCommand(newSessionCreateCommand(a))

	cmd.AddCommand(&cobra.Command{
		Use:   "status <session-id> <status>",
		Short: "Set the session status (active, paused, ended)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.UpdateSessionStatus(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out(), "Session %s is now %s\n", args[0], args[1])
			return nil
		},
	})

	return cmd
}

func newSessionCreateCommand(a *app) *cobra.Command {
	var (
		title        string
		profileID    string
		participants []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session for a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.client.CreateSession(cmd.Context(), session.Input{
				Title:        title,
				ProfileID:    profileID,
				Participants: participants,
			})
			if err != nil {
				return err
			}
			return render(a.out(), a.format(), sess, func(w io.Writer) error {
				fmt.Fprintf(w, "Created session %s\n", sess.ID)
				return printSession(w, sess)
			})
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "Profile ID (required)")
	cmd.Flags().StringVar(&title, "title", "", "Session title")
	cmd.Flags().StringSliceVar(&participants, "participants", nil, "Participant names")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func printSessions(w io.Writer, sessions []session.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tMESSAGES\tCREATED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Title, s.Status, s.MessageCount(), s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func printSession(w io.Writer, s session.Session) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", s.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", s.Title)
	fmt.Fprintf(tw, "Profile:\t%s\n", s.ProfileID)
	fmt.Fprintf(tw, "Status:\t%s\n", s.Status)
	fmt.Fprintf(tw, "Participants:\t%s\n", orDash(strings.Join(s.Participants, ", ")))
	fmt.Fprintf(tw, "Messages:\t%d\n", s.MessageCount())
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, entry := range s.ConversationHistory {
		fmt.Fprintf(w, "\n> %s\n%s\n", entry.UserMessage, entry.AIResponse)
	}
	return nil
}
