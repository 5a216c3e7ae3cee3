package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-meeting/internal/live"
	"github.com/zhouzirui/z-meeting/internal/logging"
	"github.com/zhouzirui/z-meeting/internal/meeting"
	"github.com/zhouzirui/z-meeting/internal/model/session"
	"github.com/zhouzirui/z-meeting/internal/tui"
)

// statusTimeout bounds the status update sent after the view exits.
const statusTimeout = 5 * time.Second

func newMeetingCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Join live meetings",
	}

	var title string
	start := &cobra.Command{
		Use:   "start <profile-id>",
		Short: "Start a live meeting as a profile",
		Long: `Create a session for the profile and open the live meeting view.

Keys:
  enter   send the typed text as a meeting participant
  ctrl+s  simulate a question from another participant
  esc     end the meeting`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMeeting(cmd.Context(), args[0], title)
		},
	}
	start.Flags().StringVar(&title, "title", "", "Session title (defaults to \"Meeting with <name>\")")
	cmd.AddCommand(start)

	return cmd
}

func (a *app) runMeeting(ctx context.Context, profileID, title string) error {
	prof, err := a.client.GetProfile(ctx, profileID)
	if err != nil {
		return err
	}

	in := session.ForProfile(prof.ID, prof.Name)
	if title != "" {
		in.Title = title
	}
	sess, err := a.client.CreateSession(ctx, in)
	if err != nil {
		return err
	}

	liveURL, err := a.client.LiveURL(sess.ID)
	if err != nil {
		return err
	}

	synth, err := a.deps.NewSynthesizer(a.cfg.Client.SpeechMode, logging.Component(a.logger, "speech"))
	if err != nil {
		return err
	}

	logger := a.logger.With().Str("session_id", sess.ID).Logger()
	m := meeting.Start(ctx, liveURL, sess, prof, synth,
		meeting.WithLogger(logging.Component(logger, "live")),
		meeting.WithChannelOptions(live.WithPingInterval(a.cfg.Client.PingInterval)),
	)
	defer m.End()

	viewErr := a.deps.RunView(tui.New(m, sess.Title, prof.Name, prof.Role))
	m.End()

	statusCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusTimeout)
	defer cancel()
	if err := a.client.UpdateSessionStatus(statusCtx, sess.ID, session.StatusEnded); err != nil {
		logger.Warn().Err(err).Msg("failed to mark session ended")
	}

	if viewErr != nil {
		return fmt.Errorf("meeting view: %w", viewErr)
	}
	fmt.Fprintf(a.out(), "Meeting %q ended with %d turns.\n", sess.Title, len(m.Transcript()))
	return nil
}
