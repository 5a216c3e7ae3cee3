package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-meeting/internal/model/voice"
)

func newVoiceCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Manage voice samples",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List uploaded voice samples",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			voices, err := a.client.ListVoiceProfiles(cmd.Context())
			if err != nil {
				return err
			}
			return render(a.out(), a.format(), voices, func(w io.Writer) error {
				return printVoices(w, voices)
			})
		},
	})

	cmd.AddCommand(newVoiceUploadCommand(a))
	cmd.AddCommand(newVoiceSynthesizeCommand(a))

	return cmd
}

func newVoiceUploadCommand(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <audio-file>",
		Short: "Upload an audio or video sample for voice cloning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open audio file: %w", err)
			}
			defer f.Close()

			if name == "" {
				name = filepath.Base(args[0])
			}
			v, err := a.client.UploadVoice(cmd.Context(), name, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return render(a.out(), a.format(), v, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Uploaded voice %q (%s)\n", v.Name, v.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Voice sample name (defaults to the file name)")
	return cmd
}

func newVoiceSynthesizeCommand(a *app) *cobra.Command {
	var voiceID string

	cmd := &cobra.Command{
		Use:   "synthesize <text>",
		Short: "Request speech synthesis for text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.client.Synthesize(cmd.Context(), args[0], voiceID)
			if err != nil {
				return err
			}
			return render(a.out(), a.format(), out, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, out.Message)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&voiceID, "voice", "", "Voice profile ID")
	return cmd
}

func printVoices(w io.Writer, voices []voice.Profile) error {
	if len(voices) == 0 {
		_, err := fmt.Fprintln(w, "No voice samples.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tDURATION\tCREATED")
	for _, v := range voices {
		fmt.Fprintf(tw, "%s\t%s\t%.1fs\t%s\n", v.ID, v.Name, v.Duration, v.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
