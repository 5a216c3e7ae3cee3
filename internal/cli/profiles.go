package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-meeting/internal/model/profile"
)

func newProfilesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Short:   "Manage AI profiles",
		Aliases: []string{"profile"},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List profiles",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := a.client.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			return render(a.out(), a.format(), profiles, func(w io.Writer) error {
				return printProfiles(w, profiles)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <profile-id>",
		Short: "Show one profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(a.out(), a.format(), p, func(w io.Writer) error {
				return printProfile(w, p)
			})
		},
	})

	cmd.AddCommand(newProfileCreateCommand(a))

	cmd.AddCommand(&cobra.Command{
		Use:     "delete <profile-id>",
		Short:   "Delete a profile",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteProfile(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out(), "Deleted profile %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func newProfileCreateCommand(a *app) *cobra.Command {
	var (
		in     profile.Input
		topics string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a profile",
		Long: `Create a profile describing the persona the assistant acts as.

Examples:
  meetingctl profiles create --name Sarah --role "Product Manager" \
    --personality "calm, precise" --style "short answers" --topics "roadmap, hiring"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.MeetingTopics = profile.ParseTopics(topics)
			p, err := a.client.CreateProfile(cmd.Context(), in)
			if err != nil {
				return err
			}
			return render(a.out(), a.format(), p, func(w io.Writer) error {
				fmt.Fprintf(w, "Created profile %s\n", p.ID)
				return printProfile(w, p)
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&in.Role, "role", "", "Role in meetings (required)")
	cmd.Flags().StringVar(&in.Personality, "personality", "", "Personality description")
	cmd.Flags().StringVar(&in.ResponseStyle, "style", "", "Response style")
	cmd.Flags().StringVar(&topics, "topics", "", "Comma separated meeting topics")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func printProfiles(w io.Writer, profiles []profile.Profile) error {
	if len(profiles) == 0 {
		_, err := fmt.Fprintln(w, "No profiles.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tROLE\tTOPICS")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Role, orDash(strings.Join(p.MeetingTopics, ", ")))
	}
	return tw.Flush()
}

func printProfile(w io.Writer, p profile.Profile) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", p.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "Role:\t%s\n", p.Role)
	fmt.Fprintf(tw, "Personality:\t%s\n", orDash(p.Personality))
	fmt.Fprintf(tw, "Response style:\t%s\n", orDash(p.ResponseStyle))
	fmt.Fprintf(tw, "Topics:\t%s\n", orDash(strings.Join(p.MeetingTopics, ", ")))
	fmt.Fprintf(tw, "Created:\t%s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"))
	return tw.Flush()
}
