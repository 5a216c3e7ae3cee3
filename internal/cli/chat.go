package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <session-id> <message>",
		Short: "Send one message without joining the live meeting",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := a.client.Chat(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return render(a.out(), a.format(), reply, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, reply.Message)
				return err
			})
		},
	}
}
