package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bizline/bizline/pkg/api"
)

// newSendCmd creates the send command.
func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <tenant> <recipient> <message>...",
		Short: "Send a message through a tenant's open session",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			req := &api.SendMessageRequest{
				Recipient: args[1],
				Content:   strings.Join(args[2:], " "),
			}
			if err := client.SendMessage(cmd.Context(), args[0], req); err != nil {
				return err
			}

			if jsonOutput {
				printJSON(&api.SendMessageResponse{Delivered: true})
				return nil
			}
			okLabel.Printf("Message delivered to %s.\n", req.Recipient)
			return nil
		},
	}
}
