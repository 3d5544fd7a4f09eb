package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the status command. With no arguments it reports the
// server version; with a tenant it reports that tenant's session status.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [tenant]",
		Short: "Show server status or a tenant's session status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				version, err := client.Version(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					printJSON(version)
					return nil
				}
				fmt.Printf("Server:  %s\n", version.ServerVersion)
				fmt.Printf("API:     %s\n", version.APIVersion)
				return nil
			}

			status, err := client.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				printJSON(status)
				return nil
			}

			fmt.Printf("Tenant:    %s\n", status.TenantID)
			fmt.Printf("State:     %s\n", status.State)
			if status.Identity != "" {
				fmt.Printf("Identity:  %s\n", status.Identity)
			}
			if status.LoginCode != "" {
				fmt.Printf("Login code: %s\n", status.LoginCode)
			}
			if status.ReconnectAttempts > 0 {
				fmt.Printf("Reconnect attempts: %d\n", status.ReconnectAttempts)
			}
			return nil
		},
	}
}
