package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bizline/bizline/pkg/api"
)

// newTenantCmd creates the tenant command with its subcommands.
func newTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenant messaging sessions",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	cmd.AddCommand(newTenantListCmd())
	cmd.AddCommand(newTenantStartCmd())
	cmd.AddCommand(newTenantStopCmd())
	cmd.AddCommand(newTenantDeleteCmd())
	return cmd
}

func newTenantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tenant sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			tenants, err := client.ListTenants(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				printJSON(tenants)
				return nil
			}

			if len(tenants) == 0 {
				fmt.Println("No tenant sessions.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TENANT\tSTATE\tIDENTITY\tLOGIN CODE")
			for _, t := range tenants {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.TenantID, t.State, t.Identity, t.LoginCode)
			}
			return w.Flush()
		},
	}
}

func newTenantStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <tenant>",
		Short: "Start or resume a tenant's messaging session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			status, err := client.StartSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				printJSON(status)
				return nil
			}

			okLabel.Printf("Session for %s is %s.\n", status.TenantID, status.State)
			if !status.Connected {
				fmt.Printf("Run \"bizline watch %s\" to see the login code when it arrives.\n", status.TenantID)
			}
			return nil
		},
	}
}

func newTenantStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <tenant>",
		Short: "Stop a tenant's session, keeping the stored login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			if err := client.StopSession(cmd.Context(), args[0]); err != nil {
				return err
			}

			if jsonOutput {
				printJSON(&api.StopSessionResponse{Stopped: true})
				return nil
			}
			okLabel.Printf("Session for %s stopped.\n", args[0])
			return nil
		},
	}
}

func newTenantDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tenant>",
		Short: "Stop a tenant's session and erase its stored login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			if err := client.DeleteTenant(cmd.Context(), args[0]); err != nil {
				return err
			}

			if jsonOutput {
				printJSON(&api.DeleteTenantResponse{Deleted: true})
				return nil
			}
			okLabel.Printf("Tenant %s deleted. The next start will require a fresh login.\n", args[0])
			return nil
		},
	}
}
