package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bizline/bizline/pkg/api"
)

var loginCodeLabel = color.New(color.FgHiYellow, color.Bold)
var lifecycleLabel = color.New(color.FgHiMagenta)

// newWatchCmd creates the watch command, which streams a tenant's lifecycle
// events and activity log until interrupted.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <tenant>",
		Short: "Stream a tenant's lifecycle events and activity log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			fmt.Printf("Watching %s. Press Ctrl-C to stop.\n", args[0])
			return client.WatchEvents(cmd.Context(), args[0], printStreamEvent)
		},
	}
}

func printStreamEvent(ev api.StreamEvent) error {
	switch ev.Event {
	case "lifecycle":
		printLifecycleEvent(ev.Data)
	case "log":
		PrettyPrintLogLine([]byte(ev.Data))
	default:
		fmt.Printf("%s: %s\n", ev.Event, ev.Data)
	}
	return nil
}

func printLifecycleEvent(data string) {
	lc := api.LifecycleData{}
	if err := json.Unmarshal([]byte(data), &lc); err != nil {
		fmt.Printf("lifecycle: %s\n", data)
		return
	}

	switch lc.Event {
	case "login-code":
		code, _ := lc.Data.(string)
		loginCodeLabel.Printf("\n  Login code: %s\n\n", code)
		fmt.Println("  Enter this code in the messaging app to link the account.")
	case "connected":
		identity := ""
		if m, ok := lc.Data.(map[string]any); ok {
			identity, _ = m["identity"].(string)
		}
		lifecycleLabel.Printf("Connected as %s\n", identity)
	case "disconnected":
		reason := ""
		if m, ok := lc.Data.(map[string]any); ok {
			reason, _ = m["reason"].(string)
		}
		lifecycleLabel.Printf("Disconnected (%s)\n", reason)
	case "logged-out":
		lifecycleLabel.Println("Logged out by the remote side. Stored login erased.")
	default:
		lifecycleLabel.Printf("%s\n", lc.Event)
	}
}
