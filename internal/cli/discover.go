package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/internal/server"
)

// discoverCommand creates the discover command, which lists relays on the
// local network.
func (c *CLI) discoverCommand() *cobra.Command {
	var service string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find relays advertised on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			spinner := newSpinnerWithContext(ctx, "Browsing the local network...")
			spinner.Start()
			relays, err := server.Discover(ctx, service, timeout)
			if err != nil {
				spinner.StopWithError("Browse failed")
				return err
			}
			spinner.Stop()

			if len(relays) == 0 {
				printWarning("No relays found")
				printDetail("Start one with 'whiteboard serve --advertise'")
				return nil
			}
			printSuccess("Found %d relay(s)", len(relays))
			for _, r := range relays {
				printKeyValue(r.Instance, StyleLink.Render(r.URL()))
			}
			printNextStep("Connect", fmt.Sprintf("WHITEBOARD_SERVER=%s whiteboard watch <canvas-id>", relays[0].URL()))
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", server.DefaultService, "mDNS service type")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "how long to browse")
	return cmd
}
