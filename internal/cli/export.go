package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/storage"
)

// exportCommand creates the export command, which renders a stored board.
func (c *CLI) exportCommand() *cobra.Command {
	var formatsStr, api string
	opts := defaultRenderOpts()

	cmd := &cobra.Command{
		Use:   "export [canvas-id]",
		Short: "Fetch a board through the storage API and render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			canvasID := args[0]
			if err := errors.ValidateCanvasID(canvasID); err != nil {
				return err
			}
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			cfg, err := c.clientConfig()
			if err != nil {
				return err
			}
			if api == "" {
				api = cfg.Client.API
			}

			client := storage.NewClient(api, cfg.Client.Token)
			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching %s...", canvasID))
			spinner.Start()
			elements, err := client.Load(ctx, canvasID)
			if err != nil {
				spinner.StopWithError("Fetch failed")
				if code := errors.GetCode(err); code != "" {
					printDetail("%s", code)
				}
				return err
			}
			spinner.Stop()
			printSuccess("Fetched %s", StyleHighlight.Render(canvasID))

			return runRender(ctx, elements, canvasID, &opts)
		},
	}
	addRenderFlags(cmd, &opts, &formatsStr)
	cmd.Flags().StringVar(&api, "api", "", "storage API base URL (default from config)")
	return cmd
}
