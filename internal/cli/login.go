package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// loginCommand creates the login command, which stores a relay token.
func (c *CLI) loginCommand() *cobra.Command {
	var token, server, api string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the bearer token used to reach the relay",
		Long: `Store the bearer token used by watch and export.

Tokens are issued by whoever runs the relay. Without --token the token is
read from standard input. It is saved to ~/.config/whiteboard/credentials.json
and used whenever client.token is not set in the config or the environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				printPrompt("Token: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					fmt.Fprintln(stdout)
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return fmt.Errorf("empty token")
			}

			creds, err := newCredentialStore("")
			if err != nil {
				return err
			}
			cred := &credential{Token: token, Server: server, API: api, CreatedAt: time.Now().UTC()}
			if err := creds.Set(cred); err != nil {
				return err
			}
			c.Logger.Debug("saved credentials", "path", creds.Path())

			printSuccess("Token saved")
			printFile(creds.Path())
			if server != "" {
				printKeyValue("Relay", server)
			}
			if api != "" {
				printKeyValue("Storage", api)
			}
			printNextStep("Follow a board", "whiteboard watch <canvas-id>")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "bearer token (read from stdin if empty)")
	cmd.Flags().StringVar(&server, "server", "", "relay websocket URL to use with this token")
	cmd.Flags().StringVar(&api, "api", "", "storage API base URL to use with this token")
	return cmd
}

// logoutCommand creates the logout command.
func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := newCredentialStore("")
			if err != nil {
				return err
			}
			if err := creds.Delete(); err != nil {
				return err
			}
			printSuccess("Logged out")
			return nil
		},
	}
}
