// Package cli implements the whiteboard command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/internal/config"
	"github.com/matzehuels/whiteboard/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// defaultMargin is the blank border around rendered boards (pixels).
	defaultMargin = 20
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Whiteboard is a collaborative drawing board",
		Long:         `Whiteboard keeps hand-drawn boards in sync between everyone viewing them. It runs the relay, renders boards to SVG, PNG or PDF, and follows a live board from the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/whiteboard/config.toml)")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.discoverCommand())
	root.AddCommand(c.loginCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	return cfg, nil
}

// clientConfig loads the configuration and fills in the stored token when
// neither the file nor the environment set one.
func (c *CLI) clientConfig() (*config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Client.Token != "" {
		return cfg, nil
	}
	creds, err := newCredentialStore("")
	if err != nil {
		c.Logger.Debug("no credential store", "err", err)
		return cfg, nil
	}
	cred, err := creds.Get()
	if err != nil {
		return nil, err
	}
	if cred != nil {
		cfg.Client.Token = cred.Token
		if cfg.Client.Server == config.Default().Client.Server && cred.Server != "" {
			cfg.Client.Server = cred.Server
		}
		if cfg.Client.API == config.Default().Client.API && cred.API != "" {
			cfg.Client.API = cred.API
		}
	}
	return cfg, nil
}
