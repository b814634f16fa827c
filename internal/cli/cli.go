// Package cli implements the pedigree command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/pkg/buildinfo"
	"github.com/matzehuels/pedigree/pkg/config"
	"github.com/matzehuels/pedigree/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

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
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the family, cache and
// HTTP hooks report through the logger as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level > LogDebug {
		observability.Reset()
		return
	}
	observability.SetAll(observability.NewLogHooks(c.Logger))
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Pedigree manages family trees and their patient links",
		Long: `Pedigree stores family-tree documents together with their rendered SVG
and keeps both consistent when patient links are removed.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pedigree/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the image cache")

	// Commands taking a family id as their first argument.
	for _, cmd := range []*cobra.Command{
		c.exportCommand(),
		c.idsCommand(),
		c.propsCommand(),
		c.patientsCommand(),
		c.checkCommand(),
		c.imageCommand(),
		c.previewCommand(),
		c.unlinkCommand(),
	} {
		cmd.ValidArgsFunction = c.completeFamilyIDs
		root.AddCommand(cmd)
	}

	root.AddCommand(c.familiesCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the file named by --config, or the default one.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	return cfg, nil
}
