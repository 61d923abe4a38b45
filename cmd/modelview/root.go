package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/modelview/internal/config"
	"github.com/dshills/modelview/internal/logging"
)

// globalFlags are the persistent flags of every command.
type globalFlags struct {
	configPath string
	logLevel   string
	statePath  string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "modelview",
		Short: "Browse asynchronous tree models",
		Long: `modelview shows a tree model in a terminal. Content and labels are
fetched asynchronously and reconciled incrementally as the model changes.

The model is either the built-in debugger sample or a Lua script (--lua).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", "", "Path to a TOML or YAML configuration file")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.statePath, "state", "", "Directory of the viewer state database")

	root.AddCommand(newRenderCmd(a), newRunCmd(a), newVersionCmd())
	return root
}

// init loads the configuration and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	if a.flags.statePath != "" {
		cfg.State.Path = a.flags.statePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    logging.Format(cfg.Log.Format),
		Output:    cmd.ErrOrStderr(),
		AddSource: cfg.Log.AddSource,
	})
	a.log.Debug("configuration loaded", "path", a.flags.configPath)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "modelview %s\nCommit: %s\nBuilt: %s\n", version, commit, date)
		},
	}
}
