package main

import (
	"fmt"
	"io"
	"os"

	"github.com/oukeidos/libretag/internal/cleanup"
	"github.com/oukeidos/libretag/internal/config"
	"github.com/oukeidos/libretag/internal/files"
	"github.com/oukeidos/libretag/internal/logger"
	"github.com/oukeidos/libretag/internal/store"
	"github.com/oukeidos/libretag/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func execute() {
	cmd := newRootCmd()
	err := cmd.Execute()
	if cleanupErr := cleanup.RunAll(); cleanupErr != nil {
		fmt.Fprintln(os.Stderr, cleanupErr)
		if err == nil {
			err = cleanupErr
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	cfgFile     string
	dbPath      string
	logFilePath string
	debug       bool
}

// app carries state shared by every subcommand.
type app struct {
	opts rootOptions
	v    *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "libretag",
		Short: "Translate records with LibreTranslate and tag the outcome",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(rootUsageTemplate)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.cfgFile, "config", "", "Config file (default $HOME/.libretag.yaml or ./.libretag.yaml)")
	pf.StringVar(&a.opts.dbPath, "db", config.DefaultDB, "Record database path")
	pf.StringVar(&a.opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")
	pf.BoolVar(&a.opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newImportCmd(a),
		newTranslateCmd(a),
		newExportCmd(a),
		newStatusCmd(a),
		newResetCmd(a),
		newListCmd(),
		newEnvCmd(),
		newAboutCmd(),
	)

	cmd.InitDefaultCompletionCmd()
	for _, sub := range cmd.Commands() {
		if sub.Name() == "completion" {
			sub.SetUsageTemplate(subcommandUsageTemplate)
			break
		}
	}
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	logLevel := logger.LevelInfo
	if a.opts.debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if a.opts.logFilePath != "" {
		if err := files.CheckPath(a.opts.logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(a.opts.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register("log file", f.Close)
		logFileW = f
	}
	logger.Init(logLevel, logFileW)

	a.v = config.New()
	used, err := config.ReadFile(a.v, a.opts.cfgFile)
	if err != nil {
		return err
	}
	if used != "" {
		logger.Debug("Using config file", "path", used)
	}
	return config.BindFlags(a.v, cmd.Flags())
}

func (a *app) openStore() (*store.SQLite, error) {
	path := config.DBPath(a.v)
	if err := files.CheckPath(path); err != nil {
		return nil, err
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened record database", "path", path)
	return st, nil
}
