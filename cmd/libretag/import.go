package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oukeidos/libretag/internal/ingest"
	"github.com/oukeidos/libretag/internal/logger"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import text or subtitle files as records, replacing earlier imports of the same file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, a, args)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func runImport(cmd *cobra.Command, a *app, paths []string) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", p, err)
		}
		recs, err := ingest.Load(abs)
		if err != nil {
			return err
		}
		ids, removed, err := st.ReplaceSource(ctx, abs, recs)
		if err != nil {
			return err
		}
		logger.Info("Imported records", "path", abs, "count", len(ids), "replaced", removed)
		if removed > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Replaced %d record(s) previously imported from %s\n", removed, p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d record(s) from %s\n", len(ids), p)
	}
	return nil
}
