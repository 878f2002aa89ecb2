package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oukeidos/libretag/internal/config"
	"github.com/oukeidos/libretag/internal/files"
	"github.com/oukeidos/libretag/internal/ingest"
	"github.com/oukeidos/libretag/internal/language"
	"github.com/oukeidos/libretag/internal/logger"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	lang string
	yes  bool
}

func newExportCmd(a *app) *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export <source-file> [output-file]",
		Short: "Write stored translations of an imported file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, a, args, &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.lang, "lang", "", "Language suffix for the default output name (default: configured target)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Overwrite output file without asking")
	return cmd
}

func runExport(cmd *cobra.Command, a *app, args []string, opts *exportOptions) error {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve source path: %w", err)
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	all, err := st.Records(context.Background())
	if err != nil {
		return err
	}
	var translations []string
	for _, r := range all {
		if r.Source == source {
			translations = append(translations, r.TranslatedText)
		}
	}
	if len(translations) == 0 {
		return fmt.Errorf("no records were imported from %s", args[0])
	}
	subtitle := ingest.IsSubtitle(source)
	if !subtitle && translations[0] == "" {
		return fmt.Errorf("%s has no translation yet; run 'libretag translate' first", args[0])
	}

	out, err := exportPath(a, args, opts)
	if err != nil {
		return err
	}
	if _, err := os.Stat(out); err == nil {
		ok, err := confirmer().ConfirmOverwrite(out, opts.yes)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("Output file exists. Aborted by user.", "path", out)
			return nil
		}
	}

	if subtitle {
		err = ingest.Export(source, out, translations)
	} else {
		err = files.AtomicWrite(out, []byte(translations[0]), 0o644)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s\n", len(translations), out)
	return nil
}

func exportPath(a *app, args []string, opts *exportOptions) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}
	lang := opts.lang
	if lang == "" {
		lang = a.v.GetString(config.KeyTargetLang)
	}
	if l, ok := language.Resolve(lang); ok {
		lang = l.Code
	}
	return ingest.OutputPath(args[0], lang)
}
