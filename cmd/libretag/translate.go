package main

import (
	"fmt"
	"io"

	"github.com/oukeidos/libretag/internal/config"
	"github.com/oukeidos/libretag/internal/limit"
	"github.com/oukeidos/libretag/internal/logger"
	"github.com/oukeidos/libretag/internal/pipeline"
	"github.com/oukeidos/libretag/internal/store"
	"github.com/spf13/cobra"
)

type translateOptions struct {
	allowEnv bool
	envOnly  bool
	report   string
	ids      []string
}

func newTranslateCmd(a *app) *cobra.Command {
	opts := translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate imported records with LibreTranslate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, a, &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)

	d := pipeline.DefaultSettings()
	f := cmd.Flags()
	f.String("api-url", "", "LibreTranslate translate endpoint, e.g. http://localhost:5000/translate")
	f.Int("timeout", d.HTTPTimeoutSeconds, "Timeout in seconds for getting text and for each request")
	f.Int("char-limit", d.CharLimit, "Character limit per record")
	f.String("limit-behavior", string(d.LimitBehavior), "Text over the limit: Ignore, Skip or Truncate")
	f.Bool("count-graphemes", false, "Count user-perceived characters instead of code points")
	f.String("source", d.SourceLanguage, "Source language code or name (auto detects)")
	f.String("target", d.TargetLanguage, "Target language code or name")
	f.Bool("tag-success", false, "Tag items which are successfully translated")
	f.Bool("tag-failure", false, "Tag items which couldn't be translated")
	f.BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading the API key from LIBRETRANSLATE_API_KEY")
	f.BoolVar(&opts.envOnly, "env-only", false, "Use only LIBRETRANSLATE_API_KEY for the API key")
	f.StringVar(&opts.report, "report", "", "Write a JSON run report to this path")
	f.StringSliceVar(&opts.ids, "id", nil, "Translate only these record ids (repeatable)")
	return cmd
}

func runTranslate(cmd *cobra.Command, a *app, opts *translateOptions) error {
	settings := config.Settings(a.v)
	key, source, err := resolveAPIKey(opts.allowEnv, opts.envOnly)
	if err != nil {
		return err
	}
	if source != "" {
		logger.Info("Using API key", "source", source)
	}
	settings.APIKey = key

	normalized, _ := settings.Normalize()
	if err := normalized.Validate(); err != nil {
		return err
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, aborted, stop := signalAbort()
	defer stop()

	recs, err := st.Records(ctx, opts.ids...)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "No records to translate. Run 'libretag import' first.")
		return nil
	}
	records := make([]pipeline.Record, len(recs))
	for i, r := range recs {
		records[i] = pipeline.Record{ID: r.ID, Label: r.Name}
	}

	var result pipeline.Result
	err = st.WithWriteAccess(ctx, func(sess store.Session) error {
		var err error
		result, err = pipeline.New(settings, nil).Run(ctx, sess, records, newCLIProgress(len(records), aborted))
		return err
	})
	if err != nil {
		return err
	}

	printSummary(out, result, normalized.LimitBehavior)
	if opts.report != "" {
		if err := pipeline.WriteReport(opts.report, result); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report: %s\n", opts.report)
	}
	return nil
}

func printSummary(w io.Writer, r pipeline.Result, behavior limit.Behavior) {
	fmt.Fprintln(w, "\n--- Translation Summary ---")
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "Processed: %d of %d\n", r.Processed, r.Total)
	fmt.Fprintf(w, "Succeeded: %d\n", r.Succeeded)
	fmt.Fprintf(w, "Failed: %d\n", r.Failed)
	if behavior != limit.Ignore {
		fmt.Fprintf(w, "Skipped: %d\n", r.Skipped)
		fmt.Fprintf(w, "Truncated: %d\n", r.Truncated)
	}
	if r.FailedGettingText > 0 {
		fmt.Fprintf(w, "Failed getting text: %d\n", r.FailedGettingText)
	}
	if r.Unchanged > 0 {
		fmt.Fprintf(w, "Empty: %d\n", r.Unchanged)
	}
	if r.StoreErrors > 0 {
		fmt.Fprintf(w, "Store errors: %d\n", r.StoreErrors)
	}
	if r.Aborted {
		fmt.Fprintln(w, "Aborted before all records were processed.")
	}
}
