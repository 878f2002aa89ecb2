package main

import (
	"context"
	"fmt"

	"github.com/oukeidos/libretag/internal/outcome"
	"github.com/spf13/cobra"
)

type statusOptions struct {
	records bool
}

func newStatusCmd(a *app) *cobra.Command {
	opts := statusOptions{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show record and outcome tag counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, a, &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().BoolVar(&opts.records, "records", false, "List every record with its outcome")
	return cmd
}

func runStatus(cmd *cobra.Command, a *app, opts *statusOptions) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	recs, err := st.Records(ctx)
	if err != nil {
		return err
	}
	counts, err := st.TagCounts(ctx, outcome.Namespace)
	if err != nil {
		return err
	}
	translated := 0
	for _, r := range recs {
		if r.TranslatedText != "" {
			translated++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Records: %d\n", len(recs))
	fmt.Fprintf(out, "Translated: %d\n", translated)
	fmt.Fprintln(out, "Tags:")
	for _, o := range outcome.Tagged {
		tag, _ := outcome.Tag(o)
		fmt.Fprintf(out, "  %-35s %d\n", tag, counts[tag])
	}

	if !opts.records {
		return nil
	}
	fmt.Fprintln(out, "\nRecords:")
	for _, r := range recs {
		tags, err := st.Tags(ctx, r.ID)
		if err != nil {
			return err
		}
		state := "-"
		for _, t := range tags {
			if o, ok := outcome.Parse(t); ok {
				state = o.String()
			}
		}
		fmt.Fprintf(out, "  %s  %-20s %s\n", r.ID, state, r.Name)
	}
	return nil
}
