package main

import (
	"context"
	"fmt"

	"github.com/oukeidos/libretag/internal/config"
	"github.com/oukeidos/libretag/internal/outcome"
	"github.com/spf13/cobra"
)

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove all outcome tags and stored translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirmer().ConfirmReset(config.DBPath(a.v), yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled.")
				return nil
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.Reset(context.Background(), outcome.Namespace)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d tag(s) and all stored translations.\n", n)
			return nil
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Reset without asking")
	return cmd
}
