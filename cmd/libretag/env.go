package main

import (
	"fmt"
	"strings"

	"github.com/oukeidos/libretag/internal/auth"
	"github.com/spf13/cobra"
)

func newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage the LibreTranslate API key in the OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd)
		},
	}
	cmd.SetUsageTemplate(envUsageTemplate)
	cmd.AddCommand(
		&cobra.Command{
			Use:   "setup",
			Short: "Save API key to keychain (prompt only)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runEnvSetup(cmd)
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete key from keychain",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := auth.DeleteKey(); err != nil {
					return fmt.Errorf("error deleting key: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted LibreTranslate API key from keychain.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show key status (default if no action given)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runEnvStatus(cmd)
			},
		},
	)
	for _, sub := range cmd.Commands() {
		sub.SetUsageTemplate(subcommandUsageTemplate)
	}
	return cmd
}

func runEnvSetup(cmd *cobra.Command) error {
	promptKey, err := promptForKey("LibreTranslate API Key: ")
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	key := strings.TrimSpace(promptKey)
	if key == "" {
		return fmt.Errorf("API key is required for setup")
	}
	if err := auth.SaveKey(key); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved LibreTranslate API key to keychain.")
	return nil
}

func runEnvStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if hasKey() {
		fmt.Fprintln(out, "LibreTranslate API Key: Found (source=Keychain)")
		return nil
	}
	if _, ok := getEnvKey(); ok {
		fmt.Fprintf(out, "LibreTranslate API Key: Found (source=Environment Variable; disabled by default, use --allow-env)\n")
		return nil
	}
	fmt.Fprintf(out, "LibreTranslate API Key: Not Found (keychain empty, %s not set; anonymous requests are used)\n", auth.EnvVar)
	return nil
}
