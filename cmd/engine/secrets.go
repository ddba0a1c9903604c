package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vagahunter-engine/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage API keys in the OS keychain",
}

var secretsSetCmd = &cobra.Command{
	Use:       "set <provider>",
	Short:     "Store a provider API key read from stdin",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"gemini", "anthropic"},
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && strings.TrimSpace(key) == "" {
			return fmt.Errorf("read key from stdin: %w", err)
		}
		if err := secrets.SetAPIKey(args[0], key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s key in keychain\n", strings.ToLower(args[0]))
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove a provider API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return secrets.DeleteAPIKey(args[0])
	},
}

func init() {
	secretsCmd.AddCommand(secretsSetCmd, secretsDeleteCmd)
	rootCmd.AddCommand(secretsCmd)
}
