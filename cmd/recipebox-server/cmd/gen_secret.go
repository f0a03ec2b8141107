package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaroslav/recipebox/pkg/token"
)

func newGenSecretCmd() *cobra.Command {
	var length int

	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Print a random secret for RECIPEBOX_SECRET_KEY",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := token.GenerateSecretWithLength(length)
			if err != nil {
				return fmt.Errorf("failed to generate secret: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}

	cmd.Flags().IntVar(&length, "bytes", token.DefaultSecretBytes, "Number of random bytes in the secret")
	return cmd
}
