package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/service"
	"github.com/yaroslav/recipebox/pkg/password"
	"github.com/yaroslav/recipebox/pkg/token"
)

func newVerifyTokenCmd(a *app) *cobra.Command {
	var (
		raw       string
		checkUser bool
	)

	cmd := &cobra.Command{
		Use:   "verify-token",
		Short: "Validate an access token against the configured secret",
		Long: `Check the signature and expiry of an access token and print its user id
and expiry. With --check-user the user must also exist and be active.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if raw == "" {
				return errors.New("--token is required")
			}
			if err := token.ValidateSecret(a.cfg.SecretKey); err != nil {
				return fmt.Errorf("invalid secret key: %w", err)
			}

			out := cmd.OutOrStdout()
			issuer := token.NewIssuer(a.cfg.SecretKey, a.cfg.TokenTTL)

			claims, err := issuer.Parse(raw)
			if err != nil {
				fmt.Fprintln(out, "Token verification FAILED")
				fmt.Fprintf(out, "  Reason: %v\n", err)
				a.logger.Warn("token verification failed", zap.Error(err))
				return fmt.Errorf("token verification failed: %w", err)
			}

			if checkUser {
				db, err := a.openDB()
				if err != nil {
					return err
				}
				defer db.Close()

				users, err := service.NewUserService(db, a.logger, password.NewHasher(0), issuer)
				if err != nil {
					return err
				}
				if _, err := users.UserFromToken(cmd.Context(), raw); err != nil {
					fmt.Fprintln(out, "Token verification FAILED")
					fmt.Fprintln(out, "  Reason: user is missing or inactive")
					return fmt.Errorf("token verification failed: %w", err)
				}
			}

			fmt.Fprintln(out, "Token verification SUCCESSFUL")
			fmt.Fprintf(out, "  User ID: %d\n", claims.UserID)
			fmt.Fprintf(out, "  Expires: %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&raw, "token", "", "Access token to verify (required)")
	cmd.Flags().BoolVar(&checkUser, "check-user", false, "Also require the user to exist and be active")

	return cmd
}
