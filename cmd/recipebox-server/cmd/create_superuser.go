package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaroslav/recipebox/internal/service"
	"github.com/yaroslav/recipebox/models"
	"github.com/yaroslav/recipebox/pkg/password"
	"github.com/yaroslav/recipebox/pkg/token"
)

func newCreateSuperuserCmd(a *app) *cobra.Command {
	var email, name, plain string

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create a staff user",
		Long: `Create a staff user that may manage other users.

The password is read from the first line of stdin when --password is not set.
Pending migrations are applied first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || name == "" {
				return errors.New("--email and --name are required")
			}
			if plain == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("--password is required (or pass it on stdin)")
				}
				plain = strings.TrimRight(line, "\r\n")
			}

			ctx := cmd.Context()
			db, err := a.openMigratedDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			users, err := service.NewUserService(db, a.logger, password.NewHasher(0), token.NewIssuer(a.cfg.SecretKey, a.cfg.TokenTTL))
			if err != nil {
				return err
			}

			user, err := users.CreateSuperuser(ctx, email, name, plain)
			switch {
			case errors.Is(err, models.ErrEmailExists), errors.Is(err, models.ErrPasswordTooShort):
				return err
			case err != nil:
				return fmt.Errorf("failed to create superuser: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Superuser created: %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&plain, "password", "", "Password, at least 5 characters")

	return cmd
}
