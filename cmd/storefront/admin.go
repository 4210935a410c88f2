package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/service"
)

var adminPassword string

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <username>",
	Short: "Register a user with the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminPassword == "" {
			adminPassword = os.Getenv("ADMIN_PASSWORD")
		}
		if adminPassword == "" {
			return errors.New("password is required: use --password or ADMIN_PASSWORD")
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.auth.RegisterAdmin(cmd.Context(), args[0], adminPassword)
		if err != nil {
			if errors.Is(err, service.ErrConflict) {
				return fmt.Errorf("user %q already exists", args[0])
			}
			return err
		}
		logger.Info("admin_created", "user_id", user.ID, "username", user.Username)
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Push every product to the search index",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.catalog.Reindex(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("reindex_complete", "indexed", n)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "password of the new admin (default $ADMIN_PASSWORD)")
}
