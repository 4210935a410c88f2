package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pkgdb.Close(db)

		if err := db.WithContext(cmd.Context()).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrate_complete")
		return nil
	},
}

// defaultCategories are the categories every product kind is filed under.
var defaultCategories = []models.Category{
	{Name: "Ноутбуки", Slug: "laptops"},
	{Name: "Телефоны", Slug: "phones"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default categories when they are missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pkgdb.Close(db)

		n, err := seedCategories(cmd.Context(), repo.New(db))
		if err != nil {
			return err
		}
		logger.Info("seed_complete", "created", n)
		return nil
	},
}

func seedCategories(ctx context.Context, r *repo.GormRepo) (int, error) {
	created := 0
	for _, c := range defaultCategories {
		_, err := r.GetCategoryBySlug(ctx, c.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}
		if err := r.CreateCategory(ctx, &c); err != nil {
			return created, fmt.Errorf("create category %s: %w", c.Slug, err)
		}
		created++
	}
	return created, nil
}
