package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Veraticus/postcat/internal/association"
	"github.com/Veraticus/postcat/internal/cli"
	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
	"github.com/Veraticus/postcat/internal/service"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
		Long:  `List and add categories, show the posts in a category, and count posts per category.`,
	}

	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(categoryPostsCmd())
	cmd.AddCommand(categoryCountsCmd())

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		slug        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if slug == "" {
				slug = common.Slugify(name)
			}

			return withService(cmd, func(ctx context.Context, store service.Storage, _ *association.Service) error {
				var category *model.Category
				err := retry(ctx, func() error {
					var err error
					category, err = store.CreateCategory(ctx, name, slug, description)
					return err
				})
				if err != nil {
					return fmt.Errorf("failed to create category: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created category %d: %s", category.ID, category.Name)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "URL slug (derived from the name when empty)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Category description")

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, store service.Storage, _ *association.Service) error {
				categories, err := store.GetCategories(ctx)
				if err != nil {
					return fmt.Errorf("failed to get categories: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.CategoriesTable(categories))
				return nil
			})
		},
	}
}

func categoryPostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "posts <categoryID>",
		Short: "Show the posts linked to a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryID, err := parseID(args[0], "category id")
			if err != nil {
				return err
			}

			return withService(cmd, func(ctx context.Context, _ service.Storage, svc *association.Service) error {
				posts, err := svc.ListPostsForCategory(ctx, categoryID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.PostsTable(posts))
				return nil
			})
		},
	}
}

func categoryCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Count posts per category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, store service.Storage, svc *association.Service) error {
				counts, err := svc.CountPostsByCategory(ctx)
				if err != nil {
					return err
				}
				categories, err := store.GetCategories(ctx)
				if err != nil {
					return fmt.Errorf("failed to get categories: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderCounts(categories, counts))
				return nil
			})
		},
	}
}

// renderCounts lists every category with its post count, most used first.
func renderCounts(categories []model.Category, counts map[int]int64) string {
	sorted := slices.Clone(categories)
	slices.SortStableFunc(sorted, func(a, b model.Category) int {
		switch {
		case counts[a.ID] > counts[b.ID]:
			return -1
		case counts[a.ID] < counts[b.ID]:
			return 1
		default:
			return 0
		}
	})

	rows := make([][]string, 0, len(sorted))
	for _, c := range sorted {
		rows = append(rows, []string{fmt.Sprint(c.ID), c.Name, fmt.Sprint(counts[c.ID])})
	}
	return cli.RenderTable([]string{"ID", "Category", "Posts"}, rows)
}
