package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/postcat/internal/association"
	"github.com/Veraticus/postcat/internal/cli"
	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
	"github.com/Veraticus/postcat/internal/service"
)

func linksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage post/category links",
		Long:  `Create, list, group and remove the links between posts and categories.`,
	}

	cmd.AddCommand(addLinksCmd())
	cmd.AddCommand(listLinksCmd())
	cmd.AddCommand(groupedLinksCmd())
	cmd.AddCommand(removeLinksCmd())

	return cmd
}

func addLinksCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "add <postID> <categoryID>...",
		Short: "Link a post to one or more categories",
		Long: `Link a post to every given category in a single atomic batch.

Linking a pair that already exists fails the whole batch. Use --replace to
drop the post's existing links first; both steps share one transaction.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID(args[0], "post id")
			if err != nil {
				return err
			}
			categoryIDs, err := parseIDs(args[1:], "category id")
			if err != nil {
				return err
			}

			return withService(cmd, func(ctx context.Context, store service.Storage, svc *association.Service) error {
				var created []model.Link
				err := retry(ctx, func() error {
					var err error
					if replace {
						created, err = replaceLinks(ctx, store, postID, categoryIDs)
					} else {
						created, err = svc.CreateLinks(ctx, postID, categoryIDs)
					}
					return err
				})
				if err != nil {
					return linkError(err, postID)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Linked post %d to %d categories", postID, len(created))))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Remove the post's existing links before linking")

	return cmd
}

// replaceLinks removes a post's links and creates the new ones in one transaction.
func replaceLinks(ctx context.Context, store service.Storage, postID int, categoryIDs []int) ([]model.Link, error) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	svc := association.NewFromStorage(tx)
	removed, err := svc.RemoveLinksForPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	created, err := svc.CreateLinks(ctx, postID, categoryIDs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("replaced post links", "post_id", postID, "removed", removed, "created", len(created))
	return created, nil
}

// linkError explains the common failure of linking an existing or unknown pair.
func linkError(err error, postID int) error {
	if errors.Is(err, common.ErrConstraintViolation) {
		return common.NewUserError(
			fmt.Sprintf("post %d is already linked to one of these categories, or a post or category does not exist (use --replace to relink)", postID),
			err)
	}
	return err
}

func listLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <postID>",
		Short: "List the raw links of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID(args[0], "post id")
			if err != nil {
				return err
			}

			return withService(cmd, func(ctx context.Context, _ service.Storage, svc *association.Service) error {
				links, err := svc.ListLinksForPost(ctx, postID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.LinksTable(links))
				return nil
			})
		},
	}
}

func groupedLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grouped <postID>...",
		Short: "Show the categories of several posts at once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postIDs, err := parseIDs(args, "post id")
			if err != nil {
				return err
			}

			return withService(cmd, func(ctx context.Context, _ service.Storage, svc *association.Service) error {
				grouped, err := svc.ListCategoriesGroupedByPost(ctx, postIDs)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderGrouped(postIDs, grouped))
				return nil
			})
		},
	}
}

// renderGrouped prints one row per requested post in ascending id order.
func renderGrouped(postIDs []int, grouped map[int][]*model.Category) string {
	ids := model.DistinctIDs(postIDs)
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		categories, ok := grouped[id]
		list := cli.SubtleStyle.Render("(none)")
		if ok {
			list = cli.CategoryList(categories)
		}
		rows = append(rows, []string{fmt.Sprint(id), list})
	}
	return cli.RenderTable([]string{"Post", "Categories"}, rows)
}

func removeLinksCmd() *cobra.Command {
	var postID, categoryID int

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove every link of a post or of a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, _ service.Storage, svc *association.Service) error {
				var (
					deleted int64
					target  string
				)
				err := retry(ctx, func() error {
					var err error
					if cmd.Flags().Changed("post") {
						target = fmt.Sprintf("post %d", postID)
						deleted, err = svc.RemoveLinksForPost(ctx, postID)
					} else {
						target = fmt.Sprintf("category %d", categoryID)
						deleted, err = svc.RemoveLinksForCategory(ctx, categoryID)
					}
					return err
				})
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Removed %d links from %s", deleted, target)))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&postID, "post", 0, "Post whose links are removed")
	cmd.Flags().IntVar(&categoryID, "category", 0, "Category whose links are removed")
	cmd.MarkFlagsMutuallyExclusive("post", "category")
	cmd.MarkFlagsOneRequired("post", "category")

	return cmd
}
