package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/postcat/internal/association"
	"github.com/Veraticus/postcat/internal/cli"
	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
	"github.com/Veraticus/postcat/internal/service"
)

func postsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage posts",
		Long:  `List and add posts, and show the categories a post is linked to.`,
	}

	cmd.AddCommand(addPostCmd())
	cmd.AddCommand(listPostsCmd())
	cmd.AddCommand(postCategoriesCmd())

	return cmd
}

func addPostCmd() *cobra.Command {
	var slug string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a new post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := args[0]
			if slug == "" {
				slug = common.Slugify(title)
			}

			return withService(cmd, func(ctx context.Context, store service.Storage, _ *association.Service) error {
				var post *model.Post
				err := retry(ctx, func() error {
					var err error
					post, err = store.CreatePost(ctx, title, slug)
					return err
				})
				if err != nil {
					return fmt.Errorf("failed to create post: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created post %d: %s", post.ID, post.Title)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "URL slug (derived from the title when empty)")

	return cmd
}

func listPostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all posts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, store service.Storage, _ *association.Service) error {
				posts, err := store.GetPosts(ctx)
				if err != nil {
					return fmt.Errorf("failed to get posts: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.PostsTable(posts))
				return nil
			})
		},
	}
}

func postCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories <postID>",
		Short: "Show the categories linked to a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID(args[0], "post id")
			if err != nil {
				return err
			}

			return withService(cmd, func(ctx context.Context, _ service.Storage, svc *association.Service) error {
				categories, err := svc.ListCategoriesForPost(ctx, postID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.CategoriesTable(categories))
				return nil
			})
		},
	}
}
