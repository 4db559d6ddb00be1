package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Veraticus/postcat/internal/association"
	"github.com/Veraticus/postcat/internal/cli"
	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
	"github.com/Veraticus/postcat/internal/service"
)

// fixture is the JSON document accepted by the import command.
type fixture struct {
	Categories []fixtureCategory `json:"categories"`
	Posts      []fixturePost     `json:"posts"`
}

type fixtureCategory struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type fixturePost struct {
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Categories []string `json:"categories"`
}

// importStats counts what an import created and skipped.
type importStats struct {
	CategoriesCreated int
	CategoriesSkipped int
	PostsCreated      int
	PostsSkipped      int
	LinksCreated      int
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import posts, categories and links from a JSON fixture",
		Long: `Import categories and posts from a JSON document and link each post to
its named categories.

Categories are matched by name and posts by slug, so running the same import
twice creates nothing new.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readFixture(args[0])
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Rows imported so far were kept. Re-run the import to finish.")
			ctx, stop := handler.HandleInterrupts(cmd.Context())
			defer stop()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			progress := cli.NewProgress(cmd.ErrOrStderr(), len(doc.Categories)+len(doc.Posts), "Importing...")
			stats, err := runImport(ctx, store, doc, progress.Step)
			if err != nil {
				if handler.WasInterrupted() {
					return common.NewUserError("import interrupted", err)
				}
				return err
			}
			progress.Finish()

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Import complete", fmt.Sprintf(
				"Categories: %d created, %d existing\nPosts:      %d created, %d existing\nLinks:      %d created",
				stats.CategoriesCreated, stats.CategoriesSkipped,
				stats.PostsCreated, stats.PostsSkipped,
				stats.LinksCreated)))
			return nil
		},
	}
}

func readFixture(path string) (*fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()

	return decodeFixture(f)
}

func decodeFixture(r io.Reader) (*fixture, error) {
	var doc fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, common.NewUserError("fixture is not valid JSON", err)
	}

	for i, c := range doc.Categories {
		if c.Name == "" {
			return nil, common.NewUserError(fmt.Sprintf("category %d has no name", i), common.ErrInvalidArgument)
		}
		if c.Slug == "" {
			doc.Categories[i].Slug = common.Slugify(c.Name)
		}
	}
	for i, p := range doc.Posts {
		if p.Title == "" {
			return nil, common.NewUserError(fmt.Sprintf("post %d has no title", i), common.ErrInvalidArgument)
		}
		if p.Slug == "" {
			doc.Posts[i].Slug = common.Slugify(p.Title)
		}
	}
	return &doc, nil
}

// runImport creates missing categories and posts, then links each post to
// the categories it names that it is not yet linked to. step is called once
// per category and once per post.
func runImport(ctx context.Context, store service.Storage, doc *fixture, step func()) (importStats, error) {
	var stats importStats
	svc := association.NewFromStorage(store)

	categoryIDs := make(map[string]int)
	for _, c := range doc.Categories {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		existing, err := store.GetCategoryByName(ctx, c.Name)
		switch {
		case err == nil:
			categoryIDs[c.Name] = existing.ID
			stats.CategoriesSkipped++
		case errors.Is(err, common.ErrNotFound):
			var created *model.Category
			err = retry(ctx, func() error {
				var err error
				created, err = store.CreateCategory(ctx, c.Name, c.Slug, c.Description)
				return err
			})
			if err != nil {
				return stats, fmt.Errorf("failed to import category %q: %w", c.Name, err)
			}
			categoryIDs[c.Name] = created.ID
			stats.CategoriesCreated++
		default:
			return stats, fmt.Errorf("failed to look up category %q: %w", c.Name, err)
		}
		step()
	}

	posts, err := store.GetPosts(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get posts: %w", err)
	}
	postsBySlug := make(map[string]model.Post, len(posts))
	for _, p := range posts {
		postsBySlug[p.Slug] = p
	}

	for _, p := range doc.Posts {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		post, ok := postsBySlug[p.Slug]
		if ok {
			stats.PostsSkipped++
		} else {
			var created *model.Post
			err := retry(ctx, func() error {
				var err error
				created, err = store.CreatePost(ctx, p.Title, p.Slug)
				return err
			})
			if err != nil {
				return stats, fmt.Errorf("failed to import post %q: %w", p.Title, err)
			}
			post = *created
			postsBySlug[post.Slug] = post
			stats.PostsCreated++
		}

		wanted, err := resolveCategories(ctx, store, categoryIDs, p.Categories)
		if err != nil {
			return stats, fmt.Errorf("post %q: %w", p.Title, err)
		}
		linked, err := linkMissing(ctx, svc, post.ID, wanted)
		if err != nil {
			return stats, fmt.Errorf("failed to link post %q: %w", p.Title, err)
		}
		stats.LinksCreated += linked
		step()
	}

	slog.Info("import finished",
		"categories_created", stats.CategoriesCreated,
		"posts_created", stats.PostsCreated,
		"links_created", stats.LinksCreated)
	return stats, nil
}

// resolveCategories maps category names to ids, consulting the store for
// names that were not part of the fixture.
func resolveCategories(ctx context.Context, store service.CategoryStore, known map[string]int, names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id, ok := known[name]
		if !ok {
			c, err := store.GetCategoryByName(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("unknown category %q: %w", name, err)
			}
			id = c.ID
			known[name] = id
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// linkMissing links a post to the given categories it is not linked to yet
// and returns how many links were created.
func linkMissing(ctx context.Context, svc *association.Service, postID int, categoryIDs []int) (int, error) {
	existing, err := svc.ListLinksForPost(ctx, postID)
	if err != nil {
		return 0, err
	}
	have := model.CategoryIDs(existing)

	missing := slices.DeleteFunc(slices.Clone(categoryIDs), func(id int) bool {
		_, found := slices.BinarySearch(have, id)
		return found
	})
	if len(missing) == 0 {
		return 0, nil
	}

	var created []model.Link
	err = retry(ctx, func() error {
		var err error
		created, err = svc.CreateLinks(ctx, postID, missing)
		return err
	})
	return len(created), err
}
