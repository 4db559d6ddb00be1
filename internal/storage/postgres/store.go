package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
)

func requireID(id int, name string) error {
	if id <= 0 {
		return common.InvalidArgument(name, id)
	}
	return nil
}

func requireString(s, name string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", common.ErrInvalidArgument, name)
	}
	return nil
}

func requireLinks(links []model.Link) error {
	if len(links) == 0 {
		return fmt.Errorf("%w: links cannot be empty", common.ErrInvalidArgument)
	}
	for i, l := range links {
		if l.PostID <= 0 || l.CategoryID <= 0 {
			return fmt.Errorf("%w: link at index %d has post=%d category=%d",
				common.ErrInvalidArgument, i, l.PostID, l.CategoryID)
		}
	}
	return nil
}

// GetPostsByIDs returns the posts with the given ids. Missing ids are skipped.
func (s *Storage) GetPostsByIDs(ctx context.Context, ids []int) ([]model.Post, error) {
	return getPostsByIDs(ctx, s.pool, ids)
}

// GetPosts returns all posts ordered by id.
func (s *Storage) GetPosts(ctx context.Context) ([]model.Post, error) {
	return getPosts(ctx, s.pool)
}

// CreatePost inserts a new post.
func (s *Storage) CreatePost(ctx context.Context, title, slug string) (*model.Post, error) {
	if err := requireString(title, "title"); err != nil {
		return nil, err
	}
	if err := requireString(slug, "slug"); err != nil {
		return nil, err
	}
	return createPost(ctx, s.pool, title, slug)
}

// GetCategoriesByIDs returns the categories with the given ids. Missing ids are skipped.
func (s *Storage) GetCategoriesByIDs(ctx context.Context, ids []int) ([]model.Category, error) {
	return getCategoriesByIDs(ctx, s.pool, ids)
}

// GetCategories returns all categories ordered by name.
func (s *Storage) GetCategories(ctx context.Context) ([]model.Category, error) {
	return getCategories(ctx, s.pool)
}

// GetCategoryByName returns a category by its name, or common.ErrNotFound.
func (s *Storage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := requireString(name, "name"); err != nil {
		return nil, err
	}
	return getCategoryByName(ctx, s.pool, name)
}

// CreateCategory creates a new category.
func (s *Storage) CreateCategory(ctx context.Context, name, slug, description string) (*model.Category, error) {
	if err := requireString(name, "name"); err != nil {
		return nil, err
	}
	if err := requireString(slug, "slug"); err != nil {
		return nil, err
	}
	return createCategory(ctx, s.pool, name, slug, description)
}

// GetLinksByPostID returns the links of one post in insertion order.
func (s *Storage) GetLinksByPostID(ctx context.Context, postID int) ([]model.Link, error) {
	if err := requireID(postID, "postID"); err != nil {
		return nil, err
	}
	return getLinksByPostIDs(ctx, s.pool, []int{postID})
}

// GetLinksByPostIDs returns the links of all given posts in insertion order.
func (s *Storage) GetLinksByPostIDs(ctx context.Context, postIDs []int) ([]model.Link, error) {
	return getLinksByPostIDs(ctx, s.pool, postIDs)
}

// GetLinksByCategoryID returns the links of one category in insertion order.
func (s *Storage) GetLinksByCategoryID(ctx context.Context, categoryID int) ([]model.Link, error) {
	if err := requireID(categoryID, "categoryID"); err != nil {
		return nil, err
	}
	return getLinksByCategoryID(ctx, s.pool, categoryID)
}

// CreateLinks inserts every link inside a single transaction.
func (s *Storage) CreateLinks(ctx context.Context, links []model.Link) ([]model.Link, error) {
	if err := requireLinks(links); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", translateError(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := createLinks(ctx, tx, links)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit links: %w", translateError(err))
	}
	return created, nil
}

// DeleteLinksByPostID removes every link of a post.
func (s *Storage) DeleteLinksByPostID(ctx context.Context, postID int) (int64, error) {
	if err := requireID(postID, "postID"); err != nil {
		return 0, err
	}
	return deleteLinks(ctx, s.pool, "post_id", postID)
}

// DeleteLinksByCategoryID removes every link of a category.
func (s *Storage) DeleteLinksByCategoryID(ctx context.Context, categoryID int) (int64, error) {
	if err := requireID(categoryID, "categoryID"); err != nil {
		return 0, err
	}
	return deleteLinks(ctx, s.pool, "category_id", categoryID)
}

// CountLinksByCategory returns the number of linked posts per category id.
func (s *Storage) CountLinksByCategory(ctx context.Context) (map[int]int64, error) {
	return countLinksByCategory(ctx, s.pool)
}

// Transaction implementations

func (t *pgTransaction) GetPostsByIDs(ctx context.Context, ids []int) ([]model.Post, error) {
	return getPostsByIDs(ctx, t.tx, ids)
}

func (t *pgTransaction) GetPosts(ctx context.Context) ([]model.Post, error) {
	return getPosts(ctx, t.tx)
}

func (t *pgTransaction) CreatePost(ctx context.Context, title, slug string) (*model.Post, error) {
	if err := requireString(title, "title"); err != nil {
		return nil, err
	}
	if err := requireString(slug, "slug"); err != nil {
		return nil, err
	}
	return createPost(ctx, t.tx, title, slug)
}

func (t *pgTransaction) GetCategoriesByIDs(ctx context.Context, ids []int) ([]model.Category, error) {
	return getCategoriesByIDs(ctx, t.tx, ids)
}

func (t *pgTransaction) GetCategories(ctx context.Context) ([]model.Category, error) {
	return getCategories(ctx, t.tx)
}

func (t *pgTransaction) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := requireString(name, "name"); err != nil {
		return nil, err
	}
	return getCategoryByName(ctx, t.tx, name)
}

func (t *pgTransaction) CreateCategory(ctx context.Context, name, slug, description string) (*model.Category, error) {
	if err := requireString(name, "name"); err != nil {
		return nil, err
	}
	if err := requireString(slug, "slug"); err != nil {
		return nil, err
	}
	return createCategory(ctx, t.tx, name, slug, description)
}

func (t *pgTransaction) GetLinksByPostID(ctx context.Context, postID int) ([]model.Link, error) {
	if err := requireID(postID, "postID"); err != nil {
		return nil, err
	}
	return getLinksByPostIDs(ctx, t.tx, []int{postID})
}

func (t *pgTransaction) GetLinksByPostIDs(ctx context.Context, postIDs []int) ([]model.Link, error) {
	return getLinksByPostIDs(ctx, t.tx, postIDs)
}

func (t *pgTransaction) GetLinksByCategoryID(ctx context.Context, categoryID int) ([]model.Link, error) {
	if err := requireID(categoryID, "categoryID"); err != nil {
		return nil, err
	}
	return getLinksByCategoryID(ctx, t.tx, categoryID)
}

// CreateLinks joins the surrounding transaction; atomicity comes from its Commit.
func (t *pgTransaction) CreateLinks(ctx context.Context, links []model.Link) ([]model.Link, error) {
	if err := requireLinks(links); err != nil {
		return nil, err
	}
	return createLinks(ctx, t.tx, links)
}

func (t *pgTransaction) DeleteLinksByPostID(ctx context.Context, postID int) (int64, error) {
	if err := requireID(postID, "postID"); err != nil {
		return 0, err
	}
	return deleteLinks(ctx, t.tx, "post_id", postID)
}

func (t *pgTransaction) DeleteLinksByCategoryID(ctx context.Context, categoryID int) (int64, error) {
	if err := requireID(categoryID, "categoryID"); err != nil {
		return 0, err
	}
	return deleteLinks(ctx, t.tx, "category_id", categoryID)
}

func (t *pgTransaction) CountLinksByCategory(ctx context.Context) (map[int]int64, error) {
	return countLinksByCategory(ctx, t.tx)
}
