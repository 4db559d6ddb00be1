package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
)

func getPostsByIDs(ctx context.Context, q executor, ids []int) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}
	return queryPosts(ctx, q, `SELECT id, title, slug, created_at FROM posts WHERE id = ANY($1) ORDER BY id`, ids)
}

func getPosts(ctx context.Context, q executor) ([]model.Post, error) {
	return queryPosts(ctx, q, `SELECT id, title, slug, created_at FROM posts ORDER BY id`)
}

func queryPosts(ctx context.Context, q executor, query string, args ...any) ([]model.Post, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", translateError(err))
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", translateError(err))
	}
	return posts, nil
}

func createPost(ctx context.Context, q executor, title, slug string) (*model.Post, error) {
	p := model.Post{Title: title, Slug: slug}
	err := q.QueryRow(ctx,
		`INSERT INTO posts (title, slug) VALUES ($1, $2) RETURNING id, created_at`,
		title, slug).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", translateError(err))
	}

	slog.Info("created new post", "title", title, "id", p.ID)
	return &p, nil
}

const categoryColumns = `id, name, slug, description, created_at`

func getCategoriesByIDs(ctx context.Context, q executor, ids []int) ([]model.Category, error) {
	if len(ids) == 0 {
		return []model.Category{}, nil
	}
	return queryCategories(ctx, q, `SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1) ORDER BY id`, ids)
}

func getCategories(ctx context.Context, q executor) ([]model.Category, error) {
	return queryCategories(ctx, q, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
}

func queryCategories(ctx context.Context, q executor, query string, args ...any) ([]model.Category, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", translateError(err))
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", translateError(err))
	}
	return categories, nil
}

func getCategoryByName(ctx context.Context, q executor, name string) (*model.Category, error) {
	var c model.Category
	err := q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", translateError(err))
	}
	return &c, nil
}

func createCategory(ctx context.Context, q executor, name, slug, description string) (*model.Category, error) {
	c := model.Category{Name: name, Slug: slug, Description: description}
	err := q.QueryRow(ctx,
		`INSERT INTO categories (name, slug, description) VALUES ($1, $2, $3) RETURNING id, created_at`,
		name, slug, description).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", translateError(err))
	}

	slog.Info("created new category", "name", name, "id", c.ID)
	return &c, nil
}

const linkColumns = `id, post_id, category_id, created_at`

func getLinksByPostIDs(ctx context.Context, q executor, postIDs []int) ([]model.Link, error) {
	if len(postIDs) == 0 {
		return []model.Link{}, nil
	}
	return queryLinks(ctx, q, `SELECT `+linkColumns+` FROM post_categories WHERE post_id = ANY($1) ORDER BY id`, postIDs)
}

func getLinksByCategoryID(ctx context.Context, q executor, categoryID int) ([]model.Link, error) {
	return queryLinks(ctx, q, `SELECT `+linkColumns+` FROM post_categories WHERE category_id = $1 ORDER BY id`, categoryID)
}

func queryLinks(ctx context.Context, q executor, query string, args ...any) ([]model.Link, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", translateError(err))
	}
	defer rows.Close()

	links := []model.Link{}
	for rows.Next() {
		var l model.Link
		if err := rows.Scan(&l.ID, &l.PostID, &l.CategoryID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", translateError(err))
	}

	slog.Debug("retrieved links", "count", len(links))
	return links, nil
}

// createLinks queues one INSERT per link in a single batch. The caller owns
// the surrounding transaction.
func createLinks(ctx context.Context, q executor, links []model.Link) (created []model.Link, err error) {
	batch := &pgx.Batch{}
	for _, l := range links {
		batch.Queue(`INSERT INTO post_categories (post_id, category_id) VALUES ($1, $2) RETURNING id, created_at`,
			l.PostID, l.CategoryID)
	}

	results := q.SendBatch(ctx, batch)
	defer func() {
		if closeErr := results.Close(); closeErr != nil && err == nil {
			created, err = nil, fmt.Errorf("failed to close link batch: %w", translateError(closeErr))
		}
	}()

	created = make([]model.Link, 0, len(links))
	for _, l := range links {
		row := model.Link{PostID: l.PostID, CategoryID: l.CategoryID}
		if err := results.QueryRow().Scan(&row.ID, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to create link post=%d category=%d: %w",
				l.PostID, l.CategoryID, translateError(err))
		}
		created = append(created, row)
	}

	slog.Info("created links", "count", len(created))
	return created, nil
}

// deleteLinks deletes by one of the two foreign key columns.
// column is never user input.
func deleteLinks(ctx context.Context, q executor, column string, id int) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM post_categories WHERE `+column+` = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete links: %w", translateError(err))
	}

	slog.Info("deleted links", column, id, "count", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

func countLinksByCategory(ctx context.Context, q executor) (map[int]int64, error) {
	rows, err := q.Query(ctx, `
		SELECT category_id, COUNT(DISTINCT post_id)
		FROM post_categories
		GROUP BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count links: %w", translateError(err))
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var categoryID int
		var count int64
		if err := rows.Scan(&categoryID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan link count: %w", err)
		}
		counts[categoryID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link counts: %w", translateError(err))
	}
	return counts, nil
}
