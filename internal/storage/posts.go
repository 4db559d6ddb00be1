package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/postcat/internal/model"
)

// GetPostsByIDs returns the posts with the given ids. Missing ids are skipped.
func (s *SQLiteStorage) GetPostsByIDs(ctx context.Context, ids []int) ([]model.Post, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getPostsByIDsTx(ctx, s.db, ids)
}

// GetPosts returns all posts ordered by id.
func (s *SQLiteStorage) GetPosts(ctx context.Context) ([]model.Post, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getPostsTx(ctx, s.db)
}

// CreatePost inserts a new post.
func (s *SQLiteStorage) CreatePost(ctx context.Context, title, slug string) (*model.Post, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(title, "title"); err != nil {
		return nil, err
	}
	if err := validateString(slug, "slug"); err != nil {
		return nil, err
	}
	return s.createPostTx(ctx, s.db, title, slug)
}

func (s *SQLiteStorage) getPostsByIDsTx(ctx context.Context, q querier, ids []int) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	marks, args := placeholders(ids)
	query := `
		SELECT id, title, slug, created_at
		FROM posts
		WHERE id IN (` + marks + `)
		ORDER BY id`

	posts, err := s.queryPosts(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved posts by id", "requested", len(ids), "found", len(posts))
	return posts, nil
}

func (s *SQLiteStorage) getPostsTx(ctx context.Context, q querier) ([]model.Post, error) {
	return s.queryPosts(ctx, q, `SELECT id, title, slug, created_at FROM posts ORDER BY id`)
}

func (s *SQLiteStorage) queryPosts(ctx context.Context, q querier, query string, args ...any) ([]model.Post, error) {
	rows, err := q.QueryContext(ctx, query, args...)
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
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}

func (s *SQLiteStorage) createPostTx(ctx context.Context, q querier, title, slug string) (*model.Post, error) {
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx,
		`INSERT INTO posts (title, slug, created_at) VALUES (?, ?, ?)`,
		title, slug, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get post ID: %w", err)
	}

	slog.Info("created new post", "title", title, "id", id)
	return &model.Post{
		ID:        int(id),
		Title:     title,
		Slug:      slug,
		CreatedAt: now,
	}, nil
}

// Transaction implementations for post operations

func (t *sqliteTransaction) GetPostsByIDs(ctx context.Context, ids []int) ([]model.Post, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getPostsByIDsTx(ctx, t.tx, ids)
}

func (t *sqliteTransaction) GetPosts(ctx context.Context) ([]model.Post, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getPostsTx(ctx, t.tx)
}

func (t *sqliteTransaction) CreatePost(ctx context.Context, title, slug string) (*model.Post, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(title, "title"); err != nil {
		return nil, err
	}
	if err := validateString(slug, "slug"); err != nil {
		return nil, err
	}
	return t.storage.createPostTx(ctx, t.tx, title, slug)
}
