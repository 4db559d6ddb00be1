package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
)

const categoryColumns = `id, name, slug, description, created_at`

// GetCategoriesByIDs returns the categories with the given ids. Missing ids are skipped.
func (s *SQLiteStorage) GetCategoriesByIDs(ctx context.Context, ids []int) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategoriesByIDsTx(ctx, s.db, ids)
}

// GetCategories returns all categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategoriesTx(ctx, s.db)
}

// GetCategoryByName returns a category by its name, or common.ErrNotFound.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.getCategoryByNameTx(ctx, s.db, name)
}

// CreateCategory creates a new category.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name, slug, description string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if err := validateString(slug, "slug"); err != nil {
		return nil, err
	}
	return s.createCategoryTx(ctx, s.db, name, slug, description)
}

func (s *SQLiteStorage) getCategoriesByIDsTx(ctx context.Context, q querier, ids []int) ([]model.Category, error) {
	if len(ids) == 0 {
		return []model.Category{}, nil
	}

	marks, args := placeholders(ids)
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE id IN (` + marks + `)
		ORDER BY id`

	categories, err := s.queryCategories(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved categories by id", "requested", len(ids), "found", len(categories))
	return categories, nil
}

func (s *SQLiteStorage) getCategoriesTx(ctx context.Context, q querier) ([]model.Category, error) {
	categories, err := s.queryCategories(ctx, q, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

func (s *SQLiteStorage) queryCategories(ctx context.Context, q querier, query string, args ...any) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", translateError(err))
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func (s *SQLiteStorage) getCategoryByNameTx(ctx context.Context, q querier, name string) (*model.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE name = ?`

	var cat model.Category
	err := q.QueryRowContext(ctx, query, name).Scan(
		&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", translateError(err))
	}

	return &cat, nil
}

func (s *SQLiteStorage) createCategoryTx(ctx context.Context, q querier, name, slug, description string) (*model.Category, error) {
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx,
		`INSERT INTO categories (name, slug, description, created_at) VALUES (?, ?, ?, ?)`,
		name, slug, description, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	slog.Info("created new category", "name", name, "id", id)
	return &model.Category{
		ID:          int(id),
		Name:        name,
		Slug:        slug,
		Description: description,
		CreatedAt:   now,
	}, nil
}

// Transaction implementations for category operations

func (t *sqliteTransaction) GetCategoriesByIDs(ctx context.Context, ids []int) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getCategoriesByIDsTx(ctx, t.tx, ids)
}

func (t *sqliteTransaction) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getCategoriesTx(ctx, t.tx)
}

func (t *sqliteTransaction) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return t.storage.getCategoryByNameTx(ctx, t.tx, name)
}

func (t *sqliteTransaction) CreateCategory(ctx context.Context, name, slug, description string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if err := validateString(slug, "slug"); err != nil {
		return nil, err
	}
	return t.storage.createCategoryTx(ctx, t.tx, name, slug, description)
}
