package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/postcat/internal/model"
)

const linkColumns = `id, post_id, category_id, created_at`

// GetLinksByPostID returns the links of one post in insertion order.
func (s *SQLiteStorage) GetLinksByPostID(ctx context.Context, postID int) ([]model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(postID, "postID"); err != nil {
		return nil, err
	}
	return s.getLinksByPostIDsTx(ctx, s.db, []int{postID})
}

// GetLinksByPostIDs returns the links of all given posts in insertion order.
func (s *SQLiteStorage) GetLinksByPostIDs(ctx context.Context, postIDs []int) ([]model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getLinksByPostIDsTx(ctx, s.db, postIDs)
}

// GetLinksByCategoryID returns the links of one category in insertion order.
func (s *SQLiteStorage) GetLinksByCategoryID(ctx context.Context, categoryID int) ([]model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(categoryID, "categoryID"); err != nil {
		return nil, err
	}
	return s.getLinksByCategoryIDTx(ctx, s.db, categoryID)
}

// CreateLinks inserts every link inside a single transaction.
// A constraint failure on any row rolls back the whole batch.
func (s *SQLiteStorage) CreateLinks(ctx context.Context, links []model.Link) ([]model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLinks(links); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", translateError(err))
	}

	created, err := s.createLinksTx(ctx, tx, links)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit links: %w", translateError(err))
	}

	return created, nil
}

// DeleteLinksByPostID removes every link of a post.
func (s *SQLiteStorage) DeleteLinksByPostID(ctx context.Context, postID int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateID(postID, "postID"); err != nil {
		return 0, err
	}
	return s.deleteLinksTx(ctx, s.db, "post_id", postID)
}

// DeleteLinksByCategoryID removes every link of a category.
func (s *SQLiteStorage) DeleteLinksByCategoryID(ctx context.Context, categoryID int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateID(categoryID, "categoryID"); err != nil {
		return 0, err
	}
	return s.deleteLinksTx(ctx, s.db, "category_id", categoryID)
}

// CountLinksByCategory returns the number of links per category id.
func (s *SQLiteStorage) CountLinksByCategory(ctx context.Context) (map[int]int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.countLinksByCategoryTx(ctx, s.db)
}

func (s *SQLiteStorage) getLinksByPostIDsTx(ctx context.Context, q querier, postIDs []int) ([]model.Link, error) {
	if len(postIDs) == 0 {
		return []model.Link{}, nil
	}

	marks, args := placeholders(postIDs)
	query := `
		SELECT ` + linkColumns + `
		FROM post_categories
		WHERE post_id IN (` + marks + `)
		ORDER BY id`

	links, err := s.queryLinks(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved links by post", "posts", len(postIDs), "links", len(links))
	return links, nil
}

func (s *SQLiteStorage) getLinksByCategoryIDTx(ctx context.Context, q querier, categoryID int) ([]model.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM post_categories
		WHERE category_id = ?
		ORDER BY id`

	links, err := s.queryLinks(ctx, q, query, categoryID)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved links by category", "category_id", categoryID, "links", len(links))
	return links, nil
}

func (s *SQLiteStorage) queryLinks(ctx context.Context, q querier, query string, args ...any) ([]model.Link, error) {
	rows, err := q.QueryContext(ctx, query, args...)
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
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (s *SQLiteStorage) createLinksTx(ctx context.Context, q querier, links []model.Link) ([]model.Link, error) {
	now := time.Now().UTC()
	created := make([]model.Link, 0, len(links))

	for _, l := range links {
		result, err := q.ExecContext(ctx,
			`INSERT INTO post_categories (post_id, category_id, created_at) VALUES (?, ?, ?)`,
			l.PostID, l.CategoryID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to create link post=%d category=%d: %w",
				l.PostID, l.CategoryID, translateError(err))
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get link ID: %w", err)
		}

		created = append(created, model.Link{
			ID:         id,
			PostID:     l.PostID,
			CategoryID: l.CategoryID,
			CreatedAt:  now,
		})
	}

	slog.Info("created links", "count", len(created))
	return created, nil
}

// deleteLinksTx deletes by one of the two foreign key columns.
// column is never user input.
func (s *SQLiteStorage) deleteLinksTx(ctx context.Context, q querier, column string, id int) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM post_categories WHERE `+column+` = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete links: %w", translateError(err))
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Info("deleted links", column, id, "count", deleted)
	return deleted, nil
}

func (s *SQLiteStorage) countLinksByCategoryTx(ctx context.Context, q querier) (map[int]int64, error) {
	rows, err := q.QueryContext(ctx, `
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
		return nil, fmt.Errorf("error iterating link counts: %w", err)
	}

	return counts, nil
}

// Transaction implementations for link operations

func (t *sqliteTransaction) GetLinksByPostID(ctx context.Context, postID int) ([]model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(postID, "postID"); err != nil {
		return nil, err
	}
	return t.storage.getLinksByPostIDsTx(ctx, t.tx, []int{postID})
}

func (t *sqliteTransaction) GetLinksByPostIDs(ctx context.Context, postIDs []int) ([]model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getLinksByPostIDsTx(ctx, t.tx, postIDs)
}

func (t *sqliteTransaction) GetLinksByCategoryID(ctx context.Context, categoryID int) ([]model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(categoryID, "categoryID"); err != nil {
		return nil, err
	}
	return t.storage.getLinksByCategoryIDTx(ctx, t.tx, categoryID)
}

// CreateLinks joins the surrounding transaction; atomicity comes from its Commit.
func (t *sqliteTransaction) CreateLinks(ctx context.Context, links []model.Link) ([]model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLinks(links); err != nil {
		return nil, err
	}
	return t.storage.createLinksTx(ctx, t.tx, links)
}

func (t *sqliteTransaction) DeleteLinksByPostID(ctx context.Context, postID int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateID(postID, "postID"); err != nil {
		return 0, err
	}
	return t.storage.deleteLinksTx(ctx, t.tx, "post_id", postID)
}

func (t *sqliteTransaction) DeleteLinksByCategoryID(ctx context.Context, categoryID int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateID(categoryID, "categoryID"); err != nil {
		return 0, err
	}
	return t.storage.deleteLinksTx(ctx, t.tx, "category_id", categoryID)
}

func (t *sqliteTransaction) CountLinksByCategory(ctx context.Context) (map[int]int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.countLinksByCategoryTx(ctx, t.tx)
}
