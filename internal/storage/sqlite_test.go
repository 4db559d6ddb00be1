package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// seedPosts creates n posts titled "Post 1".."Post n" and returns their ids.
func seedPosts(t *testing.T, store *SQLiteStorage, n int) []int {
	t.Helper()
	ctx := context.Background()

	ids := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		p, err := store.CreatePost(ctx, fmt.Sprintf("Post %d", i), fmt.Sprintf("post-%d", i))
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	return ids
}

// seedCategories creates one category per name and returns their ids.
func seedCategories(t *testing.T, store *SQLiteStorage, names ...string) []int {
	t.Helper()
	ctx := context.Background()

	ids := make([]int, 0, len(names))
	for _, name := range names {
		c, err := store.CreateCategory(ctx, name, common.Slugify(name), "")
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	return ids
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("  ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("creates parent directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "postcat.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer store.Close()
		assert.FileExists(t, dbPath)
	})

	t.Run("in memory", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		defer store.Close()
		require.NoError(t, store.Migrate(context.Background()))
	})
}

func TestSQLiteStorage_Posts(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	ids := seedPosts(t, store, 3)

	posts, err := store.GetPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "Post 1", posts[0].Title)
	assert.False(t, posts[0].CreatedAt.IsZero())

	byID, err := store.GetPostsByIDs(ctx, []int{ids[2], ids[0], 9999})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, ids[0], byID[0].ID)
	assert.Equal(t, ids[2], byID[1].ID)

	empty, err := store.GetPostsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = store.CreatePost(ctx, "Duplicate", "post-1")
	assert.ErrorIs(t, err, common.ErrConstraintViolation)

	_, err = store.CreatePost(ctx, "", "empty-title")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSQLiteStorage_Categories(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	ids := seedCategories(t, store, "Travel", "Go", "Music")

	all, err := store.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Go", all[0].Name, "categories are ordered by name")

	byID, err := store.GetCategoriesByIDs(ctx, []int{ids[1], ids[0]})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, "Travel", byID[0].Name)

	found, err := store.GetCategoryByName(ctx, "Music")
	require.NoError(t, err)
	assert.Equal(t, ids[2], found.ID)
	assert.Equal(t, "music", found.Slug)

	_, err = store.GetCategoryByName(ctx, "Missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.CreateCategory(ctx, "Go", "go-2", "")
	assert.ErrorIs(t, err, common.ErrConstraintViolation)
}

func TestSQLiteStorage_Transaction(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	postIDs := seedPosts(t, store, 1)
	catIDs := seedCategories(t, store, "A", "B")

	t.Run("rollback discards links", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)

		_, err = tx.CreateLinks(ctx, []model.Link{{PostID: postIDs[0], CategoryID: catIDs[0]}})
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())

		links, err := store.GetLinksByPostID(ctx, postIDs[0])
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("commit keeps delete and create together", func(t *testing.T) {
		_, err := store.CreateLinks(ctx, []model.Link{{PostID: postIDs[0], CategoryID: catIDs[0]}})
		require.NoError(t, err)

		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)

		deleted, err := tx.DeleteLinksByPostID(ctx, postIDs[0])
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = tx.CreateLinks(ctx, []model.Link{{PostID: postIDs[0], CategoryID: catIDs[1]}})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		links, err := store.GetLinksByPostID(ctx, postIDs[0])
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, catIDs[1], links[0].CategoryID)
	})

	t.Run("unsupported operations", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback()

		assert.Error(t, tx.Migrate(ctx))
		assert.Error(t, tx.Close())
		_, err = tx.BeginTx(ctx)
		assert.Error(t, err)
	})
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		err      error
		target   error
		name     string
		wantSame bool
	}{
		{name: "nil", err: nil, wantSame: true},
		{name: "plain error", err: errors.New("boom"), wantSame: true},
		{name: "constraint", err: sqlite3.Error{Code: sqlite3.ErrConstraint}, target: common.ErrConstraintViolation},
		{name: "busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, target: common.ErrStoreBusy},
		{name: "locked", err: sqlite3.Error{Code: sqlite3.ErrLocked}, target: common.ErrStoreBusy},
		{name: "other sqlite error", err: sqlite3.Error{Code: sqlite3.ErrCorrupt}, wantSame: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			if tt.wantSame {
				assert.Equal(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.target)
			var sqliteErr sqlite3.Error
			assert.True(t, errors.As(got, &sqliteErr), "driver error stays in the chain")
		})
	}
}
