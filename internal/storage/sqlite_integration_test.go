package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
)

func TestSQLiteStorage_FullWorkflow(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	t.Log("Step 1: Create posts and categories")
	postIDs := seedPosts(t, store, 3)
	catIDs := seedCategories(t, store, "Go", "Databases", "Testing")

	t.Log("Step 2: Link posts in batches")
	_, err := store.CreateLinks(ctx, []model.Link{
		{PostID: postIDs[0], CategoryID: catIDs[0]},
		{PostID: postIDs[0], CategoryID: catIDs[2]},
	})
	require.NoError(t, err)
	_, err = store.CreateLinks(ctx, []model.Link{
		{PostID: postIDs[1], CategoryID: catIDs[0]},
		{PostID: postIDs[1], CategoryID: catIDs[1]},
	})
	require.NoError(t, err)

	t.Log("Step 3: Resolve both directions")
	links, err := store.GetLinksByPostIDs(ctx, postIDs)
	require.NoError(t, err)
	require.Len(t, links, 4)
	for i := 1; i < len(links); i++ {
		assert.Less(t, links[i-1].ID, links[i].ID, "links come back in insertion order")
	}

	cats, err := store.GetCategoriesByIDs(ctx, model.CategoryIDs(links))
	require.NoError(t, err)
	assert.Len(t, cats, 3)

	byCategory, err := store.GetLinksByCategoryID(ctx, catIDs[0])
	require.NoError(t, err)
	posts, err := store.GetPostsByIDs(ctx, model.PostIDs(byCategory))
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Post 1", posts[0].Title)
	assert.Equal(t, "Post 2", posts[1].Title)

	t.Log("Step 4: Replace one post's links inside a transaction")
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	deleted, err := tx.DeleteLinksByPostID(ctx, postIDs[0])
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	_, err = tx.CreateLinks(ctx, []model.Link{{PostID: postIDs[0], CategoryID: catIDs[1]}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	counts, err := store.CountLinksByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int64{catIDs[0]: 1, catIDs[1]: 2}, counts)

	t.Log("Step 5: A failing batch leaves no trace")
	_, err = store.CreateLinks(ctx, []model.Link{
		{PostID: postIDs[2], CategoryID: catIDs[2]},
		{PostID: postIDs[2], CategoryID: 999},
	})
	assert.ErrorIs(t, err, common.ErrConstraintViolation)

	third, err := store.GetLinksByPostID(ctx, postIDs[2])
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "postcat.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	post, err := store.CreatePost(ctx, "Persisted", "persisted")
	require.NoError(t, err)
	cat, err := store.CreateCategory(ctx, "Kept", "kept", "survives a reopen")
	require.NoError(t, err)
	_, err = store.CreateLinks(ctx, []model.Link{{PostID: post.ID, CategoryID: cat.ID}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	require.NoError(t, reopened.Migrate(ctx), "migrating an up to date database is a no-op")

	links, err := reopened.GetLinksByPostID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, cat.ID, links[0].CategoryID)

	got, err := reopened.GetCategoryByName(ctx, "Kept")
	require.NoError(t, err)
	assert.Equal(t, "survives a reopen", got.Description)
}
