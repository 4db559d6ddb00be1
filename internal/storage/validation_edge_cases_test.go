package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
)

// TestStorageValidation checks that validation runs before any query.
func TestStorageValidation(t *testing.T) {
	store := createTestStorage(t)

	t.Run("nil context validation", func(t *testing.T) {
		//nolint:staticcheck // nil context is exactly what is being checked
		var nilCtx context.Context

		checks := map[string]error{}
		_, checks["GetPostsByIDs"] = store.GetPostsByIDs(nilCtx, []int{1})
		_, checks["GetPosts"] = store.GetPosts(nilCtx)
		_, checks["CreatePost"] = store.CreatePost(nilCtx, "Title", "title")
		_, checks["GetCategoriesByIDs"] = store.GetCategoriesByIDs(nilCtx, []int{1})
		_, checks["GetCategories"] = store.GetCategories(nilCtx)
		_, checks["GetCategoryByName"] = store.GetCategoryByName(nilCtx, "Go")
		_, checks["CreateCategory"] = store.CreateCategory(nilCtx, "Go", "go", "")
		_, checks["GetLinksByPostID"] = store.GetLinksByPostID(nilCtx, 1)
		_, checks["GetLinksByPostIDs"] = store.GetLinksByPostIDs(nilCtx, []int{1})
		_, checks["GetLinksByCategoryID"] = store.GetLinksByCategoryID(nilCtx, 1)
		_, checks["CreateLinks"] = store.CreateLinks(nilCtx, []model.Link{{PostID: 1, CategoryID: 1}})
		_, checks["DeleteLinksByPostID"] = store.DeleteLinksByPostID(nilCtx, 1)
		_, checks["DeleteLinksByCategoryID"] = store.DeleteLinksByCategoryID(nilCtx, 1)
		_, checks["CountLinksByCategory"] = store.CountLinksByCategory(nilCtx)

		for method, err := range checks {
			assert.ErrorIs(t, err, ErrNilContext, method)
		}
	})

	t.Run("empty string validation", func(t *testing.T) {
		ctx := context.Background()

		_, err := store.CreatePost(ctx, "  ", "slug")
		assert.ErrorIs(t, err, ErrEmptyString)
		_, err = store.CreatePost(ctx, "Title", "")
		assert.ErrorIs(t, err, ErrEmptyString)
		_, err = store.CreateCategory(ctx, "", "slug", "")
		assert.ErrorIs(t, err, ErrEmptyString)
		_, err = store.GetCategoryByName(ctx, "")
		assert.ErrorIs(t, err, common.ErrInvalidArgument)
	})

	t.Run("invalid id validation", func(t *testing.T) {
		ctx := context.Background()

		for _, id := range []int{0, -1} {
			_, err := store.GetLinksByPostID(ctx, id)
			assert.ErrorIs(t, err, ErrInvalidID)
			_, err = store.GetLinksByCategoryID(ctx, id)
			assert.ErrorIs(t, err, ErrInvalidID)
			_, err = store.DeleteLinksByPostID(ctx, id)
			assert.ErrorIs(t, err, common.ErrInvalidArgument)
			_, err = store.DeleteLinksByCategoryID(ctx, id)
			assert.ErrorIs(t, err, common.ErrInvalidArgument)
		}
	})

	t.Run("empty bulk lookups return empty slices", func(t *testing.T) {
		ctx := context.Background()

		posts, err := store.GetPostsByIDs(ctx, nil)
		assert.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)

		cats, err := store.GetCategoriesByIDs(ctx, []int{})
		assert.NoError(t, err)
		assert.NotNil(t, cats)
		assert.Empty(t, cats)

		links, err := store.GetLinksByPostIDs(ctx, nil)
		assert.NoError(t, err)
		assert.NotNil(t, links)
		assert.Empty(t, links)
	})
}
