package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
)

func TestSQLiteStorage_CreateLinks(t *testing.T) {
	tests := []struct {
		setup   func(*testing.T, *SQLiteStorage, []int, []int)
		links   func([]int, []int) []model.Link
		wantErr error
		name    string
		wantLen int
	}{
		{
			name: "creates batch with storage ids",
			links: func(posts, cats []int) []model.Link {
				return []model.Link{
					{PostID: posts[0], CategoryID: cats[0]},
					{PostID: posts[0], CategoryID: cats[1]},
				}
			},
			wantLen: 2,
		},
		{
			name: "duplicate pair rejects whole batch",
			setup: func(t *testing.T, s *SQLiteStorage, posts, cats []int) {
				t.Helper()
				_, err := s.CreateLinks(context.Background(), []model.Link{{PostID: posts[0], CategoryID: cats[1]}})
				require.NoError(t, err)
			},
			links: func(posts, cats []int) []model.Link {
				return []model.Link{
					{PostID: posts[0], CategoryID: cats[0]},
					{PostID: posts[0], CategoryID: cats[1]},
				}
			},
			wantErr: common.ErrConstraintViolation,
			wantLen: 1,
		},
		{
			name: "unknown category violates foreign key",
			links: func(posts, _ []int) []model.Link {
				return []model.Link{{PostID: posts[0], CategoryID: 424242}}
			},
			wantErr: common.ErrConstraintViolation,
		},
		{
			name:    "empty batch",
			links:   func(_, _ []int) []model.Link { return nil },
			wantErr: ErrEmptySlice,
		},
		{
			name: "missing post id",
			links: func(_, cats []int) []model.Link {
				return []model.Link{{CategoryID: cats[0]}}
			},
			wantErr: ErrInvalidLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := createTestStorage(t)
			ctx := context.Background()
			posts := seedPosts(t, store, 1)
			cats := seedCategories(t, store, "Go", "Databases")

			if tt.setup != nil {
				tt.setup(t, store, posts, cats)
			}

			created, err := store.CreateLinks(ctx, tt.links(posts, cats))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, created)
			} else {
				require.NoError(t, err)
				require.Len(t, created, tt.wantLen)
				for _, l := range created {
					assert.Positive(t, l.ID)
					assert.Equal(t, posts[0], l.PostID)
					assert.False(t, l.CreatedAt.IsZero())
				}
			}

			stored, err := store.GetLinksByPostID(ctx, posts[0])
			require.NoError(t, err)
			assert.Len(t, stored, tt.wantLen, "batch must be all or nothing")
		})
	}
}

func TestSQLiteStorage_LinkQueries(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	posts := seedPosts(t, store, 3)
	cats := seedCategories(t, store, "Go", "Databases", "Ops")

	_, err := store.CreateLinks(ctx, []model.Link{
		{PostID: posts[0], CategoryID: cats[1]},
		{PostID: posts[0], CategoryID: cats[0]},
		{PostID: posts[1], CategoryID: cats[0]},
	})
	require.NoError(t, err)

	t.Run("by post keeps insertion order", func(t *testing.T) {
		links, err := store.GetLinksByPostID(ctx, posts[0])
		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, cats[1], links[0].CategoryID)
		assert.Equal(t, cats[0], links[1].CategoryID)
	})

	t.Run("by post set", func(t *testing.T) {
		links, err := store.GetLinksByPostIDs(ctx, posts)
		require.NoError(t, err)
		assert.Len(t, links, 3)

		none, err := store.GetLinksByPostIDs(ctx, []int{})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("by category", func(t *testing.T) {
		links, err := store.GetLinksByCategoryID(ctx, cats[0])
		require.NoError(t, err)
		assert.Equal(t, []int{posts[0], posts[1]}, model.PostIDs(links))

		empty, err := store.GetLinksByCategoryID(ctx, cats[2])
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("counts per category", func(t *testing.T) {
		counts, err := store.CountLinksByCategory(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[int]int64{cats[0]: 2, cats[1]: 1}, counts)
	})

	t.Run("invalid ids", func(t *testing.T) {
		_, err := store.GetLinksByPostID(ctx, 0)
		assert.ErrorIs(t, err, ErrInvalidID)
		_, err = store.GetLinksByCategoryID(ctx, -1)
		assert.ErrorIs(t, err, ErrInvalidID)
		_, err = store.DeleteLinksByPostID(ctx, 0)
		assert.ErrorIs(t, err, ErrInvalidID)
	})
}

func TestSQLiteStorage_DeleteLinks(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	posts := seedPosts(t, store, 2)
	cats := seedCategories(t, store, "Go", "Ops")

	_, err := store.CreateLinks(ctx, []model.Link{
		{PostID: posts[0], CategoryID: cats[0]},
		{PostID: posts[0], CategoryID: cats[1]},
		{PostID: posts[1], CategoryID: cats[0]},
	})
	require.NoError(t, err)

	deleted, err := store.DeleteLinksByCategoryID(ctx, cats[0])
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = store.DeleteLinksByPostID(ctx, posts[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := store.GetLinksByPostIDs(ctx, posts)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
