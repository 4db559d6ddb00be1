package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		err    error
		target error
		name   string
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: codeUniqueViolation}, target: common.ErrConstraintViolation},
		{name: "foreign key violation", err: &pgconn.PgError{Code: codeForeignKeyViolation}, target: common.ErrConstraintViolation},
		{name: "serialization failure", err: &pgconn.PgError{Code: codeSerializationFailure}, target: common.ErrStoreBusy},
		{name: "lock not available", err: &pgconn.PgError{Code: codeLockNotAvailable}, target: common.ErrStoreBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			assert.ErrorIs(t, got, tt.target)
			var pgErr *pgconn.PgError
			assert.True(t, errors.As(got, &pgErr))
		})
	}

	plain := errors.New("boom")
	assert.Equal(t, plain, translateError(plain))
	assert.NoError(t, translateError(nil))

	syntax := &pgconn.PgError{Code: "42601"}
	assert.Equal(t, error(syntax), translateError(syntax))
}

func TestRequireLinks(t *testing.T) {
	assert.ErrorIs(t, requireLinks(nil), common.ErrInvalidArgument)
	assert.ErrorIs(t, requireLinks([]model.Link{{PostID: 1}}), common.ErrInvalidArgument)
	assert.NoError(t, requireLinks([]model.Link{{PostID: 1, CategoryID: 2}}))
}

func TestMigrations_AreSequential(t *testing.T) {
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Statements)
	}
	assert.Equal(t, ExpectedSchemaVersion, migrations[len(migrations)-1].Version)
}

// newTestStorage connects to POSTCAT_TEST_POSTGRES_DSN or skips the test.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	dsn := os.Getenv("POSTCAT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTCAT_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	_, err = store.pool.Exec(ctx, `TRUNCATE post_categories, posts, categories RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return store
}

func TestStorage_Links(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, "Hello", "hello")
	require.NoError(t, err)
	goCat, err := store.CreateCategory(ctx, "Go", "go", "")
	require.NoError(t, err)
	dbCat, err := store.CreateCategory(ctx, "Databases", "databases", "")
	require.NoError(t, err)

	created, err := store.CreateLinks(ctx, []model.Link{
		{PostID: post.ID, CategoryID: goCat.ID},
		{PostID: post.ID, CategoryID: dbCat.ID},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Positive(t, created[0].ID)
	assert.False(t, created[1].CreatedAt.IsZero())

	// The duplicate second row rolls back the new first row too.
	other, err := store.CreatePost(ctx, "Other", "other")
	require.NoError(t, err)
	_, err = store.CreateLinks(ctx, []model.Link{
		{PostID: other.ID, CategoryID: goCat.ID},
		{PostID: post.ID, CategoryID: goCat.ID},
	})
	assert.ErrorIs(t, err, common.ErrConstraintViolation)

	links, err := store.GetLinksByPostIDs(ctx, []int{post.ID, other.ID})
	require.NoError(t, err)
	assert.Len(t, links, 2)

	byCategory, err := store.GetLinksByCategoryID(ctx, goCat.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{post.ID}, model.PostIDs(byCategory))

	counts, err := store.CountLinksByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int64{goCat.ID: 1, dbCat.ID: 1}, counts)

	cats, err := store.GetCategoriesByIDs(ctx, model.CategoryIDs(links))
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	deleted, err := tx.DeleteLinksByPostID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	require.NoError(t, tx.Rollback())

	links, err = store.GetLinksByPostID(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2, "rollback restores deleted links")

	_, err = store.GetCategoryByName(ctx, "Missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
