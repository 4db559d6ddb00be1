// Package testutil provides test databases and store fakes for postcat tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
	"github.com/Veraticus/postcat/internal/service"
	"github.com/Veraticus/postcat/internal/storage"
)

// Seed describes the rows created before a test runs. Posts are titles;
// categories are names. Slugs are derived from both.
type Seed struct {
	Posts      []string
	Categories []string
}

// TestDB represents a migrated in-memory SQLite database with seeded rows.
type TestDB struct {
	Storage    service.Storage
	t          *testing.T
	posts      map[string]model.Post
	categories map[string]model.Category
}

// SetupTestDB creates a new in-memory database, migrates it and seeds it.
// The database is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.Seed{
//		Posts:      []string{"Hello"},
//		Categories: []string{"Go", "Databases"},
//	})
func SetupTestDB(t *testing.T, seed Seed) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{
		Storage:    store,
		t:          t,
		posts:      make(map[string]model.Post),
		categories: make(map[string]model.Category),
	}

	for _, title := range seed.Posts {
		post, err := store.CreatePost(ctx, title, common.Slugify(title))
		if err != nil {
			t.Fatalf("failed to seed post %q: %v", title, err)
		}
		db.posts[title] = *post
	}
	for _, name := range seed.Categories {
		cat, err := store.CreateCategory(ctx, name, common.Slugify(name), "")
		if err != nil {
			t.Fatalf("failed to seed category %q: %v", name, err)
		}
		db.categories[name] = *cat
	}

	return db
}

// MustGetPost returns the seeded post with the given title or fails the test.
func (db *TestDB) MustGetPost(title string) model.Post {
	db.t.Helper()
	post, ok := db.posts[title]
	if !ok {
		db.t.Fatalf("post %q not found in test data", title)
	}
	return post
}

// MustGetCategory returns the seeded category with the given name or fails the test.
func (db *TestDB) MustGetCategory(name string) model.Category {
	db.t.Helper()
	cat, ok := db.categories[name]
	if !ok {
		db.t.Fatalf("category %q not found in test data", name)
	}
	return cat
}

// CategoryIDs returns the ids of the named seeded categories in argument order.
func (db *TestDB) CategoryIDs(names ...string) []int {
	db.t.Helper()
	ids := make([]int, 0, len(names))
	for _, name := range names {
		ids = append(ids, db.MustGetCategory(name).ID)
	}
	return ids
}

// WithTransaction executes fn within a transaction that is always rolled back.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	tx, err := db.Storage.BeginTx(context.Background())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
