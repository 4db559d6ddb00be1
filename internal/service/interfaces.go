// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/postcat/internal/model"
)

// LinkStore persists post/category link rows.
type LinkStore interface {
	GetLinksByPostID(ctx context.Context, postID int) ([]model.Link, error)
	GetLinksByPostIDs(ctx context.Context, postIDs []int) ([]model.Link, error)
	GetLinksByCategoryID(ctx context.Context, categoryID int) ([]model.Link, error)
	// CreateLinks persists every link or none of them and returns the stored rows.
	CreateLinks(ctx context.Context, links []model.Link) ([]model.Link, error)
	DeleteLinksByPostID(ctx context.Context, postID int) (int64, error)
	DeleteLinksByCategoryID(ctx context.Context, categoryID int) (int64, error)
	CountLinksByCategory(ctx context.Context) (map[int]int64, error)
}

// PostStore reads and creates posts.
type PostStore interface {
	GetPostsByIDs(ctx context.Context, ids []int) ([]model.Post, error)
	GetPosts(ctx context.Context) ([]model.Post, error)
	CreatePost(ctx context.Context, title, slug string) (*model.Post, error)
}

// CategoryStore reads and creates categories.
type CategoryStore interface {
	GetCategoriesByIDs(ctx context.Context, ids []int) ([]model.Category, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, name, slug, description string) (*model.Category, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	LinkStore
	PostStore
	CategoryStore

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}
