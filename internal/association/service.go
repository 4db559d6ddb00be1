// Package association resolves and creates the links between posts and categories.
package association

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
	"github.com/Veraticus/postcat/internal/service"
)

// Service answers "which categories does this post have" and the reverse,
// using one link query plus one bulk fetch per call. It holds no state of its
// own and is safe for concurrent use.
type Service struct {
	links      service.LinkStore
	posts      service.PostStore
	categories service.CategoryStore
}

// NewService creates a new association service with the given stores.
func NewService(links service.LinkStore, posts service.PostStore, categories service.CategoryStore) *Service {
	return &Service{
		links:      links,
		posts:      posts,
		categories: categories,
	}
}

// NewFromStorage creates a service whose three stores are the same Storage,
// which may also be a Transaction.
func NewFromStorage(storage service.Storage) *Service {
	return NewService(storage, storage, storage)
}

// ListCategoriesForPost returns the distinct categories linked to a post.
// Order follows the category bulk fetch.
func (s *Service) ListCategoriesForPost(ctx context.Context, postID int) ([]model.Category, error) {
	if postID <= 0 {
		return nil, common.InvalidArgument("postID", postID)
	}

	links, err := s.links.GetLinksByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links for post %d: %w", postID, err)
	}

	categoryIDs := model.CategoryIDs(links)
	if len(categoryIDs) == 0 {
		return []model.Category{}, nil
	}

	categories, err := s.categories.GetCategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories for post %d: %w", postID, err)
	}

	return categories, nil
}

// ListCategoriesGroupedByPost maps each post id that has at least one link to
// its categories, in link order. Posts without links are absent from the map.
//
// A link whose category is missing from the bulk fetch contributes a nil
// entry so the list length always equals the post's link count.
func (s *Service) ListCategoriesGroupedByPost(ctx context.Context, postIDs []int) (map[int][]*model.Category, error) {
	grouped := make(map[int][]*model.Category)
	if len(postIDs) == 0 {
		return grouped, nil
	}

	links, err := s.links.GetLinksByPostIDs(ctx, model.DistinctIDs(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get links for %d posts: %w", len(postIDs), err)
	}
	if len(links) == 0 {
		return grouped, nil
	}

	categories, err := s.categories.GetCategoriesByIDs(ctx, model.CategoryIDs(links))
	if err != nil {
		return nil, fmt.Errorf("failed to get categories for %d posts: %w", len(postIDs), err)
	}
	byID := model.CategoriesByID(categories)

	for _, link := range links {
		category, ok := byID[link.CategoryID]
		if !ok {
			slog.Warn("link references missing category",
				"post_id", link.PostID,
				"category_id", link.CategoryID)
		}
		grouped[link.PostID] = append(grouped[link.PostID], category)
	}

	return grouped, nil
}

// ListPostsForCategory returns the distinct posts linked to a category.
// Order follows the post bulk fetch.
func (s *Service) ListPostsForCategory(ctx context.Context, categoryID int) ([]model.Post, error) {
	if categoryID <= 0 {
		return nil, common.InvalidArgument("categoryID", categoryID)
	}

	links, err := s.links.GetLinksByCategoryID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links for category %d: %w", categoryID, err)
	}

	postIDs := model.PostIDs(links)
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	posts, err := s.posts.GetPostsByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts for category %d: %w", categoryID, err)
	}

	return posts, nil
}

// CreateLinks links a post to every distinct category id in one atomic batch
// and returns the persisted links in ascending category id order.
// Existing links are not consulted; a repeated pair fails with whatever the
// store reports, common.ErrConstraintViolation for the shipped stores.
func (s *Service) CreateLinks(ctx context.Context, postID int, categoryIDs []int) ([]model.Link, error) {
	if postID <= 0 {
		return nil, common.InvalidArgument("postID", postID)
	}
	if len(categoryIDs) == 0 {
		return []model.Link{}, nil
	}

	distinct := model.DistinctIDs(categoryIDs)
	links := make([]model.Link, 0, len(distinct))
	for _, categoryID := range distinct {
		links = append(links, model.Link{PostID: postID, CategoryID: categoryID})
	}

	created, err := s.links.CreateLinks(ctx, links)
	if err != nil {
		return nil, fmt.Errorf("failed to link post %d to %d categories: %w", postID, len(links), err)
	}

	slog.Debug("linked post to categories", "post_id", postID, "categories", distinct)
	return created, nil
}

// ListLinksForPost returns the raw link rows of a post.
func (s *Service) ListLinksForPost(ctx context.Context, postID int) ([]model.Link, error) {
	if postID <= 0 {
		return nil, common.InvalidArgument("postID", postID)
	}

	links, err := s.links.GetLinksByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links for post %d: %w", postID, err)
	}
	return links, nil
}

// RemoveLinksForPost deletes every link of a post and returns how many were removed.
func (s *Service) RemoveLinksForPost(ctx context.Context, postID int) (int64, error) {
	if postID <= 0 {
		return 0, common.InvalidArgument("postID", postID)
	}

	deleted, err := s.links.DeleteLinksByPostID(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove links for post %d: %w", postID, err)
	}
	return deleted, nil
}

// RemoveLinksForCategory deletes every link of a category and returns how many were removed.
func (s *Service) RemoveLinksForCategory(ctx context.Context, categoryID int) (int64, error) {
	if categoryID <= 0 {
		return 0, common.InvalidArgument("categoryID", categoryID)
	}

	deleted, err := s.links.DeleteLinksByCategoryID(ctx, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove links for category %d: %w", categoryID, err)
	}
	return deleted, nil
}

// CountPostsByCategory returns how many posts each category is linked to.
// Categories without links are absent.
func (s *Service) CountPostsByCategory(ctx context.Context) (map[int]int64, error) {
	counts, err := s.links.CountLinksByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts by category: %w", err)
	}
	return counts, nil
}
