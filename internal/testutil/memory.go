package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
	"github.com/Veraticus/postcat/internal/service"
)

// MemoryStore is an in-memory LinkStore, PostStore and CategoryStore that
// counts every call. Links keep insertion order. Unique (post, category)
// pairs are enforced unless AllowDuplicates is set.
type MemoryStore struct {
	posts      map[int]model.Post
	categories map[int]model.Category
	calls      map[string]int
	errs       map[string]error
	links      []model.Link
	mu         sync.Mutex
	nextPost   int
	nextCat    int
	nextLink   int64

	AllowDuplicates bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:      make(map[int]model.Post),
		categories: make(map[int]model.Category),
		calls:      make(map[string]int),
		errs:       make(map[string]error),
	}
}

var (
	_ service.LinkStore     = (*MemoryStore)(nil)
	_ service.PostStore     = (*MemoryStore)(nil)
	_ service.CategoryStore = (*MemoryStore)(nil)
)

// Calls returns how often the named method was invoked.
func (m *MemoryStore) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of store calls across all methods.
func (m *MemoryStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// ResetCalls zeroes every call counter.
func (m *MemoryStore) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.calls)
}

// FailOn makes the named method return err until cleared with a nil err.
func (m *MemoryStore) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, method)
		return
	}
	m.errs[method] = err
}

// DropCategory removes a category without touching its links, leaving them orphaned.
func (m *MemoryStore) DropCategory(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, id)
}

// Links returns a copy of every stored link in insertion order.
func (m *MemoryStore) Links() []model.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.links)
}

// record counts a call and returns the injected failure, if any. Callers hold mu.
func (m *MemoryStore) record(method string) error {
	m.calls[method]++
	return m.errs[method]
}

func (m *MemoryStore) GetPostsByIDs(_ context.Context, ids []int) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetPostsByIDs"); err != nil {
		return nil, err
	}

	posts := []model.Post{}
	for _, id := range model.DistinctIDs(ids) {
		if p, ok := m.posts[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (m *MemoryStore) GetPosts(_ context.Context) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetPosts"); err != nil {
		return nil, err
	}

	posts := make([]model.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, p)
	}
	slices.SortFunc(posts, func(a, b model.Post) int { return a.ID - b.ID })
	return posts, nil
}

func (m *MemoryStore) CreatePost(_ context.Context, title, slug string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreatePost"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("%w: title and slug are required", common.ErrInvalidArgument)
	}
	for _, p := range m.posts {
		if p.Slug == slug {
			return nil, fmt.Errorf("post slug %q: %w", slug, common.ErrConstraintViolation)
		}
	}

	m.nextPost++
	p := model.Post{ID: m.nextPost, Title: title, Slug: slug, CreatedAt: time.Now()}
	m.posts[p.ID] = p
	return &p, nil
}

func (m *MemoryStore) GetCategoriesByIDs(_ context.Context, ids []int) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetCategoriesByIDs"); err != nil {
		return nil, err
	}

	categories := []model.Category{}
	for _, id := range model.DistinctIDs(ids) {
		if c, ok := m.categories[id]; ok {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func (m *MemoryStore) GetCategories(_ context.Context) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetCategories"); err != nil {
		return nil, err
	}

	categories := make([]model.Category, 0, len(m.categories))
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b model.Category) int { return strings.Compare(a.Name, b.Name) })
	return categories, nil
}

func (m *MemoryStore) GetCategoryByName(_ context.Context, name string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetCategoryByName"); err != nil {
		return nil, err
	}

	for _, c := range m.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
}

func (m *MemoryStore) CreateCategory(_ context.Context, name, slug, description string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateCategory"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("%w: name and slug are required", common.ErrInvalidArgument)
	}
	for _, c := range m.categories {
		if c.Name == name || c.Slug == slug {
			return nil, fmt.Errorf("category %q: %w", name, common.ErrConstraintViolation)
		}
	}

	m.nextCat++
	c := model.Category{ID: m.nextCat, Name: name, Slug: slug, Description: description, CreatedAt: time.Now()}
	m.categories[c.ID] = c
	return &c, nil
}

func (m *MemoryStore) GetLinksByPostID(_ context.Context, postID int) ([]model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetLinksByPostID"); err != nil {
		return nil, err
	}
	return m.filterLinks(func(l model.Link) bool { return l.PostID == postID }), nil
}

func (m *MemoryStore) GetLinksByPostIDs(_ context.Context, postIDs []int) ([]model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetLinksByPostIDs"); err != nil {
		return nil, err
	}
	return m.filterLinks(func(l model.Link) bool { return slices.Contains(postIDs, l.PostID) }), nil
}

func (m *MemoryStore) GetLinksByCategoryID(_ context.Context, categoryID int) ([]model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetLinksByCategoryID"); err != nil {
		return nil, err
	}
	return m.filterLinks(func(l model.Link) bool { return l.CategoryID == categoryID }), nil
}

func (m *MemoryStore) filterLinks(keep func(model.Link) bool) []model.Link {
	links := []model.Link{}
	for _, l := range m.links {
		if keep(l) {
			links = append(links, l)
		}
	}
	return links
}

// CreateLinks stores every link or none of them.
func (m *MemoryStore) CreateLinks(_ context.Context, links []model.Link) ([]model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateLinks"); err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: links cannot be empty", common.ErrInvalidArgument)
	}

	pending := slices.Clone(m.links)
	created := make([]model.Link, 0, len(links))
	next := m.nextLink
	for _, l := range links {
		if l.PostID <= 0 || l.CategoryID <= 0 {
			return nil, fmt.Errorf("%w: link post=%d category=%d", common.ErrInvalidArgument, l.PostID, l.CategoryID)
		}
		if !m.AllowDuplicates && slices.ContainsFunc(pending, func(e model.Link) bool {
			return e.PostID == l.PostID && e.CategoryID == l.CategoryID
		}) {
			return nil, fmt.Errorf("link post=%d category=%d: %w", l.PostID, l.CategoryID, common.ErrConstraintViolation)
		}

		next++
		row := model.Link{ID: next, PostID: l.PostID, CategoryID: l.CategoryID, CreatedAt: time.Now()}
		pending = append(pending, row)
		created = append(created, row)
	}

	m.links = pending
	m.nextLink = next
	return created, nil
}

func (m *MemoryStore) DeleteLinksByPostID(_ context.Context, postID int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteLinksByPostID"); err != nil {
		return 0, err
	}
	return m.deleteLinks(func(l model.Link) bool { return l.PostID == postID }), nil
}

func (m *MemoryStore) DeleteLinksByCategoryID(_ context.Context, categoryID int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteLinksByCategoryID"); err != nil {
		return 0, err
	}
	return m.deleteLinks(func(l model.Link) bool { return l.CategoryID == categoryID }), nil
}

func (m *MemoryStore) deleteLinks(match func(model.Link) bool) int64 {
	before := len(m.links)
	m.links = slices.DeleteFunc(m.links, match)
	return int64(before - len(m.links))
}

func (m *MemoryStore) CountLinksByCategory(_ context.Context) (map[int]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CountLinksByCategory"); err != nil {
		return nil, err
	}

	seen := make(map[[2]int]bool)
	counts := make(map[int]int64)
	for _, l := range m.links {
		key := [2]int{l.CategoryID, l.PostID}
		if seen[key] {
			continue
		}
		seen[key] = true
		counts[l.CategoryID]++
	}
	return counts, nil
}
