package model

import "time"

// Link is one row of the post/category join table.
// ID and CreatedAt are assigned by the store when the link is persisted.
type Link struct {
	CreatedAt  time.Time
	ID         int64
	PostID     int
	CategoryID int
}

// CategoryIDs returns the distinct category ids referenced by links, in ascending order.
func CategoryIDs(links []Link) []int {
	ids := make([]int, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.CategoryID)
	}
	return DistinctIDs(ids)
}

// PostIDs returns the distinct post ids referenced by links, in ascending order.
func PostIDs(links []Link) []int {
	ids := make([]int, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.PostID)
	}
	return DistinctIDs(ids)
}
