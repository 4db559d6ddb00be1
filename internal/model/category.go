package model

import "time"

// Category represents a content category that posts can be filed under.
type Category struct {
	CreatedAt   time.Time
	Name        string
	Slug        string
	Description string
	ID          int
}
