// Package model defines the core domain types shared across the application.
package model

import "time"

// Post represents a published or draft piece of content.
type Post struct {
	CreatedAt time.Time
	Title     string
	Slug      string
	ID        int
}
