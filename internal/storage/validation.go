// Package storage provides the SQLite persistence layer for posts, categories and their links.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/model"
)

// Validation errors. All but ErrNilContext wrap common.ErrInvalidArgument.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = fmt.Errorf("%w: string parameter cannot be empty", common.ErrInvalidArgument)
	ErrEmptySlice  = fmt.Errorf("%w: slice cannot be empty", common.ErrInvalidArgument)
	ErrInvalidID   = fmt.Errorf("%w: id must be positive", common.ErrInvalidArgument)
	ErrInvalidLink = fmt.Errorf("%w: invalid link", common.ErrInvalidArgument)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidID, paramName, id)
	}
	return nil
}

// validateLinks validates a batch of links before insertion.
func validateLinks(links []model.Link) error {
	if len(links) == 0 {
		return fmt.Errorf("%w: links", ErrEmptySlice)
	}

	for i, l := range links {
		if l.PostID <= 0 {
			return fmt.Errorf("link at index %d: %w: missing post ID", i, ErrInvalidLink)
		}
		if l.CategoryID <= 0 {
			return fmt.Errorf("link at index %d: %w: missing category ID", i, ErrInvalidLink)
		}
	}
	return nil
}

// placeholders builds "?, ?, ?" for an IN clause and the matching argument list.
func placeholders(ids []int) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ", "), args
}
