package category

import "errors"

var (
	// ErrCategoryNotFound is returned when no data exists for a category.
	ErrCategoryNotFound = errors.New("no data for this category")

	// ErrCategoryEmpty is returned when a category exists but holds no links.
	ErrCategoryEmpty = errors.New("no links stored")
)
