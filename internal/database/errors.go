package database

import "errors"

var (
	// ErrEmptyCategory is returned when a category name is empty.
	ErrEmptyCategory = errors.New("category name is empty")

	// ErrEmptyIP is returned when an IP address is empty.
	ErrEmptyIP = errors.New("ip address is empty")
)
