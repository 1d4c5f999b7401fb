package resolve

import "errors"

var (
	// ErrEmptyHost is reported when a link has no host component.
	ErrEmptyHost = errors.New("link has no host")

	// ErrNoAddress is reported when a lookup succeeds but returns no address.
	ErrNoAddress = errors.New("no address found for host")
)
