package legacy

import "errors"

var (
	// ErrNotDirectory is returned when the import source is not a directory.
	ErrNotDirectory = errors.New("import source is not a directory")

	// ErrMalformedFile is returned when a JSON file does not have the
	// expected shape.
	ErrMalformedFile = errors.New("malformed legacy file")
)
