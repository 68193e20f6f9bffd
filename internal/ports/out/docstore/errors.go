package docstore

import "errors"

var (
	// ErrNotFound indicates the document or directory does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrCorrupt indicates the document exists but is not valid JSON for the requested shape.
	ErrCorrupt = errors.New("document corrupt")

	// ErrAlreadyExists indicates a directory is being created twice.
	ErrAlreadyExists = errors.New("directory already exists")

	// ErrInvalidPath indicates a path that escapes the store root or is otherwise malformed.
	ErrInvalidPath = errors.New("invalid document path")
)
