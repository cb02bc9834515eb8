package tag

import "errors"

var (
	// ErrNameRequired is returned when a tag name is empty after trimming.
	ErrNameRequired = errors.New("tag name is required")
	// ErrTagExists is returned when another tag already uses the name.
	ErrTagExists = errors.New("tag already exists")
	// ErrTagNotFound indicates the requested tag does not exist.
	ErrTagNotFound = errors.New("tag not found")
)
