package media

import "errors"

var (
	// ErrNoFile is returned when an upload carries no file part.
	ErrNoFile = errors.New("no file uploaded")
	// ErrFileTooLarge signals that the upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidTags signals a tag payload that is not a list of strings.
	ErrInvalidTags = errors.New("tags must be an array")
	// ErrMediaNotFound signals that no media record matches the id.
	ErrMediaNotFound = errors.New("media not found")
	// ErrStoredNameTaken is returned when a stored name is already recorded.
	ErrStoredNameTaken = errors.New("stored name already in use")
)
