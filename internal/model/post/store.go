package post

import "errors"

var (
	// ErrNotFound is returned when an id has no toc entry.
	ErrNotFound = errors.New("post not found")
	// ErrCorrupt is returned when the toc and the posts sequence disagree.
	ErrCorrupt = errors.New("post store is corrupt")
)

// Store exposes post persistence for services and HTTP handlers.
type Store interface {
	List() (Document, error)
	Add(p Post) (Post, error)
	FindByID(id int) (Post, error)
	Delete(id int) error
	Update(id int, patch Patch) (Post, error)
}
