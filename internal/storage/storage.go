// Package storage abstracts the object store holding binary assets
// (generated images and audio, uploaded files). Database rows and stored
// objects have separate failure domains; callers decide how to reconcile
// them.
package storage

import (
	"context"
	"io"
)

// ObjectStore is the collaborator interface for binary assets. Paths are
// forward-slash separated keys. Implementations must be safe for concurrent
// use.
type ObjectStore interface {
	// Put stores data under path with the given content type, overwriting
	// any existing object.
	Put(ctx context.Context, path string, data []byte, contentType string) error

	// Get opens the object for reading and reports its content type.
	// Returns an error wrapping os.ErrNotExist if the object is missing.
	Get(ctx context.Context, path string) (io.ReadCloser, string, error)

	// Remove deletes the object. Removing a missing object is not an error.
	Remove(ctx context.Context, path string) error
}

// FileURL returns the route a stored object is served from.
func FileURL(path string) string {
	return "/api/files/" + path
}
