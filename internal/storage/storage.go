// Package storage holds the object-storage adapters used for newsletter images.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore uploads, fetches and deletes blobs by key.
//
// Upload and Delete swallow backend errors (they are logged) and report
// failure through their second/only return value; Get returns the error so
// the caller can surface it.
type ObjectStore interface {
	Upload(ctx context.Context, body io.Reader, key, contentType string) (url string, ok bool)
	Delete(ctx context.Context, key string) bool
	Get(ctx context.Context, key string) (*Object, error)
}

// Object is a fetched blob. The caller closes Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// KeyFromURL returns the trailing path segment of a stored image URL.
func KeyFromURL(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
