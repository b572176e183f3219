// Package storage keeps uploaded files (license scans) behind a small
// key/value interface so the HTTP layer never touches paths directly.
package storage

import (
	"errors"
	"io"
)

var (
	ErrNotFound = errors.New("blob not found")
	ErrBadKey   = errors.New("bad blob key")
)

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}
