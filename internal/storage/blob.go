package storage

import "io"

// BlobStore holds stimulus media (photos, recordings). Keys are referenced
// from Stimulus payloads and served via /assets.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
