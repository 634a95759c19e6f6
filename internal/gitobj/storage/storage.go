// Package storage defines the backend abstraction gitobj.Database reads
// and writes through, mirroring the teacher's git/gitobj/storage split
// between read-only and writable locations.
package storage

import "io"

// Storage is a read-only source of loose objects keyed by OID.
type Storage interface {
	// Open returns a handle on the object named by oid, or an error
	// (typically *ErrNotExist) if it isn't present.
	Open(oid []byte) (io.ReadCloser, error)
	// IsCompressed reports whether data returned by Open is zlib-deflated.
	IsCompressed() bool
	// Close releases any resources held by the Storage.
	Close() error
}

// WritableStorage additionally accepts new objects.
type WritableStorage interface {
	Storage
	// Store writes the (already zlib-compressed) contents of r under the
	// key oid, returning the number of bytes written.
	Store(oid []byte, r io.Reader) (int64, error)
}

// Backend produces a read side and a write side, which may be the same
// value for a simple filesystem-backed store.
type Backend interface {
	Storage() (Storage, WritableStorage)
}
