package gitobj

import (
	"hash"
	"io"
)

// Blob is the content of a single file. josh never needs to inspect blob
// bytes — filters only restructure trees — so Blob exists mainly so the
// object database can round-trip through the generic Object interface and
// tests can exercise small blobs directly.
type Blob struct {
	Contents io.Reader
	Size     int64

	closeFn func() error
}

func (b *Blob) Type() ObjectType { return BlobObjectType }

func (b *Blob) Decode(_ hash.Hash, r io.Reader, size int64) (int, error) {
	b.Contents = io.LimitReader(r, size)
	b.Size = size
	if rc, ok := r.(io.Closer); ok {
		b.closeFn = rc.Close
	}
	return int(size), nil
}

func (b *Blob) Encode(w io.Writer) (int, error) {
	n, err := io.Copy(w, b.Contents)
	return int(n), err
}

// Close releases the underlying reader, if any. Safe to call more than
// once or on a Blob built in memory.
func (b *Blob) Close() error {
	if b.closeFn == nil {
		return nil
	}
	fn := b.closeFn
	b.closeFn = nil
	return fn()
}
