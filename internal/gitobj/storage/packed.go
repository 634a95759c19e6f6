package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// packedBackend resolves objects out of gitDir's packfiles
// (objects/pack/*.pack+.idx) via go-git's own storage layer — the same
// layer a GoGitTransport fetch negotiating more than a handful of
// objects writes through (filesystem.Storage implements
// storer.PackfileWriter). A loose-object-only Storage can never see
// those objects; this is the fallback Database.open consults once the
// loose lookup misses.
type packedBackend struct {
	storer *filesystem.Storage
}

// NewPackedBackend opens a read-only view of gitDir's packfiles.
func NewPackedBackend(gitDir string) Storage {
	fs := osfs.New(gitDir)
	return &packedBackend{storer: filesystem.NewStorage(fs, cache.NewObjectLRUDefault())}
}

func (p *packedBackend) Open(oid []byte) (io.ReadCloser, error) {
	var h plumbing.Hash
	copy(h[:], oid)
	obj, err := p.storer.EncodedObject(plumbing.AnyObject, h)
	if err != nil {
		if err == plumbing.ErrObjectNotFound {
			return nil, &ErrNotExist{Oid: oid}
		}
		return nil, err
	}
	r, err := obj.Reader()
	if err != nil {
		return nil, err
	}
	header := fmt.Sprintf("%s %d\x00", typeName(obj.Type()), obj.Size())
	return &headeredReadCloser{
		r: io.MultiReader(bytes.NewReader([]byte(header)), r),
		c: r,
	}, nil
}

// IsCompressed is false: go-git's Reader() already yields the object's
// raw uncompressed content, header prepended above.
func (p *packedBackend) IsCompressed() bool { return false }

func (p *packedBackend) Close() error { return nil }

// headeredReadCloser glues a synthesized loose-object header onto a
// go-git EncodedObject's content reader, so it can flow through the
// same ObjectReader that parses on-disk loose objects.
type headeredReadCloser struct {
	r io.Reader
	c io.Closer
}

func (h *headeredReadCloser) Read(p []byte) (int, error) { return h.r.Read(p) }
func (h *headeredReadCloser) Close() error                { return h.c.Close() }

func typeName(t plumbing.ObjectType) string {
	switch t {
	case plumbing.TreeObject:
		return "tree"
	case plumbing.CommitObject:
		return "commit"
	case plumbing.TagObject:
		return "tag"
	default:
		return "blob"
	}
}
