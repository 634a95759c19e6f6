package filter

import (
	"fmt"

	"github.com/xandr001/josh/internal/gitobj"
)

// prefixFilter is the inverse of subdirFilter: it wraps a tree so its
// contents appear under Path.
type prefixFilter struct {
	Path string
}

func newPrefixFilter(p string) Filter {
	return &prefixFilter{Path: cleanPath(p)}
}

func (f *prefixFilter) ApplyTree(db *gitobj.Database, treeID []byte) ([]byte, error) {
	return wrapPath(db, treeID, splitPath(f.Path))
}

func (f *prefixFilter) Unapply(db *gitobj.Database, filteredTreeID, _ []byte) ([]byte, error) {
	return lookupPath(db, filteredTreeID, splitPath(f.Path))
}

func (f *prefixFilter) Spec() string {
	return fmt.Sprintf(":prefix=%s", f.Path)
}
