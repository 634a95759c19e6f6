package filter

import (
	"fmt"

	"github.com/xandr001/josh/internal/gitobj"
)

// subdirFilter keeps only the subtree at Path, rebasing every kept
// commit so its root is that subtree.
type subdirFilter struct {
	Path string
}

func newSubdirFilter(p string) Filter {
	return &subdirFilter{Path: cleanPath(p)}
}

func (f *subdirFilter) ApplyTree(db *gitobj.Database, treeID []byte) ([]byte, error) {
	return lookupPath(db, treeID, splitPath(f.Path))
}

func (f *subdirFilter) Unapply(db *gitobj.Database, filteredTreeID, originalParentTreeID []byte) ([]byte, error) {
	return overlayPath(db, originalParentTreeID, splitPath(f.Path), filteredTreeID)
}

func (f *subdirFilter) Spec() string {
	return fmt.Sprintf(":/%s", f.Path)
}
