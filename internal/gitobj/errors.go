package gitobj

import (
	"fmt"

	"github.com/xandr001/josh/internal/gitobj/storage"
)

// UnexpectedObjectType is returned when an object is decoded against a
// destination of the wrong type, e.g. opening a commit as a tree.
type UnexpectedObjectType struct {
	Got, Wanted ObjectType
}

func (e *UnexpectedObjectType) Error() string {
	return fmt.Sprintf("git/object: unexpected object type, got: %q, wanted: %q", e.Got, e.Wanted)
}

// IsNoSuchObject reports whether err denotes a missing object in the
// backing storage.
func IsNoSuchObject(err error) bool {
	return storage.IsNotExist(err)
}
