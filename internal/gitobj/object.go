// Package gitobj implements a minimal git object database: encoding,
// decoding, hashing, and storage of blobs, trees, commits, and tags.
// josh only ever writes loose objects itself, but reads must also
// resolve whatever a fetch packed into objects/pack/*.pack+.idx — see
// storage.NewPackedBackend and Database.open's loose-then-packed
// fallback.
package gitobj

import (
	"hash"
	"io"
)

// ObjectType enumerates the four object kinds git defines.
type ObjectType int

const (
	BlobObjectType ObjectType = iota + 1
	TreeObjectType
	CommitObjectType
	TagObjectType
)

func (t ObjectType) String() string {
	switch t {
	case BlobObjectType:
		return "blob"
	case TreeObjectType:
		return "tree"
	case CommitObjectType:
		return "commit"
	case TagObjectType:
		return "tag"
	default:
		return "unknown"
	}
}

// ObjectTypeFromString maps a header word ("blob", "tree", ...) to its
// ObjectType, returning 0 for anything unrecognized.
func ObjectTypeFromString(s string) ObjectType {
	switch s {
	case "blob":
		return BlobObjectType
	case "tree":
		return TreeObjectType
	case "commit":
		return CommitObjectType
	case "tag":
		return TagObjectType
	default:
		return 0
	}
}

// Object is implemented by every decodable/encodable git object.
type Object interface {
	// Decode reads an object's uncompressed contents from r (exactly size
	// bytes) and populates the receiver. It returns the number of bytes
	// consumed.
	Decode(hash hash.Hash, r io.Reader, size int64) (int, error)
	// Encode writes the object's uncompressed representation to w and
	// returns the number of bytes written.
	Encode(w io.Writer) (int, error)
	// Type returns the object's type.
	Type() ObjectType
}
