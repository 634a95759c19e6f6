package gitobj

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"hash"
	"io"
	"os"
	"sync/atomic"

	"github.com/xandr001/josh/internal/gitobj/storage"
)

// Database enables the reading and writing of objects against a storage
// backend, grounded directly on the teacher's git/gitobj.Database: the
// same read/write-side split, the same open/decode/encode/save pipeline.
// josh only ever targets SHA-1 object format — the upstream repositories
// it proxies are always classic git — so, unlike the teacher, there is no
// ObjectFormat option.
type Database struct {
	closed uint32

	ro     storage.Storage
	rw     storage.WritableStorage
	packed storage.Storage

	tmp string
}

// NewDatabase constructs a *Database backed by a loose-object directory on
// disk (root should be "<repo>/objects"). It never resolves packfiles;
// use NewDatabaseWithPacks for a database that sits behind a fetch that
// may have packed its objects.
func NewDatabase(root, tmp string) (*Database, error) {
	b, err := storage.NewFilesystemBackend(root, tmp)
	if err != nil {
		return nil, err
	}
	ro, rw := b.Storage()
	return &Database{ro: ro, rw: rw, tmp: tmp}, nil
}

// NewDatabaseWithPacks is NewDatabase plus a fallback onto gitDir's
// packfiles (objects/pack/*.pack+.idx) for objects the loose store
// doesn't have. GoGitTransport's fetch and the hook pusher both write
// through go-git's own filesystem.Storage, which packs anything beyond
// a handful of objects rather than exploding it into loose files — this
// is the read side of that same storage.
func NewDatabaseWithPacks(gitDir, root, tmp string) (*Database, error) {
	d, err := NewDatabase(root, tmp)
	if err != nil {
		return nil, err
	}
	d.packed = storage.NewPackedBackend(gitDir)
	return d, nil
}

// Close closes the *Database, releasing any open resources.
func (d *Database) Close() error {
	if !atomic.CompareAndSwapUint32(&d.closed, 0, 1) {
		return fmt.Errorf("git/object: *Database already closed")
	}
	if err := d.ro.Close(); err != nil {
		return err
	}
	if d.packed != nil {
		if err := d.packed.Close(); err != nil {
			return err
		}
	}
	return d.rw.Close()
}

// Object returns an Object of whatever type the given oid identifies.
func (d *Database) Object(oid []byte) (Object, error) {
	r, err := d.open(oid)
	if err != nil {
		return nil, err
	}
	typ, _, err := r.Header()
	if err != nil {
		return nil, err
	}

	var into Object
	switch typ {
	case BlobObjectType:
		into = new(Blob)
	case TreeObjectType:
		into = new(Tree)
	case CommitObjectType:
		into = new(Commit)
	case TagObjectType:
		into = new(Tag)
	default:
		return nil, fmt.Errorf("git/object: unknown object type: %s", typ)
	}
	return into, d.decode(r, into)
}

// Exists reports whether oid names an object in this database.
func (d *Database) Exists(oid []byte) bool {
	r, err := d.open(oid)
	if err != nil {
		return false
	}
	_ = r.Close()
	return true
}

// Blob returns a *Blob identified by oid.
func (d *Database) Blob(oid []byte) (*Blob, error) {
	var b Blob
	if err := d.openDecode(oid, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Tree returns a *Tree identified by oid.
func (d *Database) Tree(oid []byte) (*Tree, error) {
	var t Tree
	if err := d.openDecode(oid, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Commit returns a *Commit identified by oid.
func (d *Database) Commit(oid []byte) (*Commit, error) {
	var c Commit
	if err := d.openDecode(oid, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Tag returns a *Tag identified by oid.
func (d *Database) Tag(oid []byte) (*Tag, error) {
	var t Tag
	if err := d.openDecode(oid, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// WriteTree stores t and returns its OID.
func (d *Database) WriteTree(t *Tree) ([]byte, error) {
	return d.encode(t)
}

// WriteCommit stores c and returns its OID.
func (d *Database) WriteCommit(c *Commit) ([]byte, error) {
	return d.encode(c)
}

// WriteTag stores t and returns its OID.
func (d *Database) WriteTag(t *Tag) ([]byte, error) {
	return d.encode(t)
}

// Hasher returns a fresh hash instance for this database's object format.
func (d *Database) Hasher() hash.Hash {
	return sha1.New()
}

func (d *Database) encode(object Object) ([]byte, error) {
	buf := new(bytes.Buffer)
	cn, err := object.Encode(buf)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(d.tmp, "josh_obj_")
	if err != nil {
		return nil, err
	}
	defer d.cleanup(tmp)

	to := NewObjectWriter(tmp, d.Hasher())
	if _, err = to.WriteHeader(object.Type(), int64(cn)); err != nil {
		return nil, err
	}
	if _, err = io.Copy(to, buf); err != nil {
		return nil, err
	}
	if err = to.Close(); err != nil {
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return d.save(to.Sha(), tmp)
}

func (d *Database) save(oid []byte, r io.Reader) ([]byte, error) {
	_, err := d.rw.Store(oid, r)
	return oid, err
}

func (d *Database) open(oid []byte) (*ObjectReader, error) {
	if atomic.LoadUint32(&d.closed) == 1 {
		return nil, fmt.Errorf("git/object: cannot use closed *Database")
	}
	f, err := d.ro.Open(oid)
	if err != nil {
		if d.packed != nil && storage.IsNotExist(err) {
			pf, perr := d.packed.Open(oid)
			if perr != nil {
				return nil, perr
			}
			return NewUncompressedObjectReadCloser(pf)
		}
		return nil, err
	}
	if d.ro.IsCompressed() {
		return NewObjectReadCloser(f)
	}
	return NewUncompressedObjectReadCloser(f)
}

func (d *Database) openDecode(oid []byte, into Object) error {
	r, err := d.open(oid)
	if err != nil {
		return err
	}
	return d.decode(r, into)
}

func (d *Database) decode(r *ObjectReader, into Object) error {
	typ, size, err := r.Header()
	if err != nil {
		return err
	} else if typ != into.Type() {
		return &UnexpectedObjectType{Got: typ, Wanted: into.Type()}
	}
	if _, err = into.Decode(d.Hasher(), r, size); err != nil {
		return err
	}
	if into.Type() == BlobObjectType {
		return nil
	}
	return r.Close()
}

func (d *Database) cleanup(f *os.File) {
	_ = f.Close()
	_ = os.Remove(f.Name())
}
