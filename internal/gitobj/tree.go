package gitobj

import (
	"bufio"
	"fmt"
	"hash"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Filemode is the octal file mode git stores alongside a tree entry.
type Filemode uint32

const (
	FilemodeRegular    Filemode = 0o100644
	FilemodeExecutable Filemode = 0o100755
	FilemodeSymlink    Filemode = 0o120000
	FilemodeDir        Filemode = 0o040000
	FilemodeSubmodule  Filemode = 0o160000
)

// IsDir reports whether the mode denotes a subtree.
func (m Filemode) IsDir() bool { return m == FilemodeDir }

// TreeEntry is one (mode, name, oid) record inside a Tree.
type TreeEntry struct {
	Name     string
	Oid      []byte
	Filemode Filemode
}

// Tree is an ordered set of TreeEntry, git's directory object.
type Tree struct {
	Entries []*TreeEntry
}

func (t *Tree) Type() ObjectType { return TreeObjectType }

// sortKey implements git's tree sort order: entries compare as if
// directory names had a trailing "/", so "foo" sorts after "foo.txt" but
// before "foo/bar".
func sortKey(e *TreeEntry) string {
	if e.Filemode.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

// SortEntries sorts es in place per git's tree ordering rule.
func SortEntries(es []*TreeEntry) {
	sort.SliceStable(es, func(i, j int) bool {
		return sortKey(es[i]) < sortKey(es[j])
	})
}

// NewTree builds a Tree with entries sorted into git's canonical order.
func NewTree(entries []*TreeEntry) *Tree {
	cp := make([]*TreeEntry, len(entries))
	copy(cp, entries)
	SortEntries(cp)
	return &Tree{Entries: cp}
}

// Entry returns the entry named name, or nil.
func (t *Tree) Entry(name string) *TreeEntry {
	for _, e := range t.Entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (t *Tree) Encode(w io.Writer) (int, error) {
	total := 0
	for _, e := range t.Entries {
		n, err := fmt.Fprintf(w, "%o %s\x00", uint32(e.Filemode), e.Name)
		if err != nil {
			return total, err
		}
		total += n
		nn, err := w.Write(e.Oid)
		if err != nil {
			return total, err
		}
		total += nn
	}
	return total, nil
}

func (t *Tree) Decode(_ hash.Hash, r io.Reader, size int64) (int, error) {
	br := bufio.NewReader(io.LimitReader(r, size))
	var entries []*TreeEntry
	read := 0
	for {
		modeStr, err := br.ReadString(' ')
		if err == io.EOF {
			break
		}
		if err != nil {
			return read, err
		}
		read += len(modeStr)
		modeStr = strings.TrimSuffix(modeStr, " ")
		mode, err := strconv.ParseUint(modeStr, 8, 32)
		if err != nil {
			return read, fmt.Errorf("git/object: invalid tree entry mode %q: %w", modeStr, err)
		}

		name, err := br.ReadString(0)
		if err != nil {
			return read, err
		}
		read += len(name)
		name = strings.TrimSuffix(name, "\x00")

		oid := make([]byte, OidLen)
		n, err := io.ReadFull(br, oid)
		read += n
		if err != nil {
			return read, err
		}

		entries = append(entries, &TreeEntry{
			Name:     name,
			Oid:      oid,
			Filemode: Filemode(mode),
		})
	}
	t.Entries = entries
	return read, nil
}
