// Package filter implements the history-filter language (§4.2): a small
// family of pure tree transformations, each able to apply itself forward
// and invert itself for push-back, plus a total parser from the spec
// string grammar `:nop`, `:/path`, `:prefix=path`, `:[a,b,...]`, `:a:b`.
package filter

import (
	"path"
	"sort"
	"strings"

	"github.com/xandr001/josh/internal/gitobj"
)

// Filter is a pure, total function over trees, tagged-variant style (one
// concrete type per row of §4.2's table) rather than stringly dispatched
// except at the Parse boundary.
type Filter interface {
	// ApplyTree transforms treeID, returning gitobj.ZeroOid if nothing of
	// the source tree survives the filter.
	ApplyTree(db *gitobj.Database, treeID []byte) ([]byte, error)
	// Unapply embeds a filtered tree back into originalParentTree,
	// producing the tree a push-back commit should carry.
	Unapply(db *gitobj.Database, filteredTreeID, originalParentTreeID []byte) ([]byte, error)
	// Spec returns the canonical, parse-stable textual form used as the
	// filter cache key. parse(f.Spec()).Spec() == f.Spec() always holds.
	Spec() string
}

// splitPath breaks a slash-separated subpath into its components,
// ignoring leading/trailing slashes.
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// lookupPath descends treeID through each component of parts, returning
// gitobj.ZeroOid (not an error) if the path isn't present — an absent
// subtree is "the filter eliminates all content", not a failure.
func lookupPath(db *gitobj.Database, treeID []byte, parts []string) ([]byte, error) {
	cur := treeID
	for _, name := range parts {
		if gitobj.IsZeroOid(cur) {
			return gitobj.ZeroOid, nil
		}
		t, err := db.Tree(cur)
		if err != nil {
			return nil, err
		}
		e := t.Entry(name)
		if e == nil || !e.Filemode.IsDir() {
			return gitobj.ZeroOid, nil
		}
		cur = e.Oid
	}
	return cur, nil
}

// wrapPath builds a chain of single-entry trees so that treeID ends up
// addressable at parts, innermost first (the inverse of lookupPath).
func wrapPath(db *gitobj.Database, treeID []byte, parts []string) ([]byte, error) {
	if gitobj.IsZeroOid(treeID) {
		return gitobj.ZeroOid, nil
	}
	cur := treeID
	for i := len(parts) - 1; i >= 0; i-- {
		oid, err := db.WriteTree(gitobj.NewTree([]*gitobj.TreeEntry{
			{Name: parts[i], Oid: cur, Filemode: gitobj.FilemodeDir},
		}))
		if err != nil {
			return nil, err
		}
		cur = oid
	}
	return cur, nil
}

// overlayPath returns a copy of baseTreeID with the subtree at parts
// replaced by subTreeID, creating any missing intermediate directories
// and writing every touched tree level back to db.
func overlayPath(db *gitobj.Database, baseTreeID []byte, parts []string, subTreeID []byte) ([]byte, error) {
	if len(parts) == 0 {
		return subTreeID, nil
	}

	var base *gitobj.Tree
	if gitobj.IsZeroOid(baseTreeID) {
		base = gitobj.NewTree(nil)
	} else {
		t, err := db.Tree(baseTreeID)
		if err != nil {
			return nil, err
		}
		base = t
	}

	name := parts[0]
	var childOid []byte
	if e := base.Entry(name); e != nil && e.Filemode.IsDir() {
		childOid = e.Oid
	} else {
		childOid = gitobj.ZeroOid
	}

	newChild, err := overlayPath(db, childOid, parts[1:], subTreeID)
	if err != nil {
		return nil, err
	}

	entries := make([]*gitobj.TreeEntry, 0, len(base.Entries)+1)
	replaced := false
	for _, e := range base.Entries {
		if e.Name == name {
			if !gitobj.IsZeroOid(newChild) {
				entries = append(entries, &gitobj.TreeEntry{Name: name, Oid: newChild, Filemode: gitobj.FilemodeDir})
			}
			replaced = true
			continue
		}
		entries = append(entries, e)
	}
	if !replaced && !gitobj.IsZeroOid(newChild) {
		entries = append(entries, &gitobj.TreeEntry{Name: name, Oid: newChild, Filemode: gitobj.FilemodeDir})
	}

	return db.WriteTree(gitobj.NewTree(entries))
}

// mergeTrees overlays b's entries onto a's, recursing into shared
// directories, with a's value winning on any leaf conflict — the
// deterministic left-to-right tie-break §4.2's union filter requires
// when its callers merge sub-filter results in order.
func mergeTrees(db *gitobj.Database, a, b []byte) ([]byte, error) {
	if gitobj.IsZeroOid(a) {
		return b, nil
	}
	if gitobj.IsZeroOid(b) {
		return a, nil
	}

	ta, err := db.Tree(a)
	if err != nil {
		return nil, err
	}
	tb, err := db.Tree(b)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*gitobj.TreeEntry, len(ta.Entries)+len(tb.Entries))
	for _, e := range tb.Entries {
		byName[e.Name] = e
	}
	for _, e := range ta.Entries {
		other, ok := byName[e.Name]
		if !ok {
			byName[e.Name] = e
			continue
		}
		if e.Filemode.IsDir() && other.Filemode.IsDir() {
			merged, err := mergeTrees(db, e.Oid, other.Oid)
			if err != nil {
				return nil, err
			}
			byName[e.Name] = &gitobj.TreeEntry{Name: e.Name, Oid: merged, Filemode: gitobj.FilemodeDir}
			continue
		}
		// a wins on a leaf/leaf or leaf/dir conflict.
		byName[e.Name] = e
	}

	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)

	entries := make([]*gitobj.TreeEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, byName[n])
	}
	return db.WriteTree(gitobj.NewTree(entries))
}

// cleanPath normalizes a subpath the way path.Clean does, but keeps the
// result free of leading/trailing slashes for use as a filter spec.
func cleanPath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return strings.Trim(path.Clean("/"+p), "/")
}
