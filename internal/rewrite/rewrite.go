// Package rewrite implements the scratch/rewriter (§4.4): given a
// filter and a set of (from-ref, to-ref) pairs, it walks each from-ref
// in reverse topological order, applies the filter commit-by-commit
// (memoizing through a filtercache.Cache), elides commits whose filtered
// tree equals their sole filtered parent's, and finally points each
// to-ref at the filtered head.
package rewrite

import (
	"bytes"

	"github.com/xandr001/josh/internal/filter"
	"github.com/xandr001/josh/internal/filtercache"
	"github.com/xandr001/josh/internal/gitobj"
	"github.com/xandr001/josh/internal/joshrr"
	"github.com/xandr001/josh/internal/objstore"
)

// RefPair names a source ref to filter and the destination ref its
// filtered head should be written to.
type RefPair struct {
	From string
	To   string
}

// Rewriter applies one filter, memoized through a session cache, across
// however many ref pairs a single request needs rewritten.
type Rewriter struct {
	store  *objstore.Store
	f      filter.Filter
	spec   string
	cache  *filtercache.Cache
	backMu *filtercache.Cache
}

// New constructs a Rewriter. cache is the session cache spawned for this
// request (filtercache.NewSession(global)); backward records the inverse
// map used later for push-back.
func New(store *objstore.Store, f filter.Filter, cache, backward *filtercache.Cache) *Rewriter {
	return &Rewriter{store: store, f: f, spec: f.Spec(), cache: cache, backMu: backward}
}

// Rewrite processes every pair in pairs, writing to.To for each, and
// returns the number of commits it actually rewrote (as opposed to
// reused from cache or elided).
func (r *Rewriter) Rewrite(pairs []RefPair) (int, error) {
	written := 0
	for _, p := range pairs {
		srcOid, err := r.store.ReadRef(p.From)
		if err != nil {
			continue
		}
		filteredOid, n, err := r.rewriteCommit(srcOid)
		if err != nil {
			return written, err
		}
		written += n
		if err := r.store.WriteRef(p.To, filteredOid); err != nil {
			return written, joshrr.ObjectStoreErrorf(err, "write ref %s", p.To)
		}
	}
	return written, nil
}

// rewriteCommit is the DFS described in §4.4, steps 1-4. It returns the
// filtered OID for src and how many commits were freshly written (not
// reused or elided) along the way.
func (r *Rewriter) rewriteCommit(src []byte) ([]byte, int, error) {
	if gitobj.IsZeroOid(src) {
		return gitobj.ZeroOid, 0, nil
	}
	if r.cache.Has(r.store, r.spec, src) {
		return r.cache.Get(r.spec, src), 0, nil
	}

	commit, err := r.store.LookupCommit(src)
	if err != nil {
		return nil, 0, joshrr.ObjectStoreErrorf(err, "lookup commit %x", src)
	}

	written := 0
	filteredParents := make([][]byte, 0, len(commit.ParentIDs))
	for _, p := range commit.ParentIDs {
		fp, n, err := r.rewriteCommit(p)
		if err != nil {
			return nil, written, err
		}
		written += n
		if !gitobj.IsZeroOid(fp) && !containsOid(filteredParents, fp) {
			filteredParents = append(filteredParents, fp)
		}
	}

	newTree, err := r.f.ApplyTree(r.store.ODB(), commit.TreeID)
	if err != nil {
		return nil, written, joshrr.ObjectStoreErrorf(err, "apply filter to tree %x", commit.TreeID)
	}

	var result []byte
	switch {
	case gitobj.IsZeroOid(newTree):
		result = gitobj.CopyOid(gitobj.ZeroOid)
	case len(filteredParents) == 1 && samTreeAsParent(r.store, filteredParents[0], newTree):
		result = filteredParents[0]
	default:
		nc := &gitobj.Commit{
			Author:       commit.Author,
			Committer:    commit.Committer,
			TreeID:       newTree,
			ParentIDs:    filteredParents,
			ExtraHeaders: commit.ExtraHeaders,
			Message:      commit.Message,
		}
		oid, err := r.store.WriteCommit(nc)
		if err != nil {
			return nil, written, joshrr.ObjectStoreErrorf(err, "write filtered commit")
		}
		result = oid
		written++
	}

	if r.spec != ":nop" {
		r.cache.Set(r.spec, src, result)
		if r.backMu != nil {
			r.backMu.Set(r.spec, result, src)
		}
	}
	return result, written, nil
}

func containsOid(list [][]byte, oid []byte) bool {
	for _, o := range list {
		if bytes.Equal(o, oid) {
			return true
		}
	}
	return false
}

// samTreeAsParent reports whether parentOid's own tree equals tree —
// the elision test of §4.4 step 3.
func samTreeAsParent(store *objstore.Store, parentOid, tree []byte) bool {
	pc, err := store.LookupCommit(parentOid)
	if err != nil {
		return false
	}
	return bytes.Equal(pc.TreeID, tree)
}
