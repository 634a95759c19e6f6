package hook

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/xandr001/josh/internal/filter"
	"github.com/xandr001/josh/internal/gitobj"
	"github.com/xandr001/josh/internal/joshrr"
	"github.com/xandr001/josh/internal/objstore"
)

// Server answers POST /repo_update notifications from the CGI-spawned
// git process's post-receive hook.
type Server struct {
	store  *objstore.Store
	pusher Pusher
	locks  *keyedMutex
}

// NewServer constructs a hook Server bound to the proxy's shared object
// store.
func NewServer(store *objstore.Store, pusher Pusher) *Server {
	return &Server{store: store, pusher: pusher, locks: newKeyedMutex()}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(err.Error()))
		return
	}

	unlock := s.locks.Lock(req.RemoteURL + "\x00" + req.Refname)
	defer unlock()

	stderr, err := s.handleUpdate(r.Context(), &req)
	if err != nil {
		status, _ := joshrr.HTTPStatus(err)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(stderr))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(stderr))
}

// handleUpdate implements §4.8's server-side translation: parse the new
// filtered OID, invoke the filter's Unapply to overlay its tree onto the
// upstream ref's current commit, write the resulting commit, and push
// it to refname on the upstream.
func (s *Server) handleUpdate(ctx context.Context, req *UpdateRequest) (string, error) {
	newOid, err := gitobj.ParseOid(req.New)
	if err != nil {
		return "", joshrr.ParseErrorf(err, "invalid new oid %q", req.New)
	}
	if gitobj.IsZeroOid(newOid) {
		// a branch deletion on the filtered view has no upstream
		// pre-image to compute; nothing to push.
		return "", nil
	}

	newCommit, err := s.store.LookupCommit(newOid)
	if err != nil {
		return "", joshrr.ObjectStoreErrorf(err, "lookup pushed commit %x", newOid)
	}

	f := filter.Parse(req.FilterSpec)

	upstreamRef := req.BaseNS + "/" + req.Refname
	originalParentOid, err := s.store.ReadRef(upstreamRef)
	var originalParentTree []byte
	if err != nil {
		originalParentTree = gitobj.ZeroOid
		originalParentOid = gitobj.ZeroOid
	} else {
		parentCommit, err := s.store.LookupCommit(originalParentOid)
		if err != nil {
			return "", joshrr.ObjectStoreErrorf(err, "lookup upstream parent %x", originalParentOid)
		}
		originalParentTree = parentCommit.TreeID
	}

	newTree, err := f.Unapply(s.store.ODB(), newCommit.TreeID, originalParentTree)
	if err != nil {
		return "", joshrr.ObjectStoreErrorf(err, "unapply filter %s", req.FilterSpec)
	}

	var parents [][]byte
	if !gitobj.IsZeroOid(originalParentOid) {
		parents = [][]byte{originalParentOid}
	}
	upstreamCommit := &gitobj.Commit{
		Author:       newCommit.Author,
		Committer:    newCommit.Committer,
		TreeID:       newTree,
		ParentIDs:    parents,
		ExtraHeaders: newCommit.ExtraHeaders,
		Message:      newCommit.Message,
	}
	upstreamOid, err := s.store.WriteCommit(upstreamCommit)
	if err != nil {
		return "", joshrr.ObjectStoreErrorf(err, "write push-back commit")
	}

	return s.pusher.Push(ctx, s.store, req.RemoteURL, req.Username, req.Password, req.Refname, upstreamOid)
}
