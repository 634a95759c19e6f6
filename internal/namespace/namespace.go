// Package namespace implements the namespace manager (§4.5): random,
// process-unique ref-prefix handles that scope everything one request
// materializes, so concurrent requests sharing the same object database
// never collide inside refs/. Acquisition returns a handle whose Release
// deletes every ref under its prefix; it never deletes objects, which
// remain for the filter cache to reuse.
package namespace

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/xandr001/josh/internal/objstore"
)

// Handle is an acquired namespace. Callers must call Release exactly
// once, on every exit path (success, error, or cancellation).
type Handle struct {
	id    string
	store *objstore.Store

	released bool
}

// Acquire allocates a fresh namespace rooted at
// refs/namespaces/<uuid>/... in store.
func Acquire(store *objstore.Store) *Handle {
	return &Handle{id: uuid.NewString(), store: store}
}

// ID returns the namespace's random identifier.
func (h *Handle) ID() string { return h.id }

// Prefix returns the ref-path prefix every ref this namespace owns lives
// under.
func (h *Handle) Prefix() string {
	return fmt.Sprintf("refs/namespaces/%s", h.id)
}

// Ref qualifies a bare ref name (e.g. "heads/master") into one scoped to
// this namespace.
func (h *Handle) Ref(name string) string {
	return fmt.Sprintf("%s/%s", h.Prefix(), name)
}

// Release deletes every ref under this namespace's prefix. It is
// idempotent: calling it twice (e.g. once via defer and once explicitly
// on an early-success path) is safe.
func (h *Handle) Release() error {
	if h.released {
		return nil
	}
	h.released = true
	return h.store.DeleteRefsByPrefix(h.Prefix())
}
