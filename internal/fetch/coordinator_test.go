package fetch

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xandr001/josh/internal/gitobj"
	"github.com/xandr001/josh/internal/joshrr"
	"github.com/xandr001/josh/internal/objstore"
)

type fakeTransport struct {
	calls  int32
	fail   error
	onCall func()
}

func (f *fakeTransport) Fetch(_ context.Context, _, _, _ string) error {
	atomic.AddInt32(&f.calls, 1)
	if f.onCall != nil {
		f.onCall()
	}
	return f.fail
}

func newStore(t *testing.T) *objstore.Store {
	t.Helper()
	s, err := objstore.Open(filepath.Join(t.TempDir(), "repo.git"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFetchUpstreamAuthorizesOnSuccess(t *testing.T) {
	tr := &fakeTransport{}
	c, err := New(1, 10, DefaultCacheConfig, tr)
	require.NoError(t, err)
	store := newStore(t)

	outcome, err := c.FetchUpstream(context.Background(), store, "https://example.com/r.git", "u", "p", "refs/heads/master")
	require.NoError(t, err)
	require.Equal(t, Authorized, outcome)
	require.EqualValues(t, 1, tr.calls)
}

func TestFetchUpstreamPropagatesAuthError(t *testing.T) {
	tr := &fakeTransport{fail: joshrr.AuthErrorf(nil, "denied")}
	c, err := New(1, 10, DefaultCacheConfig, tr)
	require.NoError(t, err)
	store := newStore(t)

	outcome, err := c.FetchUpstream(context.Background(), store, "https://example.com/r.git", "u", "p", "refs/heads/master")
	require.NoError(t, err)
	require.Equal(t, Unauthorized, outcome)
}

func TestFetchUpstreamPropagatesUpstreamError(t *testing.T) {
	tr := &fakeTransport{fail: joshrr.UpstreamErrorf(nil, "network down")}
	c, err := New(1, 10, DefaultCacheConfig, tr)
	require.NoError(t, err)
	store := newStore(t)

	outcome, err := c.FetchUpstream(context.Background(), store, "https://example.com/r.git", "u", "p", "refs/heads/master")
	require.Error(t, err)
	require.Equal(t, Error, outcome)
}

func TestFetchUpstreamShortCircuitsOnValidCredentialAndResolvableRef(t *testing.T) {
	tr := &fakeTransport{}
	c, err := New(1, 10, DefaultCacheConfig, tr)
	require.NoError(t, err)
	store := newStore(t)

	oid := make([]byte, gitobj.OidLen)
	oid[0] = 1
	require.NoError(t, store.WriteRef("refs/heads/master", oid))

	ctx := context.Background()
	_, err = c.FetchUpstream(ctx, store, "https://example.com/r.git", "u", "p", "refs/heads/master")
	require.NoError(t, err)

	outcome, err := c.FetchUpstream(ctx, store, "https://example.com/r.git", "u", "p", "refs/heads/master")
	require.NoError(t, err)
	require.Equal(t, Authorized, outcome)
	require.EqualValues(t, 1, tr.calls, "second call should be served from the credential TTL cache")
}

func TestFilterPermitGating(t *testing.T) {
	tr := &fakeTransport{}
	c, err := New(1, 1, DefaultCacheConfig, tr)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.AcquireFilterPermit(ctx))

	acquired := make(chan struct{})
	go func() {
		_ = c.AcquireFilterPermit(context.Background())
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while the single permit is held")
	default:
	}

	c.ReleaseFilterPermit()
	<-acquired
	c.ReleaseFilterPermit()
}
