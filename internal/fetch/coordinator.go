// Package fetch implements the fetch coordinator (§4.6): credential-
// validity caching, semaphore-bounded admission control around upstream
// fetches and filter jobs, and the actual authenticated git transport.
package fetch

import (
	"context"
	"crypto/sha1"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/semaphore"

	"github.com/xandr001/josh/internal/joshrr"
	"github.com/xandr001/josh/internal/objstore"
)

// Outcome is the three-valued result §4.6 names.
type Outcome int

const (
	Unauthorized Outcome = iota
	Authorized
	Error
)

// credentialTTL is the window (§4.6 step 2) during which a previously
// validated credential is trusted without re-fetching.
const credentialTTL = 60 * time.Second

// CacheConfig mirrors the teacher's own serve.Cache shape
// (NumCounters/MaxCost/BufferItems), reused here to size the
// ristretto-backed credential cache instead of an object cache.
type CacheConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// DefaultCacheConfig is sized for a few thousand distinct
// (remote,user,pass) fingerprints, which is generous for any single
// josh-proxy deployment.
var DefaultCacheConfig = CacheConfig{NumCounters: 1e4, MaxCost: 1 << 20, BufferItems: 64}

// Coordinator gates upstream fetches and filter jobs behind the two
// semaphores §4.6 and §5 require, and remembers recently validated
// credentials so a hot repo doesn't re-authenticate on every request.
type Coordinator struct {
	fetchSem  *semaphore.Weighted
	filterSem *semaphore.Weighted
	creds     *ristretto.Cache[string, time.Time]
	transport Transport
}

// Transport performs the actual network fetch; GoGitTransport in
// transport.go is the go-git-backed production implementation, and
// tests supply a fake.
type Transport interface {
	Fetch(ctx context.Context, remoteURL, user, pass string) error
}

// New constructs a Coordinator. fetchPermits and filterPermits are the
// two semaphore capacities §5's resource table names (defaults 1 and
// 10).
func New(fetchPermits, filterPermits int64, cacheCfg CacheConfig, transport Transport) (*Coordinator, error) {
	creds, err := ristretto.NewCache(&ristretto.Config[string, time.Time]{
		NumCounters: cacheCfg.NumCounters,
		MaxCost:     cacheCfg.MaxCost,
		BufferItems: cacheCfg.BufferItems,
	})
	if err != nil {
		return nil, joshrr.InternalErrorf(err, "construct credential cache")
	}
	return &Coordinator{
		fetchSem:  semaphore.NewWeighted(fetchPermits),
		filterSem: semaphore.NewWeighted(filterPermits),
		creds:     creds,
		transport: transport,
	}, nil
}

// credentialHash computes SHA1(remote-url || user || pass), the
// fingerprint §4.6 step 1 names.
func credentialHash(remoteURL, user, pass string) string {
	h := sha1.New()
	h.Write([]byte(remoteURL))
	h.Write([]byte(user))
	h.Write([]byte(pass))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// FlushCredentials clears the credential-validity cache, the operation
// the proxy's /flush endpoint exposes.
func (c *Coordinator) FlushCredentials() {
	c.creds.Clear()
}

// AcquireFilterPermit blocks until a filter-job permit is available.
func (c *Coordinator) AcquireFilterPermit(ctx context.Context) error {
	return c.filterSem.Acquire(ctx, 1)
}

// ReleaseFilterPermit returns a filter-job permit.
func (c *Coordinator) ReleaseFilterPermit() {
	c.filterSem.Release(1)
}

// FetchUpstream implements §4.6's fetch_upstream: a cheap credential-TTL
// short-circuit, or else a permit-gated blocking fetch of
// refs/heads/*, refs/tags/*, refs/changes/*.
func (c *Coordinator) FetchUpstream(ctx context.Context, store *objstore.Store, remoteURL, user, pass, headref string) (Outcome, error) {
	h := credentialHash(remoteURL, user, pass)

	if last, ok := c.creds.Get(h); ok && time.Since(last) < credentialTTL {
		if _, err := store.ResolveRef(headref); err == nil {
			return Authorized, nil
		}
	}

	if err := c.fetchSem.Acquire(ctx, 1); err != nil {
		return Error, joshrr.InternalErrorf(err, "acquire fetch permit")
	}
	defer c.fetchSem.Release(1)

	if err := c.transport.Fetch(ctx, remoteURL, user, pass); err != nil {
		if joshrr.IsAuthError(err) {
			return Unauthorized, nil
		}
		return Error, joshrr.UpstreamErrorf(err, "fetch %s", remoteURL)
	}

	c.creds.SetWithTTL(h, time.Now(), 1, credentialTTL)
	c.creds.Wait()
	return Authorized, nil
}
