package proxyserver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xandr001/josh/internal/filter"
	"github.com/xandr001/josh/internal/gitobj"
	"github.com/xandr001/josh/internal/namespace"
)

func TestToNSTrimsSlashesAndGitSuffix(t *testing.T) {
	require.Equal(t, "grp/myrepo", toNS("/grp/myrepo.git/"))
	require.Equal(t, "myrepo", toNS("myrepo"))
}

func TestUpstreamMarkerRefAndBaseNSAgree(t *testing.T) {
	marker := upstreamMarkerRef("/grp/myrepo.git", "master")
	require.Equal(t, "refs/josh/upstream/grp/myrepo/refs/heads/master", marker)
	require.Equal(t, marker, upstreamBaseNS("/grp/myrepo.git")+"/refs/heads/master")
}

// TestMaterializeWritesStableUpstreamMarker exercises materialize()
// directly (bypassing HTTP dispatch and CGI delegation, which need the
// git binary) to confirm it freezes the raw upstream head under the
// upstream-path-keyed marker ref, not under the request's own namespace.
func TestMaterializeWritesStableUpstreamMarker(t *testing.T) {
	s := newTestServer(t, nil)

	head, err := s.store.WriteCommit(&gitobj.Commit{
		Author:    "A U Thor <a@example.com> 1700000000 +0000",
		Committer: "A U Thor <a@example.com> 1700000000 +0000",
		TreeID:    gitobj.ZeroOid,
		Message:   "init\n",
	})
	require.NoError(t, err)
	require.NoError(t, s.store.WriteRef("refs/heads/master", head))

	ns := namespace.Acquire(s.store)
	defer func() { _ = ns.Release() }()

	require.NoError(t, s.materialize(ns, filter.Nop, "grp/myrepo", "refs/heads/master"))

	marker, err := s.store.ReadRef("refs/josh/upstream/grp/myrepo/refs/heads/master")
	require.NoError(t, err)
	require.Equal(t, head, marker)

	// the namespace's own scoped head must NOT be what JOSH_BASE_NS points
	// at: it only ever holds the filtered tree, and is torn down on
	// Release before push-back can read it.
	require.NotEqual(t, ns.Prefix(), upstreamBaseNS("grp/myrepo"))
}
