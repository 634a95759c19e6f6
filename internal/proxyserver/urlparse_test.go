package proxyserver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRepoURLBareUpstream(t *testing.T) {
	p, ok := ParseRepoURL("/u/r.git")
	require.True(t, ok)
	require.Equal(t, "u/r", p.UpstreamPath)
	require.Equal(t, "refs/heads/master", p.Headref)
	require.Equal(t, ":nop", p.FilterSpec)
	require.Equal(t, "", p.PathInfo)
}

func TestParseRepoURLWithFilterAndPathInfo(t *testing.T) {
	p, ok := ParseRepoURL("/u/r.git:/a.git/info/refs")
	require.True(t, ok)
	require.Equal(t, "u/r", p.UpstreamPath)
	require.Equal(t, ":/a", p.FilterSpec)
	require.Equal(t, "/info/refs", p.PathInfo)
}

func TestParseRepoURLWithHeadrefAndFilter(t *testing.T) {
	p, ok := ParseRepoURL("/u/r.git@develop:/a.git")
	require.True(t, ok)
	require.Equal(t, "develop", p.Headref)
	require.Equal(t, ":/a", p.FilterSpec)
}

func TestParseRepoURLCollapsesSlashes(t *testing.T) {
	p, ok := ParseRepoURL("//u///r.git")
	require.True(t, ok)
	require.Equal(t, "u/r", p.UpstreamPath)
}

func TestParseRepoURLRejectsMissingGit(t *testing.T) {
	_, ok := ParseRepoURL("/version")
	require.False(t, ok)
}

func TestParseRepoURLHeadrefWithSlashesAndNoFilter(t *testing.T) {
	p, ok := ParseRepoURL("/upstream.git@refs/heads/main.git/info/refs")
	require.True(t, ok)
	require.Equal(t, "upstream", p.UpstreamPath)
	require.Equal(t, "refs/heads/main", p.Headref)
	require.Equal(t, ":nop", p.FilterSpec)
	require.Equal(t, "/info/refs", p.PathInfo)
}

func TestParseRepoURLUnionFilter(t *testing.T) {
	p, ok := ParseRepoURL("/u/r.git:[:/a,:/b].git/info/refs")
	require.True(t, ok)
	require.Equal(t, ":[:/a,:/b]", p.FilterSpec)
	require.Equal(t, "/info/refs", p.PathInfo)
}
