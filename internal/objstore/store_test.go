package objstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xandr001/josh/internal/gitobj"
)

func TestOpenInitializesBareLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo.git")
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	require.DirExists(t, filepath.Join(dir, "objects"))
	require.DirExists(t, filepath.Join(dir, "refs", "heads"))
	require.FileExists(t, filepath.Join(dir, "HEAD"))

	target, err := s.SymbolicTarget("HEAD")
	require.NoError(t, err)
	require.Equal(t, "refs/heads/master", target)
}

func TestWriteAndReadRef(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo.git")
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	commit := &gitobj.Commit{
		Author:    "A U Thor <a@example.com> 1234567890 +0000",
		Committer: "A U Thor <a@example.com> 1234567890 +0000",
		TreeID:    make([]byte, gitobj.OidLen),
		Message:   "initial\n",
	}
	oid, err := s.WriteCommit(commit)
	require.NoError(t, err)
	require.True(t, s.OdbExists(oid))

	require.NoError(t, s.WriteRef("refs/heads/main", oid))
	got, err := s.ReadRef("refs/heads/main")
	require.NoError(t, err)
	require.Equal(t, oid, got)

	back, err := s.LookupCommit(got)
	require.NoError(t, err)
	require.Equal(t, "initial\n", back.Message)
}

func TestDeleteRefsByPrefix(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo.git")
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	oid := make([]byte, gitobj.OidLen)
	oid[0] = 1
	require.NoError(t, s.WriteRef("refs/namespace/abc/heads/main", oid))
	require.NoError(t, s.WriteRef("refs/namespace/abc/heads/other", oid))

	names, err := s.ListRefs("refs/namespace/abc")
	require.NoError(t, err)
	require.Len(t, names, 2)

	require.NoError(t, s.DeleteRefsByPrefix("refs/namespace/abc"))

	_, err = s.ReadRef("refs/namespace/abc/heads/main")
	require.Error(t, err)
}

func TestRefPathRejectsEscape(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo.git")
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.refPath("../../etc/passwd")
	require.Error(t, err)
}
