package filter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xandr001/josh/internal/gitobj"
)

func newTestDB(t *testing.T) *gitobj.Database {
	t.Helper()
	root := filepath.Join(t.TempDir(), "objects")
	db, err := gitobj.NewDatabase(root, filepath.Join(root, "tmp"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func blobOid(b byte) []byte {
	oid := make([]byte, gitobj.OidLen)
	oid[gitobj.OidLen-1] = b
	return oid
}

func TestSubdirApplyAndUnapply(t *testing.T) {
	db := newTestDB(t)

	bTree, err := db.WriteTree(gitobj.NewTree([]*gitobj.TreeEntry{
		{Name: "y", Oid: blobOid(2), Filemode: gitobj.FilemodeRegular},
	}))
	require.NoError(t, err)
	aTree, err := db.WriteTree(gitobj.NewTree([]*gitobj.TreeEntry{
		{Name: "x", Oid: blobOid(1), Filemode: gitobj.FilemodeRegular},
	}))
	require.NoError(t, err)
	root, err := db.WriteTree(gitobj.NewTree([]*gitobj.TreeEntry{
		{Name: "a", Oid: aTree, Filemode: gitobj.FilemodeDir},
		{Name: "b", Oid: bTree, Filemode: gitobj.FilemodeDir},
	}))
	require.NoError(t, err)

	f := Parse(":/a")
	filtered, err := f.ApplyTree(db, root)
	require.NoError(t, err)
	require.Equal(t, aTree, filtered)

	overlaid, err := f.Unapply(db, filtered, root)
	require.NoError(t, err)
	require.Equal(t, root, overlaid)
}

func TestSubdirMissingPathYieldsZero(t *testing.T) {
	db := newTestDB(t)
	root, err := db.WriteTree(gitobj.NewTree(nil))
	require.NoError(t, err)

	f := Parse(":/nonexistent")
	filtered, err := f.ApplyTree(db, root)
	require.NoError(t, err)
	require.True(t, gitobj.IsZeroOid(filtered))
}

func TestPrefixIsInverseOfSubdir(t *testing.T) {
	db := newTestDB(t)
	leaf, err := db.WriteTree(gitobj.NewTree([]*gitobj.TreeEntry{
		{Name: "x", Oid: blobOid(1), Filemode: gitobj.FilemodeRegular},
	}))
	require.NoError(t, err)

	wrap := Parse(":prefix=out/dir")
	wrapped, err := wrap.ApplyTree(db, leaf)
	require.NoError(t, err)

	unwrapped, err := wrap.Unapply(db, wrapped, nil)
	require.NoError(t, err)
	require.Equal(t, leaf, unwrapped)
}

func TestUnionOverlaysLeftToRight(t *testing.T) {
	db := newTestDB(t)

	treeA, err := db.WriteTree(gitobj.NewTree([]*gitobj.TreeEntry{
		{Name: "same", Oid: blobOid(1), Filemode: gitobj.FilemodeRegular},
		{Name: "only_a", Oid: blobOid(2), Filemode: gitobj.FilemodeRegular},
	}))
	require.NoError(t, err)
	treeB, err := db.WriteTree(gitobj.NewTree([]*gitobj.TreeEntry{
		{Name: "same", Oid: blobOid(9), Filemode: gitobj.FilemodeRegular},
		{Name: "only_b", Oid: blobOid(3), Filemode: gitobj.FilemodeRegular},
	}))
	require.NoError(t, err)

	f := Parse(":[:/a,:/b]")
	root, err := db.WriteTree(gitobj.NewTree([]*gitobj.TreeEntry{
		{Name: "a", Oid: treeA, Filemode: gitobj.FilemodeDir},
		{Name: "b", Oid: treeB, Filemode: gitobj.FilemodeDir},
	}))
	require.NoError(t, err)

	merged, err := f.ApplyTree(db, root)
	require.NoError(t, err)

	mt, err := db.Tree(merged)
	require.NoError(t, err)
	require.Equal(t, blobOid(1), mt.Entry("same").Oid, "first sub-filter wins conflicts")
	require.NotNil(t, mt.Entry("only_a"))
	require.NotNil(t, mt.Entry("only_b"))
}

func TestComposeAppliesInOrder(t *testing.T) {
	db := newTestDB(t)
	aTree, err := db.WriteTree(gitobj.NewTree([]*gitobj.TreeEntry{
		{Name: "x", Oid: blobOid(1), Filemode: gitobj.FilemodeRegular},
	}))
	require.NoError(t, err)
	root, err := db.WriteTree(gitobj.NewTree([]*gitobj.TreeEntry{
		{Name: "a", Oid: aTree, Filemode: gitobj.FilemodeDir},
	}))
	require.NoError(t, err)

	f := Parse(":/a:prefix=out")
	result, err := f.ApplyTree(db, root)
	require.NoError(t, err)

	outTree, err := db.Tree(result)
	require.NoError(t, err)
	outEntry := outTree.Entry("out")
	require.NotNil(t, outEntry)
	require.Equal(t, aTree, outEntry.Oid)
}
