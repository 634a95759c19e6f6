// Package objstore is the object store facade the proxy's dispatcher,
// rewriter, and hook handler talk to. It wraps a gitobj.Database with the
// loose-ref operations a real .git directory also needs: reading,
// resolving, writing, and deleting refs by prefix, plus symbolic refs
// (namespaces set "HEAD" inside their scoped ref directory).
package objstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xandr001/josh/internal/gitobj"
)

// Store is a single bare repository: its object database plus its refs/
// directory. One Store is shared by every request the proxy serves;
// namespaces scope individual requests to a slice of its ref space.
type Store struct {
	gitDir string
	odb    *gitobj.Database
}

// Open opens (and if necessary initializes) a bare repository rooted at
// gitDir, mirroring the spec's "open-or-init-bare(path)" operation.
func Open(gitDir string) (*Store, error) {
	if err := initBareIfMissing(gitDir); err != nil {
		return nil, err
	}
	odb, err := gitobj.NewDatabaseWithPacks(gitDir, filepath.Join(gitDir, "objects"), filepath.Join(gitDir, "objects", "tmp"))
	if err != nil {
		return nil, err
	}
	return &Store{gitDir: gitDir, odb: odb}, nil
}

func initBareIfMissing(gitDir string) error {
	if fi, err := os.Stat(gitDir); err == nil && fi.IsDir() {
		if _, err := os.Stat(filepath.Join(gitDir, "HEAD")); err == nil {
			return nil
		}
	}
	for _, dir := range []string{
		gitDir,
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "objects", "tmp"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	headPath := filepath.Join(gitDir, "HEAD")
	if _, err := os.Stat(headPath); os.IsNotExist(err) {
		if err := os.WriteFile(headPath, []byte("ref: refs/heads/master\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// GitDir returns the repository's root directory.
func (s *Store) GitDir() string { return s.gitDir }

// ODB exposes the underlying object database for callers (e.g. the
// rewriter) that need to read or write objects directly.
func (s *Store) ODB() *gitobj.Database { return s.odb }

// Close releases the store's object database.
func (s *Store) Close() error { return s.odb.Close() }

// LookupCommit resolves oid to a *gitobj.Commit, peeling any chain of
// annotated tags that point at it along the way — the shape an ordinary
// `git tag -a` produces, which a ref walk over refs/tags/* hits directly.
func (s *Store) LookupCommit(oid []byte) (*gitobj.Commit, error) {
	for {
		obj, err := s.odb.Object(oid)
		if err != nil {
			return nil, err
		}
		switch o := obj.(type) {
		case *gitobj.Commit:
			return o, nil
		case *gitobj.Tag:
			oid = o.Object
		default:
			return nil, &gitobj.UnexpectedObjectType{Got: obj.Type(), Wanted: gitobj.CommitObjectType}
		}
	}
}

// WriteTree stores t and returns its OID.
func (s *Store) WriteTree(entries []*gitobj.TreeEntry) ([]byte, error) {
	return s.odb.WriteTree(gitobj.NewTree(entries))
}

// WriteCommit stores c and returns its OID.
func (s *Store) WriteCommit(c *gitobj.Commit) ([]byte, error) {
	return s.odb.WriteCommit(c)
}

// OdbExists reports whether oid names an object already present.
func (s *Store) OdbExists(oid []byte) bool {
	return s.odb.Exists(oid)
}

// refPath validates and resolves a ref name to its on-disk path under
// gitDir, rejecting anything that would escape the repository.
func (s *Store) refPath(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	clean := filepath.Clean(name)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("objstore: invalid ref name: %q", name)
	}
	return filepath.Join(s.gitDir, clean), nil
}

// ReadRef returns the OID a loose ref file contains, decoded from its
// 40-hex-character form. A symbolic ref ("ref: <target>") is followed to
// its target, through as many levels as the chain has.
func (s *Store) ReadRef(name string) ([]byte, error) {
	p, err := s.refPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	line := strings.TrimSpace(string(data))
	if strings.HasPrefix(line, "ref: ") {
		return s.ReadRef(strings.TrimPrefix(line, "ref: "))
	}
	return gitobj.ParseOid(line)
}

// ResolveRef resolves name to an OID, following symbolic refs (e.g.
// HEAD -> refs/heads/X); it is the same operation as ReadRef.
func (s *Store) ResolveRef(name string) ([]byte, error) {
	return s.ReadRef(name)
}

// WriteRef writes oid as a loose ref at name, creating parent
// directories as needed.
func (s *Store) WriteRef(name string, oid []byte) error {
	p, err := s.refPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "ref_")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tmp, "%s\n", gitobj.OidString(oid)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// SetSymbolicRef points name at target (e.g. HEAD -> refs/heads/master),
// the operation a namespace uses to give its scoped clone a default
// branch.
func (s *Store) SetSymbolicRef(name, target string) error {
	p, err := s.refPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(fmt.Sprintf("ref: %s\n", target)), 0o644)
}

// DeleteRefsByPrefix removes every loose ref file under prefix, used by a
// namespace's Release to tear its scoped refs back down. It's a no-op
// (not an error) if prefix names nothing.
func (s *Store) DeleteRefsByPrefix(prefix string) error {
	root, err := s.refPath(prefix)
	if err != nil {
		return err
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(root)
}

// ListRefs walks prefix and returns every ref name (relative to gitDir)
// found beneath it, sorted, skipping anything that isn't a loose ref
// file (e.g. a stray "packed-refs").
func (s *Store) ListRefs(prefix string) ([]string, error) {
	root, err := s.refPath(prefix)
	if err != nil {
		return nil, err
	}
	var names []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(s.gitDir, path)
		if relErr != nil {
			return relErr
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// readSymbolic backs SymbolicTarget: it returns the first line of a ref
// file, with the "ref: " prefix stripped and reported when present, so a
// symbolic ref's target is returned verbatim rather than resolved.
func (s *Store) readSymbolic(name string) (string, bool, error) {
	p, err := s.refPath(name)
	if err != nil {
		return "", false, err
	}
	f, err := os.Open(p)
	if err != nil {
		return "", false, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return "", false, sc.Err()
	}
	line := strings.TrimSpace(sc.Text())
	if strings.HasPrefix(line, "ref: ") {
		return strings.TrimPrefix(line, "ref: "), true, nil
	}
	return line, false, nil
}

// SymbolicTarget returns the ref name read backs "HEAD", etc. point at
// if they are symbolic, or "" if the ref is a direct OID.
func (s *Store) SymbolicTarget(name string) (string, error) {
	target, isSym, err := s.readSymbolic(name)
	if err != nil || !isSym {
		return "", err
	}
	return target, nil
}
