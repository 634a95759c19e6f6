package hook

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	gitcache "github.com/go-git/go-git/v5/plumbing/cache"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/xandr001/josh/internal/gitobj"
	"github.com/xandr001/josh/internal/joshrr"
	"github.com/xandr001/josh/internal/objstore"
)

// Pusher pushes a single commit already present in the shared object
// database to refName on the upstream remote. It returns a short
// human-readable summary (the §6 "upstream-push stderr" slot) alongside
// any error.
type Pusher interface {
	Push(ctx context.Context, store *objstore.Store, remoteURL, user, pass, refName string, oid []byte) (string, error)
}

// GoGitPusher pushes via go-git rather than shelling out to a git
// binary: it stages oid under a scratch ref inside the shared
// repository, pushes that ref to refName on the upstream, then cleans
// the scratch ref up regardless of outcome.
type GoGitPusher struct{}

func (GoGitPusher) Push(ctx context.Context, store *objstore.Store, remoteURL, user, pass, refName string, oid []byte) (string, error) {
	scratchRef := fmt.Sprintf("refs/josh/pushback/%s", gitobj.OidString(oid))
	if err := store.WriteRef(scratchRef, oid); err != nil {
		return "", joshrr.ObjectStoreErrorf(err, "stage push-back ref")
	}
	defer func() { _ = store.DeleteRefsByPrefix(scratchRef) }()

	fs := osfs.New(store.GitDir())
	storer := filesystem.NewStorage(fs, gitcache.NewObjectLRUDefault())
	repo, err := git.Open(storer, fs)
	if err != nil {
		return "", joshrr.ObjectStoreErrorf(err, "open repository at %s", store.GitDir())
	}

	remote, err := repo.CreateRemoteAnonymous(&config.RemoteConfig{
		Name: "josh-pushback",
		URLs: []string{remoteURL},
	})
	if err != nil {
		return "", joshrr.UpstreamErrorf(err, "create anonymous remote for %s", remoteURL)
	}

	var auth *githttp.BasicAuth
	if user != "" || pass != "" {
		auth = &githttp.BasicAuth{Username: user, Password: pass}
	}

	spec := config.RefSpec(fmt.Sprintf("%s:%s", scratchRef, refName))
	err = remote.PushContext(ctx, &git.PushOptions{
		RefSpecs: []config.RefSpec{spec},
		Auth:     auth,
	})
	switch {
	case err == nil, err == git.NoErrAlreadyUpToDate:
		return fmt.Sprintf("pushed %s to %s (%s)", gitobj.OidString(oid), refName, remoteURL), nil
	default:
		return err.Error(), joshrr.UpstreamErrorf(err, "push %s to %s", refName, remoteURL)
	}
}
