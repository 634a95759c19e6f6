package fetch

import (
	"context"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/xandr001/josh/internal/joshrr"
)

// refSpecs are the three ref namespaces §4.6 step 3 names.
var refSpecs = []config.RefSpec{
	config.RefSpec("+refs/heads/*:refs/heads/*"),
	config.RefSpec("+refs/tags/*:refs/tags/*"),
	config.RefSpec("+refs/changes/*:refs/changes/*"),
}

// GoGitTransport fetches from an upstream git-smart-HTTP remote directly
// into the shared bare repository at gitDir, using go-git's own fetch
// machinery rather than shelling out to a git binary.
type GoGitTransport struct {
	gitDir string
}

// NewGoGitTransport constructs a Transport rooted at the proxy's shared
// bare repository.
func NewGoGitTransport(gitDir string) *GoGitTransport {
	return &GoGitTransport{gitDir: gitDir}
}

// Fetch implements Transport.
func (t *GoGitTransport) Fetch(ctx context.Context, remoteURL, user, pass string) error {
	fs := osfs.New(t.gitDir)
	storer := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())

	repo, err := git.Open(storer, fs)
	if err != nil {
		repo, err = git.Init(storer, fs)
		if err != nil {
			return joshrr.UpstreamErrorf(err, "open local repository at %s", t.gitDir)
		}
	}

	remote, err := repo.CreateRemoteAnonymous(&config.RemoteConfig{
		Name: "josh-upstream",
		URLs: []string{remoteURL},
	})
	if err != nil {
		return joshrr.UpstreamErrorf(err, "create anonymous remote for %s", remoteURL)
	}

	var auth *githttp.BasicAuth
	if user != "" || pass != "" {
		auth = &githttp.BasicAuth{Username: user, Password: pass}
	}

	err = remote.FetchContext(ctx, &git.FetchOptions{
		RefSpecs: refSpecs,
		Auth:     auth,
		Tags:     git.NoTags,
		Force:    true,
	})
	switch {
	case err == nil, err == git.NoErrAlreadyUpToDate:
		return nil
	case err == transport.ErrAuthenticationRequired, err == transport.ErrAuthorizationFailed:
		return joshrr.AuthErrorf(err, "upstream rejected credentials")
	default:
		return joshrr.UpstreamErrorf(err, "fetch %s", remoteURL)
	}
}
