package proxyserver

import (
	"fmt"
	"net/http"
	"net/http/cgi"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/xandr001/josh/internal/fetch"
	"github.com/xandr001/josh/internal/filter"
	"github.com/xandr001/josh/internal/filtercache"
	"github.com/xandr001/josh/internal/joshrr"
	"github.com/xandr001/josh/internal/namespace"
	"github.com/xandr001/josh/internal/rewrite"
)

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)
	r.HandleFunc("/flush", s.handleFlush).Methods(http.MethodPost, http.MethodGet)
	r.HandleFunc("/filters", s.handleFilters).Methods(http.MethodGet)
	r.Handle("/repo_update", s.hookHandler).Methods(http.MethodPost)
	r.HandleFunc("/@kv/{key}", s.handleKV)
	r.PathPrefix("/").HandlerFunc(s.handleRepo)
	return r
}

func (s *Server) handleKV(w http.ResponseWriter, r *http.Request) {
	s.kv.handle(w, r, mux.Vars(r)["key"])
}

// handleRepo implements §4.7's dispatch steps 4-6: parse the virtual-repo
// URL, authorize and fetch from upstream, materialize a namespace-scoped
// filtered view, and either answer a "?info" diagnostic or delegate to
// git http-backend over CGI.
func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	parsed, ok := ParseRepoURL(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	user, pass, _ := r.BasicAuth()
	remoteURL := s.upstreamURL(parsed.UpstreamPath)

	outcome, err := s.coordinator.FetchUpstream(r.Context(), s.store, remoteURL, user, pass, parsed.Headref)
	if err != nil {
		status, _ := joshrr.HTTPStatus(err)
		http.Error(w, err.Error(), status)
		return
	}
	switch outcome {
	case fetch.Unauthorized:
		w.Header().Set("WWW-Authenticate", `Basic realm="josh-proxy"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	case fetch.Error:
		http.Error(w, "fetch error", http.StatusInternalServerError)
		return
	}

	f := filter.Parse(parsed.FilterSpec)

	if r.URL.RawQuery == "info" {
		renderInfo(w, s.globalForward, parsed, f)
		return
	}
	if r.URL.RawQuery != "" && parsed.PathInfo == "" {
		s.renderQuery(w, r, parsed, f)
		return
	}

	ns := namespace.Acquire(s.store)
	defer func() { _ = ns.Release() }()

	if err := s.coordinator.AcquireFilterPermit(r.Context()); err != nil {
		http.Error(w, "filter permit", http.StatusInternalServerError)
		return
	}
	defer s.coordinator.ReleaseFilterPermit()

	if err := s.materialize(ns, f, parsed.UpstreamPath, parsed.Headref); err != nil {
		status, _ := joshrr.HTTPStatus(err)
		http.Error(w, err.Error(), status)
		return
	}

	s.delegateCGI(w, r, ns, parsed, remoteURL, user, pass)
}

// upstreamURL joins the configured remote base with the upstream-path
// the client named, the full URL the fetch coordinator and hook
// push-back both authenticate against.
func (s *Server) upstreamURL(upstreamPath string) string {
	base := strings.TrimRight(s.cfg.RemoteBase, "/")
	return fmt.Sprintf("%s/%s.git", base, strings.Trim(upstreamPath, "/"))
}

// materialize rewrites every head and tag ref into ns, memoized through
// the global forward cache, then folds the session's discoveries back
// into the global forward/backward pair (discarding on contention, per
// §5's sharing table).
func (s *Server) materialize(ns *namespace.Handle, f filter.Filter, upstreamPath, headref string) error {
	session := filtercache.NewSession(s.globalForward)
	backward := filtercache.New()
	rw := rewrite.New(s.store, f, session, backward)

	var pairs []rewrite.RefPair
	heads, _ := s.store.ListRefs("refs/heads")
	for _, name := range heads {
		short := strings.TrimPrefix(name, "refs/heads/")
		pairs = append(pairs, rewrite.RefPair{From: name, To: ns.Ref("heads/" + short)})
	}
	tags, _ := s.store.ListRefs("refs/tags")
	for _, name := range tags {
		short := strings.TrimPrefix(name, "refs/tags/")
		pairs = append(pairs, rewrite.RefPair{From: name, To: ns.Ref("tags/" + short)})
	}

	if _, err := rw.Rewrite(pairs); err != nil {
		return err
	}

	headShort := strings.TrimPrefix(headref, "refs/heads/")
	if err := s.store.SetSymbolicRef(ns.Ref("HEAD"), "refs/heads/"+headShort); err != nil {
		return joshrr.ObjectStoreErrorf(err, "set namespace HEAD")
	}

	if err := s.markUpstreamParent(upstreamPath, headShort); err != nil {
		return joshrr.ObjectStoreErrorf(err, "mark upstream parent")
	}

	filtercache.TryMergeBoth(s.globalForward, s.globalBackward, session, backward)
	return nil
}

// markUpstreamParent freezes the raw (unfiltered) upstream head this
// request just fetched under a ref keyed by upstream path rather than
// by this request's ephemeral namespace: refs/josh/upstream/<to_ns(path)>
// mirrors the original's JOSH_BASE_NS (josh-proxy.rs's do_filter, which
// rewrites refs/josh/upstream/<to_ns>/<headref>). A namespace is
// released (possibly before, possibly racing, the update hook's POST)
// as soon as the request finishes, so reading the original parent back
// out of it during push-back is unsound; this marker survives that.
func (s *Server) markUpstreamParent(upstreamPath, headShort string) error {
	raw, err := s.store.ReadRef("refs/heads/" + headShort)
	if err != nil {
		// nothing fetched for this branch yet; handleUpdate's own
		// missing-ref fallback (treat as a repo with no parent) applies.
		return nil
	}
	return s.store.WriteRef(upstreamMarkerRef(upstreamPath, headShort), raw)
}

// upstreamMarkerRef is the stable ref markUpstreamParent writes and
// JOSH_BASE_NS (joined with the hook's full refname) reads back.
func upstreamMarkerRef(upstreamPath, headShort string) string {
	return fmt.Sprintf("refs/josh/upstream/%s/refs/heads/%s", toNS(upstreamPath), headShort)
}

// upstreamBaseNS is the JOSH_BASE_NS value: derived from the upstream
// path alone, so push-back diffs against a marker that outlives this
// request's namespace instead of the namespace itself.
func upstreamBaseNS(upstreamPath string) string {
	return "refs/josh/upstream/" + toNS(upstreamPath)
}

// toNS sanitizes an upstream repo path into a ref-path segment, mirroring
// the original's josh::to_ns: no leading/trailing slashes, no ".git"
// suffix, so it composes cleanly under refs/josh/upstream/.
func toNS(upstreamPath string) string {
	p := strings.Trim(upstreamPath, "/")
	return strings.TrimSuffix(p, ".git")
}

// delegateCGI hands the request to git http-backend, namespaced into
// ns's ref prefix, with the JOSH_* environment §4.7 step 6 specifies.
func (s *Server) delegateCGI(w http.ResponseWriter, r *http.Request, ns *namespace.Handle, parsed *ParsedURL, remoteURL, user, pass string) {
	h := &cgi.Handler{
		Path: "git",
		Dir:  s.store.GitDir(),
		Args: []string{"http-backend"},
		Env: []string{
			"GIT_DIR=" + s.store.GitDir(),
			"GIT_PROJECT_ROOT=" + s.store.GitDir(),
			"GIT_HTTP_EXPORT_ALL=",
			"GIT_NAMESPACE=" + strings.TrimPrefix(ns.Prefix(), "refs/"),
			"JOSH_BASE_NS=" + upstreamBaseNS(parsed.UpstreamPath),
			"JOSH_USERNAME=" + user,
			"JOSH_PASSWORD=" + pass,
			"JOSH_REMOTE=" + remoteURL,
			"JOSH_PORT=" + s.listenPort(),
			"JOSH_VIEWSTR=" + parsed.FilterSpec,
			"PATH_INFO=" + parsed.PathInfo,
		},
	}
	h.ServeHTTP(w, r)
}

func (s *Server) listenPort() string {
	if idx := strings.LastIndex(s.cfg.Listen, ":"); idx >= 0 {
		if _, err := strconv.Atoi(s.cfg.Listen[idx+1:]); err == nil {
			return s.cfg.Listen[idx+1:]
		}
	}
	return "8000"
}

// renderQuery answers a non-"info" query string against the materialized
// ref with a minimal key/value template rendering: each query parameter
// is echoed back alongside the (filter, upstream, headref) triple, since
// the spec leaves the query/template language itself open-ended.
func (s *Server) renderQuery(w http.ResponseWriter, r *http.Request, parsed *ParsedURL, f filter.Filter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "upstream: %s\n", parsed.UpstreamPath)
	fmt.Fprintf(w, "headref: %s\n", parsed.Headref)
	fmt.Fprintf(w, "filter: %s\n", f.Spec())
	for k, v := range r.URL.Query() {
		fmt.Fprintf(w, "%s: %s\n", k, strings.Join(v, ","))
	}
}
