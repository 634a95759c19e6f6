// Package proxyserver wires the fetch coordinator, namespace manager,
// rewriter, and hook endpoint behind one HTTP server implementing the
// request dispatcher (§4.7): the git-smart-HTTP front door every
// virtual-repo URL, diagnostic endpoint, and KV lookup comes through.
package proxyserver

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/xandr001/josh/internal/fetch"
	"github.com/xandr001/josh/internal/filtercache"
	"github.com/xandr001/josh/internal/hook"
	"github.com/xandr001/josh/internal/objstore"
)

// Server is the long-lived state one josh-proxy process carries: a
// single shared object store, the fetch coordinator gating upstream
// traffic, the two-layer filter cache, and the small ambient bits
// (KV store, hook endpoint) that round out the dispatcher.
type Server struct {
	cfg *Config

	store          *objstore.Store
	coordinator    *fetch.Coordinator
	globalForward  *filtercache.Cache
	globalBackward *filtercache.Cache
	kv             *kvStore
	hookHandler    http.Handler

	httpSrv *http.Server
	router  *mux.Router
}

func cachePaths(gitDir string) (forward, backward string) {
	dir := filepath.Join(gitDir, "josh_cache")
	return filepath.Join(dir, "forward.cache"), filepath.Join(dir, "backward.cache")
}

// NewServer constructs a Server from cfg, opening (or initializing) the
// shared bare repository and loading whatever filter cache it finds on
// disk.
func NewServer(cfg *Config) (*Server, error) {
	store, err := objstore.Open(cfg.GitDir)
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}

	transport := fetch.NewGoGitTransport(cfg.GitDir)
	coordinator, err := fetch.New(cfg.FetchPermits, cfg.FilterPermits, cfg.Cache, transport)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("construct fetch coordinator: %w", err)
	}

	forwardPath, backwardPath := cachePaths(cfg.GitDir)
	s := &Server{
		cfg:            cfg,
		store:          store,
		coordinator:    coordinator,
		globalForward:  filtercache.TryLoad(forwardPath),
		globalBackward: filtercache.TryLoad(backwardPath),
		kv:             newKVStore(),
		hookHandler:    hook.NewServer(store, hook.GoGitPusher{}),
	}
	s.httpSrv = &http.Server{
		Addr:         cfg.Listen,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		IdleTimeout:  cfg.IdleTimeout.Duration,
	}
	s.router = s.newRouter()
	return s, nil
}

// ListenAndServe starts accepting connections; it blocks until the
// server is shut down.
func (s *Server) ListenAndServe() error {
	logrus.Infof("josh-proxy listening on %s, git dir %s", s.cfg.Listen, s.cfg.GitDir)
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops accepting new connections, waits for in-flight ones to
// finish, and persists the filter cache back to disk so the next
// process starts warm.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)

	forwardPath, backwardPath := cachePaths(s.cfg.GitDir)
	if persistErr := filtercache.Persist(s.globalForward, forwardPath); persistErr != nil {
		logrus.Errorf("persist forward filter cache: %v", persistErr)
	}
	if persistErr := filtercache.Persist(s.globalBackward, backwardPath); persistErr != nil {
		logrus.Errorf("persist backward filter cache: %v", persistErr)
	}
	if closeErr := s.store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tr := newTrackedReader(r.Body)
	r.Body = tr
	now := time.Now()
	rw := NewResponseWriter(w, r)
	s.router.ServeHTTP(rw, r)
	logResponse(rw, r, tr, time.Since(now))
}

func logResponse(rw *ResponseWriter, r *http.Request, tr *trackedReader, spent time.Duration) {
	status := rw.StatusCode()
	fields := logrus.Fields{
		"remote":   rw.RemoteAddr(),
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   status,
		"received": tr.received,
		"written":  rw.Written(),
		"spent":    spent,
	}
	if status >= 500 {
		logrus.WithFields(fields).Error("request failed")
		return
	}
	logrus.WithFields(fields).Info("request handled")
}
