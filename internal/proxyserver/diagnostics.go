package proxyserver

import (
	"fmt"
	"net/http"

	"github.com/BurntSushi/toml"

	"github.com/xandr001/josh/internal/filter"
	"github.com/xandr001/josh/internal/filtercache"
	"github.com/xandr001/josh/pkg/version"
)

// filterStats is the shape rendered at /filters: each filter spec the
// global cache holds more than one entry for, with its entry count, plus
// a "total" key summing those counts (see filtercache.Cache.Stats).
type filterStats struct {
	Version string         `toml:"version"`
	Filters map[string]int `toml:"filters"`
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, version.String())
}

func (s *Server) handleFlush(w http.ResponseWriter, _ *http.Request) {
	s.coordinator.FlushCredentials()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFilters(w http.ResponseWriter, _ *http.Request) {
	stats := filterStats{Version: version.String(), Filters: s.globalForward.Stats()}
	w.Header().Set("Content-Type", "application/toml")
	if err := toml.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// renderInfo answers a "?info" query: human-readable metadata about the
// (filter, upstream-path, headref) triple a virtual-repo URL named,
// including a fallback note if the filter text didn't parse (Open
// Question 3).
func renderInfo(w http.ResponseWriter, global *filtercache.Cache, p *ParsedURL, f filter.Filter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "upstream: %s\n", p.UpstreamPath)
	fmt.Fprintf(w, "headref: %s\n", p.Headref)
	fmt.Fprintf(w, "filter: %s\n", f.Spec())
	if raw, ok := filter.FallbackOf(f); ok {
		fmt.Fprintf(w, "fell back to :nop from: %s\n", raw)
	}
}
