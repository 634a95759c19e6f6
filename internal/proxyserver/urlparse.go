package proxyserver

import (
	"path"
	"strings"
)

// ParsedURL is the result of parsing a virtual-repo request URL against
// the §4.7 grammar:
//
//	/<upstream-path>.git(@<headref>)?(:<filter>.git)?(/<pathinfo>)?
type ParsedURL struct {
	UpstreamPath string
	Headref      string
	FilterSpec   string
	PathInfo     string
}

// ParseRepoURL parses urlPath, first collapsing runs of "/" the way the
// teacher's own ServeHTTP does via path.Clean. Empty headref defaults to
// refs/heads/master and empty filter to :nop per §4.7 step 4.
func ParseRepoURL(urlPath string) (*ParsedURL, bool) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		return nil, false
	}
	rest := strings.TrimPrefix(clean, "/")

	gitIdx := strings.Index(rest, ".git")
	if gitIdx <= 0 {
		return nil, false
	}
	upstream := rest[:gitIdx]
	rest = rest[gitIdx+len(".git"):]

	p := &ParsedURL{UpstreamPath: upstream}

	if strings.HasPrefix(rest, "@") {
		rest = rest[1:]
		colonIdx := strings.IndexByte(rest, ':')
		gitIdx := indexGitBoundary(rest)
		switch {
		case colonIdx >= 0 && (gitIdx < 0 || colonIdx < gitIdx):
			p.Headref = rest[:colonIdx]
			rest = rest[colonIdx:]
		case gitIdx >= 0:
			p.Headref = rest[:gitIdx]
			rest = rest[gitIdx+4:]
		default:
			p.Headref = rest
			rest = ""
		}
	}

	if strings.HasPrefix(rest, ":") {
		filterEnd := indexGitBoundary(rest)
		if filterEnd < 0 {
			return nil, false
		}
		p.FilterSpec = rest[:filterEnd]
		rest = rest[filterEnd+4:]
	}

	p.PathInfo = rest

	if p.Headref == "" {
		p.Headref = "refs/heads/master"
	}
	if p.FilterSpec == "" {
		p.FilterSpec = ":nop"
	}
	return p, true
}

// indexGitBoundary returns the index of the first ".git" in s that marks
// a segment boundary (immediately followed by "/" or the end of s), or
// -1. A headref or filter spec may itself contain slashes, so only this
// literal boundary — not the next "/" — ends the segment.
func indexGitBoundary(s string) int {
	for i := 0; i+4 <= len(s); i++ {
		if s[i:i+4] == ".git" && (i+4 == len(s) || s[i+4] == '/') {
			return i
		}
	}
	return -1
}
