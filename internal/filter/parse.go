package filter

import "strings"

// Parse is total: it never fails. Input that doesn't match the §4.2
// grammar normalizes to the identity filter, with the original text
// preserved for diagnostics (see FallbackOf) rather than silently lost.
func Parse(raw string) Filter {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Nop
	}

	segments, ok := splitSegments(s)
	if !ok || len(segments) == 0 {
		return &nopFilter{fallback: raw}
	}

	filters := make([]Filter, 0, len(segments))
	for _, seg := range segments {
		f, ok := parseSegment(seg)
		if !ok {
			return &nopFilter{fallback: raw}
		}
		filters = append(filters, f)
	}

	if len(filters) == 1 {
		return filters[0]
	}
	return newComposeFilter(filters)
}

// parseSegment parses the text following a single top-level ':', i.e.
// everything in `:nop`, `:/path`, `:prefix=path`, `:[a,b]` after the
// leading colon.
func parseSegment(body string) (Filter, bool) {
	switch {
	case body == "nop":
		return Nop, true
	case strings.HasPrefix(body, "/"):
		return newSubdirFilter(body[1:]), true
	case strings.HasPrefix(body, "!"):
		return newSubdirFilter(body[1:]), true
	case strings.HasPrefix(body, "prefix="):
		return newPrefixFilter(strings.TrimPrefix(body, "prefix=")), true
	case strings.HasPrefix(body, "[") && strings.HasSuffix(body, "]"):
		return parseUnion(body[1 : len(body)-1])
	default:
		return nil, false
	}
}

func parseUnion(inner string) (Filter, bool) {
	items := splitList(inner)
	subs := make([]Filter, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.HasPrefix(item, ":") {
			item = ":" + item
		}
		sub := Parse(item)
		if _, isFallback := FallbackOf(sub); isFallback {
			return nil, false
		}
		subs = append(subs, sub)
	}
	if len(subs) == 0 {
		return nil, false
	}
	return newUnionFilter(subs), true
}

// splitSegments splits a filter spec on its top-level ':' composition
// boundaries, treating anything inside a matched [...] pair as opaque so
// a union's own ':'-prefixed members don't get mistaken for composition.
func splitSegments(s string) ([]string, bool) {
	if len(s) == 0 || s[0] != ':' {
		return nil, false
	}

	var segments []string
	depth := 0
	start := 1
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, false
			}
		case ':':
			if depth == 0 {
				segments = append(segments, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, false
	}
	segments = append(segments, s[start:])
	return segments, true
}

// splitList splits a union's inner contents on top-level commas,
// respecting nested brackets.
func splitList(s string) []string {
	var items []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				items = append(items, s[start:i])
				start = i + 1
			}
		}
	}
	items = append(items, s[start:])
	return items
}
