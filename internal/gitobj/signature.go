package gitobj

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signature is a parsed "name <email> seconds tz" line as found in author/
// committer headers.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// String formats the signature the way git writes it to a commit object.
func (s *Signature) String() string {
	_, offset := s.When.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hh := offset / 3600
	mm := (offset % 3600) / 60
	return fmt.Sprintf("%s <%s> %d %s%02d%02d", s.Name, s.Email, s.When.Unix(), sign, hh, mm)
}

// ParseSignature parses a "Name <email> seconds tz" line. It tolerates an
// empty Name, which git itself allows.
func ParseSignature(line string) (*Signature, error) {
	at := strings.LastIndex(line, ">")
	if at < 0 {
		return nil, fmt.Errorf("git/object: invalid signature: %q", line)
	}
	open := strings.LastIndex(line[:at], "<")
	if open < 0 {
		return nil, fmt.Errorf("git/object: invalid signature: %q", line)
	}
	name := strings.TrimSpace(line[:open])
	email := line[open+1 : at]
	rest := strings.Fields(line[at+1:])
	sig := &Signature{Name: name, Email: email}
	if len(rest) >= 1 {
		if secs, err := strconv.ParseInt(rest[0], 10, 64); err == nil {
			sig.When = time.Unix(secs, 0).UTC()
		}
	}
	if len(rest) >= 2 {
		if loc, err := parseTZ(rest[1]); err == nil {
			sig.When = sig.When.In(loc)
		}
	}
	return sig, nil
}

func parseTZ(tz string) (*time.Location, error) {
	if len(tz) != 5 {
		return nil, fmt.Errorf("invalid tz: %q", tz)
	}
	sign := 1
	switch tz[0] {
	case '-':
		sign = -1
	case '+':
		sign = 1
	default:
		return nil, fmt.Errorf("invalid tz: %q", tz)
	}
	hh, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return nil, err
	}
	mm, err := strconv.Atoi(tz[3:5])
	if err != nil {
		return nil, err
	}
	offset := sign * (hh*3600 + mm*60)
	return time.FixedZone(tz, offset), nil
}
