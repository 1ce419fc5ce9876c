package object

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signature is the author/committer/tagger identity line git writes as
// "Name <email> unix tz" in commit and tag objects.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// String renders the identity the way git itself prints it in a commit
// header summary, without the timestamp.
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s>", s.Name, s.Email)
}

// decodeSignature parses a "Name <email> unix tz" header value. A value
// that doesn't carry a well-formed "<email>" or timestamp is not an
// error: the Name is kept as-is and When is left zero, the same
// leniency TestMalformedHeader exercises against a bare "\n" identity.
func decodeSignature(v string) Signature {
	open := strings.LastIndexByte(v, '<')
	closeIdx := strings.LastIndexByte(v, '>')
	if open < 0 || closeIdx < 0 || closeIdx < open {
		return Signature{Name: strings.TrimSpace(v)}
	}

	sig := Signature{
		Name:  strings.TrimSpace(v[:open]),
		Email: v[open+1 : closeIdx],
	}

	fields := strings.Fields(strings.TrimSpace(v[closeIdx+1:]))
	if len(fields) != 2 {
		return sig
	}
	sec, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return sig
	}
	loc, err := parseTimezone(fields[1])
	if err != nil {
		return sig
	}
	sig.When = time.Unix(sec, 0).In(loc)
	return sig
}

func (s Signature) encode() string {
	if s.When.IsZero() {
		return fmt.Sprintf("%s <%s>", s.Name, s.Email)
	}
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), s.When.Format("-0700"))
}

func parseTimezone(tz string) (*time.Location, error) {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return nil, fmt.Errorf("object: malformed timezone %q", tz)
	}
	hh, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return nil, err
	}
	mm, err := strconv.Atoi(tz[3:5])
	if err != nil {
		return nil, err
	}
	offset := hh*3600 + mm*60
	if tz[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(tz, offset), nil
}
