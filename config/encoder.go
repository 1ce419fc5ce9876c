package config

import (
	"fmt"
	"io"
	"strings"
)

// Encoder writes a Config back out in git-config text form.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w}
}

// Encode writes cfg to the encoder's output.
func (e *Encoder) Encode(cfg *Config) error {
	for _, s := range cfg.Sections {
		if err := e.encodeSection(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeSection(s *Section) error {
	if _, err := fmt.Fprintf(e.w, "[%s]\n", s.Name); err != nil {
		return err
	}

	if err := e.encodeOptions(s.Options); err != nil {
		return err
	}

	for _, ss := range s.Subsections {
		if err := e.encodeSubsection(s.Name, ss); err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) encodeSubsection(section string, ss *Subsection) error {
	if _, err := fmt.Fprintf(e.w, "[%s %q]\n", section, ss.Name); err != nil {
		return err
	}
	return e.encodeOptions(ss.Options)
}

func (e *Encoder) encodeOptions(opts Options) error {
	for _, o := range opts {
		v := o.Value
		if needsQuote(v) {
			v = quoteValue(v)
		}
		if _, err := fmt.Fprintf(e.w, "\t%s = %s\n", o.Key, v); err != nil {
			return err
		}
	}
	return nil
}

// needsQuote reports whether a value must be wrapped in double quotes on
// encode: it contains a comment character, a quote, a backslash, or has
// a leading/trailing space character.
func needsQuote(v string) bool {
	if v == "" {
		return false
	}
	if strings.ContainsAny(v, "#;\"\\") {
		return true
	}
	return v[0] == ' ' || v[len(v)-1] == ' '
}

func quoteValue(v string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range v {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
