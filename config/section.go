package config

import (
	"fmt"
	"strings"
)

// Option is a key/value pair inside a Section or Subsection. The same key
// may appear more than once; later entries take priority when a single
// value is requested, but all survive when the full list is requested.
type Option struct {
	Key   string
	Value string
}

// IsKey returns whether the option's key equals key, ignoring case — git
// config keys are case-insensitive.
func (o *Option) IsKey(key string) bool {
	return strings.EqualFold(o.Key, key)
}

func (o *Option) GoString() string {
	return fmt.Sprintf("&config.Option{Key:%q, Value:%q}", o.Key, o.Value)
}

// Options is an ordered list of Option.
type Options []*Option

// Has reports whether any option has the given key.
func (opts Options) Has(key string) bool {
	for _, o := range opts {
		if o.IsKey(key) {
			return true
		}
	}
	return false
}

// Get returns the value of the last option with the given key, or the
// empty string if none match.
func (opts Options) Get(key string) string {
	for i := len(opts) - 1; i >= 0; i-- {
		if opts[i].IsKey(key) {
			return opts[i].Value
		}
	}
	return ""
}

// GetAll returns the values of every option with the given key, in the
// order they appear.
func (opts Options) GetAll(key string) []string {
	result := []string{}
	for _, o := range opts {
		if o.IsKey(key) {
			result = append(result, o.Value)
		}
	}
	return result
}

func (opts Options) GoString() string {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		parts = append(parts, o.GoString())
	}
	return strings.Join(parts, ", ")
}

// Section holds the options and subsections defined under a top-level
// `[name]` header.
type Section struct {
	Name        string
	Options     Options
	Subsections Subsections
}

// IsName reports whether name matches the section's name, ignoring case —
// top-level section names are case-insensitive.
func (s *Section) IsName(name string) bool {
	return strings.EqualFold(s.Name, name)
}

// Option returns the value of the last option with the given key.
func (s *Section) Option(key string) string {
	return s.Options.Get(key)
}

// OptionAll returns the values of every option with the given key.
func (s *Section) OptionAll(key string) []string {
	return s.Options.GetAll(key)
}

// HasOption reports whether the section has an option with the given key.
func (s *Section) HasOption(key string) bool {
	return s.Options.Has(key)
}

// AddOption appends a new option, keeping any existing one with the same
// key.
func (s *Section) AddOption(key, value string) *Section {
	s.Options = append(s.Options, &Option{Key: key, Value: value})
	return s
}

// SetOption drops every existing option with the given key and appends a
// fresh one per value.
func (s *Section) SetOption(key string, values ...string) *Section {
	s.RemoveOption(key)
	for _, v := range values {
		s.AddOption(key, v)
	}
	return s
}

// RemoveOption removes every option with the given key.
func (s *Section) RemoveOption(key string) *Section {
	result := make(Options, 0, len(s.Options))
	for _, o := range s.Options {
		if !o.IsKey(key) {
			result = append(result, o)
		}
	}
	s.Options = result
	return s
}

// Subsection returns the existing `[name "subname"]` subsection, or
// creates one.
func (s *Section) Subsection(name string) *Subsection {
	for _, ss := range s.Subsections {
		if ss.IsName(name) {
			return ss
		}
	}

	ss := &Subsection{Name: name}
	s.Subsections = append(s.Subsections, ss)
	return ss
}

// HasSubsection reports whether the section has a subsection with the
// given name.
func (s *Section) HasSubsection(name string) bool {
	for _, ss := range s.Subsections {
		if ss.IsName(name) {
			return true
		}
	}
	return false
}

// RemoveSubsection removes the subsection with the given name.
func (s *Section) RemoveSubsection(name string) *Section {
	result := Subsections{}
	for _, ss := range s.Subsections {
		if !ss.IsName(name) {
			result = append(result, ss)
		}
	}
	s.Subsections = result
	return s
}

func (s *Section) GoString() string {
	return fmt.Sprintf("&config.Section{Name:%q, Options:%s, Subsections:%s}", s.Name, s.Options.GoString(), s.Subsections.GoString())
}

// Sections is an ordered list of Section.
type Sections []*Section

func (ss Sections) GoString() string {
	parts := make([]string, 0, len(ss))
	for _, s := range ss {
		parts = append(parts, s.GoString())
	}
	return strings.Join(parts, ", ")
}

// Subsection holds the options defined under a `[section "name"]` header.
// Unlike a Section's name, a subsection's name is case-sensitive.
type Subsection struct {
	Name    string
	Options Options
}

// IsName reports whether name matches the subsection's name exactly.
func (s *Subsection) IsName(name string) bool {
	return s.Name == name
}

// Option returns the value of the last option with the given key.
func (s *Subsection) Option(key string) string {
	return s.Options.Get(key)
}

// OptionAll returns the values of every option with the given key.
func (s *Subsection) OptionAll(key string) []string {
	return s.Options.GetAll(key)
}

// HasOption reports whether the subsection has an option with the given
// key.
func (s *Subsection) HasOption(key string) bool {
	return s.Options.Has(key)
}

// AddOption appends a new option, keeping any existing one with the same
// key.
func (s *Subsection) AddOption(key, value string) *Subsection {
	s.Options = append(s.Options, &Option{Key: key, Value: value})
	return s
}

// SetOption assigns values to the existing options with the given key,
// positionally, in the order they already appear: the first matching
// option gets values[0], the second gets values[1], and so on. Matching
// options beyond len(values) are dropped; if there are more values than
// matching options, the extras are appended at the end. This is the
// behavior a multi-valued option (like a remote's url list) needs when
// the full value set is replaced in one call.
func (s *Subsection) SetOption(key string, values ...string) *Subsection {
	kept := make(Options, 0, len(s.Options))
	vi := 0
	for _, o := range s.Options {
		if !o.IsKey(key) {
			kept = append(kept, o)
			continue
		}
		if vi >= len(values) {
			continue
		}
		o.Value = values[vi]
		vi++
		kept = append(kept, o)
	}
	for ; vi < len(values); vi++ {
		kept = append(kept, &Option{Key: key, Value: values[vi]})
	}
	s.Options = kept
	return s
}

// RemoveOption removes every option with the given key.
func (s *Subsection) RemoveOption(key string) *Subsection {
	result := make(Options, 0, len(s.Options))
	for _, o := range s.Options {
		if !o.IsKey(key) {
			result = append(result, o)
		}
	}
	s.Options = result
	return s
}

func (s *Subsection) GoString() string {
	return fmt.Sprintf("&config.Subsection{Name:%q, Options:%s}", s.Name, s.Options.GoString())
}

// Subsections is an ordered list of Subsection.
type Subsections []*Subsection

func (ss Subsections) GoString() string {
	parts := make([]string, 0, len(ss))
	for _, s := range ss {
		parts = append(parts, s.GoString())
	}
	return strings.Join(parts, ", ")
}
