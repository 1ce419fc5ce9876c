package config

// New returns an empty Config.
func New() *Config {
	return &Config{}
}

// Config is the parsed contents of a single git-config file: an ordered
// list of sections, plus a chain of other files it pulled in via
// `[include]`/`[includeIf]`.
type Config struct {
	Comment  *Comment
	Sections Sections
	Includes Includes
}

// Includes is the list of files pulled in by a Config via include
// directives.
type Includes []*Include

// Include is one included config file, already parsed.
type Include struct {
	Path   string
	Config *Config
}

// Comment is a leading file comment, stored without its '#' or ';'
// prefix.
type Comment string

// NoSubsection is passed as the subsection argument to Config.Section-level
// helpers to mean "no subsection".
const NoSubsection = ""

// Section returns the named top-level section, creating it if absent.
func (c *Config) Section(name string) *Section {
	for i := len(c.Sections) - 1; i >= 0; i-- {
		if c.Sections[i].IsName(name) {
			return c.Sections[i]
		}
	}

	s := &Section{Name: name}
	c.Sections = append(c.Sections, s)
	return s
}

// HasSection reports whether the config has a section with the given
// name.
func (c *Config) HasSection(name string) bool {
	for _, s := range c.Sections {
		if s.IsName(name) {
			return true
		}
	}
	return false
}

// RemoveSection removes the section with the given name.
func (c *Config) RemoveSection(name string) *Config {
	result := Sections{}
	for _, s := range c.Sections {
		if !s.IsName(name) {
			result = append(result, s)
		}
	}
	c.Sections = result
	return c
}

// RemoveSubsection removes a subsection from whichever top-level sections
// carry it.
func (c *Config) RemoveSubsection(section, subsection string) *Config {
	for _, s := range c.Sections {
		if s.IsName(section) {
			s.RemoveSubsection(subsection)
		}
	}
	return c
}

// AddOption appends an option to the given section/subsection. Pass
// NoSubsection when there is no subsection.
func (c *Config) AddOption(section, subsection, key, value string) *Config {
	if subsection == NoSubsection {
		c.Section(section).AddOption(key, value)
	} else {
		c.Section(section).Subsection(subsection).AddOption(key, value)
	}
	return c
}

// SetOption sets an option on the given section/subsection. Pass
// NoSubsection when there is no subsection.
func (c *Config) SetOption(section, subsection, key string, value ...string) *Config {
	if subsection == NoSubsection {
		c.Section(section).SetOption(key, value...)
	} else {
		c.Section(section).Subsection(subsection).SetOption(key, value...)
	}
	return c
}

// Option returns the value of the named option, or "" if unset. If the
// key was set more than once, the last value wins — this matches git's
// behavior since v1.8.1-rc1.
func (c *Config) Option(section, subsection, key string) string {
	if subsection == NoSubsection {
		return c.Section(section).Option(key)
	}
	return c.Section(section).Subsection(subsection).Option(key)
}

// OptionAll returns every value recorded for the named option, in file
// order.
func (c *Config) OptionAll(section, subsection, key string) []string {
	if subsection == NoSubsection {
		return c.Section(section).OptionAll(key)
	}
	return c.Section(section).Subsection(subsection).OptionAll(key)
}
