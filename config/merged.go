package config

// Scope identifies which on-disk config file a setting came from. Git
// reads three layers superimposed on each other — system-wide, the
// current user's, and the repository's own — with later layers
// overriding earlier ones.
type Scope int

const (
	// SystemScope is /etc/gitconfig (or GIT_CONFIG_SYSTEM), the lowest
	// priority layer.
	SystemScope Scope = iota
	// GlobalScope is the current user's ~/.gitconfig (or
	// GIT_CONFIG_GLOBAL / $XDG_CONFIG_HOME/git/config).
	GlobalScope
	// LocalScope is the repository's own .git/config, the highest
	// priority layer.
	LocalScope
	// NumScopes is the number of scopes above.
	NumScopes
)

// ScopedConfigs maps each Scope to the Config parsed for it.
type ScopedConfigs map[Scope]*Config

// Merged is a read-only, priority-resolved view over the system, global,
// and local configs of a repository: Section looks a name up in all
// three and returns a single view with local values winning over global,
// and global winning over system — the same resolution order `git
// config --get` uses.
type Merged struct {
	scopedConfigs ScopedConfigs
}

// NewMerged returns a Merged with all three scopes set to an empty
// Config.
func NewMerged() *Merged {
	m := &Merged{scopedConfigs: make(ScopedConfigs)}
	for s := SystemScope; s <= LocalScope; s++ {
		m.scopedConfigs[s] = New()
	}
	return m
}

// ResetScopedConfig replaces the Config backing the given scope with an
// empty one.
func (m *Merged) ResetScopedConfig(scope Scope) {
	m.scopedConfigs[scope] = New()
}

// ScopedConfig returns the backing Config for the given scope.
func (m *Merged) ScopedConfig(scope Scope) *Config {
	return m.scopedConfigs[scope]
}

// LocalConfig returns the backing Config for LocalScope.
func (m *Merged) LocalConfig() *Config { return m.ScopedConfig(LocalScope) }

// GlobalConfig returns the backing Config for GlobalScope.
func (m *Merged) GlobalConfig() *Config { return m.ScopedConfig(GlobalScope) }

// SystemConfig returns the backing Config for SystemScope.
func (m *Merged) SystemConfig() *Config { return m.ScopedConfig(SystemScope) }

// SetLocalConfig replaces the Config backing LocalScope.
func (m *Merged) SetLocalConfig(c *Config) { m.scopedConfigs[LocalScope] = c }

// SetGlobalConfig replaces the Config backing GlobalScope.
func (m *Merged) SetGlobalConfig(c *Config) { m.scopedConfigs[GlobalScope] = c }

// SetSystemConfig replaces the Config backing SystemScope.
func (m *Merged) SetSystemConfig(c *Config) { m.scopedConfigs[SystemScope] = c }

func (c *Config) hasSection(name string) bool {
	for _, s := range c.Sections {
		if s.IsName(name) {
			return true
		}
	}
	return false
}

// Section returns a read-only, priority-merged view of the named section
// across every scope that defines it: local options/subsections override
// global, which overrides system.
func (m *Merged) Section(name string) *MergedSection {
	var merged *MergedSection

	for s := SystemScope; s <= LocalScope; s++ {
		cfg := m.scopedConfigs[s]
		if cfg == nil || !cfg.hasSection(name) {
			continue
		}
		sec := cfg.Section(name)

		if merged == nil {
			merged = newMergedSection(sec)
			continue
		}

		for _, o := range sec.Options {
			merged.backingSection.SetOption(o.Key, o.Value)
		}
		for _, ss := range sec.Subsections {
			if merged.HasSubsection(ss.Name) {
				for _, o := range ss.Options {
					merged.backingSection.Subsection(ss.Name).SetOption(o.Key, o.Value)
				}
			} else {
				merged.backingSection.Subsections = append(merged.backingSection.Subsections,
					&Subsection{Name: ss.Name, Options: copyOptions(ss.Options)})
			}
		}
	}

	if merged != nil {
		merged.backingSection.Name = name
	}

	return merged
}

// AddOption is config.AddOption scoped to a single config layer.
func (m *Merged) AddOption(scope Scope, section, subsection, key, value string) *Config {
	return m.ScopedConfig(scope).AddOption(section, subsection, key, value)
}

// SetOption is config.SetOption scoped to a single config layer.
func (m *Merged) SetOption(scope Scope, section, subsection, key string, value ...string) *Config {
	return m.ScopedConfig(scope).SetOption(section, subsection, key, value...)
}

// RemoveSection is config.RemoveSection scoped to a single config layer.
func (m *Merged) RemoveSection(scope Scope, name string) *Config {
	return m.ScopedConfig(scope).RemoveSection(name)
}

// RemoveSubsection is config.RemoveSubsection scoped to a single config
// layer.
func (m *Merged) RemoveSubsection(scope Scope, section, subsection string) *Config {
	return m.ScopedConfig(scope).RemoveSubsection(section, subsection)
}

func copyOptions(opts Options) Options {
	out := make(Options, len(opts))
	for i, o := range opts {
		out[i] = &Option{Key: o.Key, Value: o.Value}
	}
	return out
}

func copySubsections(subs Subsections) Subsections {
	out := make(Subsections, 0, len(subs))
	for _, ss := range subs {
		out = append(out, &Subsection{Name: ss.Name, Options: copyOptions(ss.Options)})
	}
	return out
}

// MergedSection is a read-only view of a Section produced by Merged, with
// options and subsections already folded in from lower-priority scopes.
type MergedSection struct {
	backingSection *Section
}

func newMergedSection(backing *Section) *MergedSection {
	return &MergedSection{
		backingSection: &Section{
			Name:        backing.Name,
			Options:     copyOptions(backing.Options),
			Subsections: copySubsections(backing.Subsections),
		},
	}
}

func (ms *MergedSection) Name() string          { return ms.backingSection.Name }
func (ms *MergedSection) IsName(name string) bool { return ms.backingSection.IsName(name) }
func (ms *MergedSection) Options() Options      { return ms.backingSection.Options }
func (ms *MergedSection) Option(key string) string { return ms.backingSection.Option(key) }

func (ms *MergedSection) Subsections() MergedSubsections {
	out := make(MergedSubsections, 0, len(ms.backingSection.Subsections))
	for _, ss := range ms.backingSection.Subsections {
		out = append(out, newMergedSubsection(ss))
	}
	return out
}

func (ms *MergedSection) Subsection(name string) *MergedSubsection {
	return newMergedSubsection(ms.backingSection.Subsection(name))
}

func (ms *MergedSection) HasSubsection(name string) bool {
	return ms.backingSection.HasSubsection(name)
}

// MergedSubsection is a read-only view of a Subsection produced by
// Merged.
type MergedSubsection struct {
	backingSubsection *Subsection
}

// MergedSubsections is an ordered list of MergedSubsection.
type MergedSubsections []*MergedSubsection

func newMergedSubsection(backing *Subsection) *MergedSubsection {
	return &MergedSubsection{backingSubsection: backing}
}

func (mss *MergedSubsection) Name() string          { return mss.backingSubsection.Name }
func (mss *MergedSubsection) IsName(name string) bool { return mss.backingSubsection.IsName(name) }
func (mss *MergedSubsection) Options() Options      { return mss.backingSubsection.Options }
func (mss *MergedSubsection) Option(key string) string { return mss.backingSubsection.Option(key) }
