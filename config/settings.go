package config

import "strconv"

// Settings is a small, typed façade over a Merged config for the handful
// of keys the rest of this module actually consults. It exists so
// callers don't have to repeat the section/key string literals (and
// their parsing) at every call site.
type Settings struct {
	merged *Merged
}

// NewSettings wraps m in a Settings façade.
func NewSettings(m *Merged) *Settings {
	return &Settings{merged: m}
}

func (s *Settings) core() *MergedSection   { return s.merged.Section("core") }
func (s *Settings) index() *MergedSection  { return s.merged.Section("index") }
func (s *Settings) diff() *MergedSection   { return s.merged.Section("diff") }
func (s *Settings) status() *MergedSection { return s.merged.Section("status") }

func optionBool(sec *MergedSection, key string, def bool) bool {
	if sec == nil {
		return def
	}
	v, err := strconv.ParseBool(sec.Option(key))
	if err != nil {
		return def
	}
	return v
}

// RepositoryFormatVersion returns core.repositoryformatversion, defaulting
// to Version0 when unset.
func (s *Settings) RepositoryFormatVersion() RepositoryFormatVersion {
	sec := s.core()
	if sec == nil || sec.Option("repositoryformatversion") == "" {
		return DefaultRepositoryFormatVersion
	}
	return RepositoryFormatVersion(sec.Option("repositoryformatversion"))
}

// ObjectFormat returns extensions.objectformat, defaulting to SHA1 when
// unset. It's only meaningful when RepositoryFormatVersion is Version1.
func (s *Settings) ObjectFormat() ObjectFormat {
	sec := s.merged.Section("extensions")
	if sec == nil || sec.Option("objectformat") == "" {
		return DefaultObjectFormat
	}
	return ObjectFormat(sec.Option("objectformat"))
}

// Bare returns core.bare, defaulting to false.
func (s *Settings) Bare() bool {
	return optionBool(s.core(), "bare", false)
}

// PrecomposeUnicode returns core.precomposeUnicode, defaulting to false.
// Relevant only when reading worktree paths on filesystems (like HFS+)
// that store filenames in NFD form.
func (s *Settings) PrecomposeUnicode() bool {
	return optionBool(s.core(), "precomposeunicode", false)
}

// IgnoreCase returns core.ignoreCase, defaulting to false. When true, a
// status/diff walk should treat worktree paths case-insensitively.
func (s *Settings) IgnoreCase() bool {
	return optionBool(s.core(), "ignorecase", false)
}

// SkipHash returns index.skipHash, defaulting to false. When true, the
// worktree index's trailing checksum is written as all-zero rather than
// computed.
func (s *Settings) SkipHash() bool {
	return optionBool(s.index(), "skiphash", false)
}

// DetectRenames returns diff.renames, defaulting to false. When true, a
// tree diff should attempt to pair up deleted/added blobs as renames.
func (s *Settings) DetectRenames() bool {
	return optionBool(s.diff(), "renames", false)
}

// RenameLimit returns diff.renameLimit: the number of files beyond which
// rename detection's O(n*m) comparison is skipped. 0 means unset; callers
// should fall back to their own default.
func (s *Settings) RenameLimit() int {
	sec := s.diff()
	if sec == nil {
		return 0
	}
	v, err := strconv.Atoi(sec.Option("renameLimit"))
	if err != nil {
		return 0
	}
	return v
}

// SubmoduleSummary returns status.submoduleSummary, defaulting to false.
func (s *Settings) SubmoduleSummary() bool {
	return optionBool(s.status(), "submoduleSummary", false)
}
