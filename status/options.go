package status

import (
	"dario.cat/mergo"

	"github.com/go-gitcore/gitcore/config"
)

// ResolveOptions fills any zero-valued field of opts from settings, the
// way git derives a status walk's case-sensitivity and unicode
// recomposition behavior from core.ignoreCase/core.precomposeUnicode
// when a caller hasn't pinned them explicitly. A caller-supplied
// non-zero field always wins; mergo.Merge (without WithOverride) never
// touches it.
func ResolveOptions(opts Options, settings *config.Settings) Options {
	if settings == nil {
		return opts
	}
	defaults := Options{
		CaseInsensitiveDotGit: settings.IgnoreCase(),
		PrecomposeUnicode:     settings.PrecomposeUnicode(),
	}
	_ = mergo.Merge(&opts, defaults)
	return opts
}
