package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SystemPath returns the path to the system-wide config file, honoring
// GIT_CONFIG_SYSTEM and GIT_CONFIG_NO_SYSTEM. ok is false when
// GIT_CONFIG_NO_SYSTEM disables the system scope entirely.
func SystemPath() (path string, ok bool) {
	if os.Getenv("GIT_CONFIG_NO_SYSTEM") != "" {
		return "", false
	}
	if v := os.Getenv("GIT_CONFIG_SYSTEM"); v != "" {
		return v, true
	}
	return "/etc/gitconfig", true
}

// GlobalPaths returns the candidate paths for the user's global config
// file, in priority order. The first one that exists is used.
// GIT_CONFIG_GLOBAL overrides the whole search; otherwise
// $XDG_CONFIG_HOME/git/config and $HOME/.config/git/config are tried
// ahead of the traditional $HOME/.gitconfig.
func GlobalPaths() []string {
	if v := os.Getenv("GIT_CONFIG_GLOBAL"); v != "" {
		return []string{v}
	}

	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "git", "config"))
	}

	home, err := os.UserHomeDir()
	if err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "git", "config"),
			filepath.Join(home, ".gitconfig"),
		)
	}

	return paths
}

// readConfigFile parses a single git-config file from disk. A missing
// file is not an error: it decodes to an empty Config.
func readConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, err
	}
	defer f.Close()

	cfg := New()
	if err := NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadSystem loads the system config file, or an empty Config if the
// system scope is disabled or the file doesn't exist.
func LoadSystem() (*Config, error) {
	path, ok := SystemPath()
	if !ok {
		return New(), nil
	}
	return readConfigFile(path)
}

// LoadGlobal loads the first existing candidate from GlobalPaths, or an
// empty Config if none exist.
func LoadGlobal() (*Config, error) {
	for _, path := range GlobalPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return readConfigFile(path)
	}
	return New(), nil
}

// LoadLocal loads the repository's own config file at path (typically
// .git/config).
func LoadLocal(path string) (*Config, error) {
	return readConfigFile(path)
}

// Load resolves and parses the system, global, and local config layers
// for a repository whose config file lives at localPath, and returns
// them as a priority-merged view (local overrides global overrides
// system).
func Load(localPath string) (*Merged, error) {
	m := NewMerged()

	system, err := LoadSystem()
	if err != nil {
		return nil, err
	}
	m.SetSystemConfig(system)

	global, err := LoadGlobal()
	if err != nil {
		return nil, err
	}
	m.SetGlobalConfig(global)

	local, err := LoadLocal(localPath)
	if err != nil {
		return nil, err
	}
	m.SetLocalConfig(local)

	if err := applyEnvOverrides(m); err != nil {
		return nil, err
	}

	return m, nil
}

var errInvalidEnvKey = errors.New("config: GIT_CONFIG_KEY_<n> must be section.key or section.subsection.key")

// applyEnvOverrides layers GIT_CONFIG_COUNT / GIT_CONFIG_KEY_<n> /
// GIT_CONFIG_VALUE_<n> on top of the local scope, exactly as git itself
// treats them: as the highest-priority, in-process override of whatever
// was read from disk.
func applyEnvOverrides(m *Merged) error {
	raw := os.Getenv("GIT_CONFIG_COUNT")
	if raw == "" {
		return nil
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return fmt.Errorf("config: GIT_CONFIG_COUNT is not a valid non-negative integer: %q", raw)
	}

	for i := 0; i < count; i++ {
		key, ok := os.LookupEnv(fmt.Sprintf("GIT_CONFIG_KEY_%d", i))
		if !ok {
			return fmt.Errorf("config: GIT_CONFIG_KEY_%d is not set", i)
		}
		value, ok := os.LookupEnv(fmt.Sprintf("GIT_CONFIG_VALUE_%d", i))
		if !ok {
			return fmt.Errorf("config: GIT_CONFIG_VALUE_%d is not set", i)
		}

		section, subsection, optKey, err := splitEnvKey(key)
		if err != nil {
			return err
		}

		m.LocalConfig().AddOption(section, subsection, optKey, value)
	}

	return nil
}

// splitEnvKey splits a GIT_CONFIG_KEY_<n> value of the form
// "section.key" or "section.subsection.key" into its parts.
func splitEnvKey(key string) (section, subsection, optKey string, err error) {
	first := strings.IndexByte(key, '.')
	if first < 0 {
		return "", "", "", fmt.Errorf("%w: %q", errInvalidEnvKey, key)
	}
	section = key[:first]
	rest := key[first+1:]

	last := strings.LastIndexByte(rest, '.')
	if last < 0 {
		return section, NoSubsection, rest, nil
	}
	return section, rest[:last], rest[last+1:], nil
}
