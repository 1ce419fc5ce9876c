package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergedPriority(t *testing.T) {
	m := NewMerged()
	m.SystemConfig().AddOption("user", NoSubsection, "name", "System User")
	m.GlobalConfig().AddOption("user", NoSubsection, "name", "Global User")
	m.GlobalConfig().AddOption("user", NoSubsection, "email", "global@example.com")
	m.LocalConfig().AddOption("user", NoSubsection, "name", "Local User")

	sect := m.Section("user")
	require.NotNil(t, sect)
	assert.Equal(t, "Local User", sect.Option("name"))
	assert.Equal(t, "global@example.com", sect.Option("email"))
}

func TestMergedSubsectionOverride(t *testing.T) {
	m := NewMerged()
	m.GlobalConfig().AddOption("remote", "origin", "url", "https://global/repo.git")
	m.LocalConfig().AddOption("remote", "origin", "url", "https://local/repo.git")
	m.LocalConfig().AddOption("remote", "fork", "url", "https://local/fork.git")

	sect := m.Section("remote")
	require.NotNil(t, sect)
	require.True(t, sect.HasSubsection("origin"))
	assert.Equal(t, "https://local/repo.git", sect.Subsection("origin").Option("url"))
	assert.Equal(t, "https://local/fork.git", sect.Subsection("fork").Option("url"))
}

func TestMergedSectionAbsent(t *testing.T) {
	m := NewMerged()
	assert.Nil(t, m.Section("nonexistent"))
}

func TestMergedScopedAccessors(t *testing.T) {
	m := NewMerged()
	m.AddOption(SystemScope, "core", NoSubsection, "bare", "false")
	m.SetOption(LocalScope, "core", NoSubsection, "bare", "true")

	assert.Equal(t, "false", m.SystemConfig().Option("core", NoSubsection, "bare"))
	assert.Equal(t, "true", m.LocalConfig().Option("core", NoSubsection, "bare"))
	assert.Equal(t, "true", m.Section("core").Option("bare"))
}
