package status

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	tracked    map[string]bool
	submodules map[string]bool
}

func (f fakeIndex) Lookup(path string) (tracked bool, isSubmodule bool) {
	return f.tracked[path], f.submodules[path]
}

func TestWalk_prunesDotGit(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("repo/.git", 0o755))
	f, err := fs.Create("repo/file.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	sub, err := fs.Chroot("repo")
	require.NoError(t, err)

	w := NewWalker(sub, fakeIndex{tracked: map[string]bool{"file.txt": true}}, NewRuleMatcher(nil), Options{})
	entries, _, err := w.Walk()
	require.NoError(t, err)

	var sawDotGit bool
	for _, e := range entries {
		if e.Path == ".git" {
			sawDotGit = true
			assert.Equal(t, Pruned, e.Status)
			assert.NotZero(t, e.Properties&DotGit)
		}
	}
	assert.True(t, sawDotGit)
}

func TestWalk_classifiesTrackedUntrackedIgnored(t *testing.T) {
	fs := memfs.New()
	for _, name := range []string{"kept.txt", "scratch.txt", "build.log"} {
		f, err := fs.Create(name)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	idx := fakeIndex{tracked: map[string]bool{"kept.txt": true}}
	rules := NewRuleMatcher([]Rule{ParseRule("*.log", nil)})
	w := NewWalker(fs, idx, rules, Options{})

	entries, _, err := w.Walk()
	require.NoError(t, err)

	byPath := map[string]Entry{}
	for _, e := range entries {
		byPath[e.Path] = e
	}
	assert.Equal(t, Tracked, byPath["kept.txt"].Status)
	assert.Equal(t, Untracked, byPath["scratch.txt"].Status)
	assert.Equal(t, IgnoredExpendable, byPath["build.log"].Status)
}

func TestWalk_preciousRuleClassification(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("generated", 0o755))
	f, err := fs.Create("generated/output.bin")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rules := NewRuleMatcher([]Rule{ParseRule("$generated/", nil)})
	w := NewWalker(fs, fakeIndex{}, rules, Options{EmitIgnored: CollapseDirectory})

	entries, _, err := w.Walk()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "generated", entries[0].Path)
	assert.Equal(t, IgnoredPrecious, entries[0].Status)
	assert.NotZero(t, entries[0].Properties&Collapsed)
}

func TestWalk_collapsesUntrackedDirectory(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("scratch", 0o755))
	for _, name := range []string{"scratch/a.txt", "scratch/b.txt"} {
		f, err := fs.Create(name)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	w := NewWalker(fs, fakeIndex{}, NewRuleMatcher(nil), Options{EmitUntracked: Matching})
	entries, _, err := w.Walk()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scratch", entries[0].Path)
	assert.Equal(t, Untracked, entries[0].Status)
}

func TestWalk_doesNotCollapseDirectoryWithTrackedFile(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("mixed", 0o755))
	for _, name := range []string{"mixed/kept.txt", "mixed/scratch.txt"} {
		f, err := fs.Create(name)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	idx := fakeIndex{tracked: map[string]bool{"mixed/kept.txt": true}}
	w := NewWalker(fs, idx, NewRuleMatcher(nil), Options{EmitUntracked: CollapseDirectory})
	entries, _, err := w.Walk()
	require.NoError(t, err)

	var sawKept, sawScratch bool
	for _, e := range entries {
		switch e.Path {
		case "mixed/kept.txt":
			sawKept = true
		case "mixed/scratch.txt":
			sawScratch = true
		case "mixed":
			t.Fatalf("mixed should not collapse while it holds a tracked file")
		}
	}
	assert.True(t, sawKept)
	assert.True(t, sawScratch)
}

func TestWalk_emptyDirectoryReportedOnce(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("empty", 0o755))

	w := NewWalker(fs, fakeIndex{}, NewRuleMatcher(nil), Options{})
	entries, _, err := w.Walk()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "empty", entries[0].Path)
	assert.NotZero(t, entries[0].Properties&EmptyDirectory)
}

func TestWalk_submoduleIsNotDescended(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("vendor/lib", 0o755))
	f, err := fs.Create("vendor/lib/hidden.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	idx := fakeIndex{submodules: map[string]bool{"vendor/lib": true}}
	w := NewWalker(fs, idx, NewRuleMatcher(nil), Options{})
	entries, outcome, err := w.Walk()
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "vendor/lib", entries[0].Path)
	assert.Equal(t, KindRepository, entries[0].Kind)
	assert.Equal(t, Tracked, entries[0].Status)
	assert.Equal(t, 2, outcome.ReadDirCalls)
}

func TestWalk_precomposeUnicodeRoundTrip(t *testing.T) {
	fs := memfs.New()
	decomposed := "ä.txt" // "a" + combining diaeresis, as HFS+ stores it
	f, err := fs.Create(decomposed)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	composed := "ä.txt" // precomposed "ä.txt" (NFC)
	idx := fakeIndex{tracked: map[string]bool{composed: true}}
	w := NewWalker(fs, idx, NewRuleMatcher(nil), Options{PrecomposeUnicode: true})

	entries, _, err := w.Walk()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, composed, entries[0].Path)
	assert.Equal(t, Tracked, entries[0].Status)
}

func TestWalk_cwdIsNeverCollapsed(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("scratch", 0o755))
	for _, name := range []string{"scratch/a.txt", "scratch/b.txt"} {
		f, err := fs.Create(name)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	w := NewWalker(fs, fakeIndex{}, NewRuleMatcher(nil), Options{EmitUntracked: CollapseDirectory, Cwd: "scratch"})
	entries, _, err := w.Walk()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, e := range entries {
		assert.NotEqual(t, "scratch", e.Path, "the cwd directory must not be collapsed")
	}
}

func TestWalk_onStatusMismatchEmitsSyntheticChildren(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("d", 0o755))
	for _, name := range []string{"d/keep.txt", "d/build.o"} {
		f, err := fs.Create(name)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	rules := NewRuleMatcher([]Rule{ParseRule("*.o", nil)})
	w := NewWalker(fs, fakeIndex{}, rules, Options{
		EmitUntracked: CollapseDirectory,
		EmitCollapsed: OnStatusMismatch,
	})

	entries, _, err := w.Walk()
	require.NoError(t, err)

	var dir, synthetic *Entry
	for i := range entries {
		switch entries[i].Path {
		case "d":
			dir = &entries[i]
		case "d/build.o":
			synthetic = &entries[i]
		}
	}
	require.NotNil(t, dir)
	assert.Equal(t, Untracked, dir.Status)
	assert.NotZero(t, dir.Properties&Collapsed)

	require.NotNil(t, synthetic)
	assert.Equal(t, IgnoredExpendable, synthetic.Status)
	assert.NotZero(t, synthetic.Properties&SyntheticDirStat)
}

func TestWalk_forDeletionModesDifferentiateNestedRepositories(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("plain/sub", 0o755))
	f, err := fs.Create("plain/sub/file.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, fs.MkdirAll("vault/objects", 0o755))
	require.NoError(t, fs.MkdirAll("vault/refs", 0o755))
	f, err = fs.Create("vault/HEAD")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rules := NewRuleMatcher([]Rule{ParseRule("plain/", nil), ParseRule("vault/", nil)})

	containsPath := func(entries []Entry, path string) bool {
		for _, e := range entries {
			if e.Path == path {
				return true
			}
		}
		return false
	}

	// FindNonBareRepositoriesInIgnoredDirectories never expands a bare
	// repository, and never expands a directory with no repository at all.
	nonBare := NewWalker(fs, fakeIndex{}, rules, Options{
		EmitIgnored: CollapseDirectory,
		ForDeletion: FindNonBareRepositoriesInIgnoredDirectories,
	})
	entries, _, err := nonBare.Walk()
	require.NoError(t, err)
	assert.True(t, containsPath(entries, "plain"))
	assert.True(t, containsPath(entries, "vault"))
	assert.False(t, containsPath(entries, "vault/HEAD"))

	// FindRepositoriesInIgnoredDirectories expands a bare repository but
	// still collapses a directory hiding no repository at all.
	anyRepo := NewWalker(fs, fakeIndex{}, rules, Options{
		EmitIgnored: CollapseDirectory,
		ForDeletion: FindRepositoriesInIgnoredDirectories,
	})
	entries, _, err = anyRepo.Walk()
	require.NoError(t, err)
	assert.True(t, containsPath(entries, "plain"))
	assert.True(t, containsPath(entries, "vault/HEAD"))

	// IgnoredDirectoriesCanHideNestedRepositories expands everything.
	broadest := NewWalker(fs, fakeIndex{}, rules, Options{
		EmitIgnored: CollapseDirectory,
		ForDeletion: IgnoredDirectoriesCanHideNestedRepositories,
	})
	entries, _, err = broadest.Walk()
	require.NoError(t, err)
	assert.True(t, containsPath(entries, "plain/sub/file.txt"))
	assert.True(t, containsPath(entries, "vault/HEAD"))
}
