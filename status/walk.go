package status

import (
	"os"
	"sort"
	"strings"
	"sync"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-gitcore/gitcore/giterr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

// IndexLookup answers whether a path is tracked in the worktree index,
// and — if it names the root of a submodule's own worktree — reports
// that too, so the walk stops at the boundary instead of descending
// into a second repository.
type IndexLookup interface {
	Lookup(path string) (tracked bool, isSubmodule bool)
}

// IgnoreMatcher answers whether a path is covered by an ignore or
// precious rule. RuleMatcher implements this.
type IgnoreMatcher interface {
	Match(path []string, isDir bool) IgnoreMatch
}

// Walker walks one worktree, classifying every path it visits against
// an index and an ignore matcher. It counts directories read and
// entries seen/returned, and classifies each path as pruned or
// ignored (expendable or precious), rather than diffing three trees
// the way a tree-based status implementation would.
// Directory traversal itself follows utils/merkletrie/filesystem/node.go's
// use of billy.Filesystem.ReadDir; recursive ReadDir calls are bounded
// to Options.MaxParallelism with golang.org/x/sync/errgroup.
type Walker struct {
	FS      billy.Filesystem
	Index   IndexLookup
	Ignore  IgnoreMatcher
	Options Options

	mu sync.Mutex
}

// NewWalker builds a Walker over fs, classifying against index and
// ignore.
func NewWalker(fs billy.Filesystem, index IndexLookup, ignore IgnoreMatcher, opts Options) *Walker {
	return &Walker{FS: fs, Index: index, Ignore: ignore, Options: opts}
}

// Walk traverses the whole worktree from its root and returns every
// entry the configured Options leave un-collapsed, along with counters
// describing the work actually done.
func (w *Walker) Walk() ([]Entry, Outcome, error) {
	var out Outcome
	var entries []Entry
	_, err := w.walkDir("", &entries, &out)
	return entries, out, err
}

func (w *Walker) incReadDir(out *Outcome) {
	w.mu.Lock()
	out.ReadDirCalls++
	w.mu.Unlock()
}

func (w *Walker) addSeen(out *Outcome, n int) {
	w.mu.Lock()
	out.SeenEntries += n
	w.mu.Unlock()
}

func (w *Walker) addReturned(out *Outcome, n int) {
	w.mu.Lock()
	out.ReturnedEntries += n
	w.mu.Unlock()
}

// aggregate summarizes a subtree's leaf statuses for its parent's
// collapse decision.
type aggregate struct {
	uniform    bool
	status     Status
	anyTracked bool
	empty      bool
}

// classified is the outcome of the cheap, sequential first pass over one
// directory entry: either it is fully resolved (done), or it names a
// subdirectory that still needs a recursive walkDir call.
type classified struct {
	done         bool
	entry        Entry
	status       Status
	pruned       bool
	needsRecurse bool
	childRel     string
	ownStatus    Status
}

type recursion struct {
	entries []Entry
	agg     aggregate
}

func (w *Walker) walkDir(rel string, entries *[]Entry, out *Outcome) (aggregate, error) {
	w.incReadDir(out)

	abs := rel
	if abs == "" {
		abs = "."
	}
	infos, err := w.FS.ReadDir(abs)
	if err != nil {
		return aggregate{}, giterr.NewIoError("readdir", abs, err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	w.addSeen(out, len(infos))

	items := make([]classified, len(infos))
	var pendingIdx []int

	for i, info := range infos {
		name := info.Name()
		if w.Options.PrecomposeUnicode {
			name = norm.NFC.String(name)
		}
		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}
		segments := strings.Split(childRel, "/")

		if isDotGit(name, w.Options.CaseInsensitiveDotGit) {
			e := Entry{Path: childRel, Status: Pruned, Kind: w.classifyKind(info, childRel), Properties: DotGit}
			items[i] = classified{done: true, entry: e, status: Pruned, pruned: true}
			continue
		}

		kind := w.classifyKind(info, childRel)
		tracked, isSubmodule := false, false
		if w.Index != nil {
			tracked, isSubmodule = w.Index.Lookup(childRel)
		}

		if isSubmodule {
			e := Entry{Path: childRel, Status: Tracked, Kind: KindRepository}
			items[i] = classified{done: true, entry: e, status: Tracked}
			continue
		}

		if kind != KindDirectory {
			status := w.classifyLeaf(childRel, segments, tracked, false)
			items[i] = classified{done: true, entry: Entry{Path: childRel, Status: status, Kind: kind}, status: status}
			continue
		}

		ownStatus := w.classifyLeaf(childRel, segments, tracked, true)

		if ownStatus == IgnoredExpendable || ownStatus == IgnoredPrecious {
			expand, err := w.shouldExpandIgnored(childRel)
			if err != nil {
				return aggregate{}, err
			}
			if !expand {
				e := Entry{Path: childRel, Status: ownStatus, Kind: KindDirectory, Properties: Collapsed}
				items[i] = classified{done: true, entry: e, status: ownStatus}
				continue
			}
		}

		items[i] = classified{needsRecurse: true, childRel: childRel, ownStatus: ownStatus}
		pendingIdx = append(pendingIdx, i)
	}

	results, err := w.runRecursions(items, pendingIdx, out)
	if err != nil {
		return aggregate{}, err
	}

	var agg aggregate
	first := true
	mergeLeaf := func(status Status, pruned bool) {
		if pruned {
			return
		}
		if first {
			agg = aggregate{uniform: true, status: status, anyTracked: status == Tracked}
			first = false
			return
		}
		if agg.status != status {
			agg.uniform = false
		}
		if status == Tracked {
			agg.anyTracked = true
		}
	}

	var local []Entry
	for i := range items {
		it := &items[i]
		if it.done {
			local = append(local, it.entry)
			mergeLeaf(it.status, it.pruned)
			continue
		}

		res := results[i]
		if res.agg.empty {
			local = append(local, Entry{Path: it.childRel, Status: it.ownStatus, Kind: KindDirectory, Properties: EmptyDirectory})
			mergeLeaf(it.ownStatus, false)
			continue
		}

		forced := (it.ownStatus == IgnoredExpendable || it.ownStatus == IgnoredPrecious) && w.Options.EmitIgnored != None
		collapsed, collapsedStatus := false, Untracked
		if !forced {
			collapsed, collapsedStatus = w.decideCollapse(it.childRel, res.agg)
		}
		if collapsed {
			local = append(local, Entry{Path: it.childRel, Status: collapsedStatus, Kind: KindDirectory, Properties: Collapsed})
			mergeLeaf(collapsedStatus, false)
			if w.Options.EmitCollapsed == OnStatusMismatch && !res.agg.uniform {
				local = append(local, mismatchedChildren(it.childRel, collapsedStatus, res.entries)...)
			}
			continue
		}

		local = append(local, res.entries...)
		if res.agg.uniform {
			mergeLeaf(res.agg.status, false)
		} else {
			agg.uniform = false
			if res.agg.anyTracked {
				agg.anyTracked = true
			}
		}
	}

	if first {
		agg = aggregate{empty: true}
	}

	w.addReturned(out, len(local))
	*entries = append(*entries, local...)
	return agg, nil
}

// runRecursions walks every pending subdirectory, bounded by
// Options.MaxParallelism. entries at non-pending indices are left zero.
func (w *Walker) runRecursions(items []classified, pendingIdx []int, out *Outcome) ([]recursion, error) {
	results := make([]recursion, len(items))
	if len(pendingIdx) == 0 {
		return results, nil
	}

	if w.Options.MaxParallelism <= 1 {
		for _, i := range pendingIdx {
			var sub []Entry
			agg, err := w.walkDir(items[i].childRel, &sub, out)
			if err != nil {
				return nil, err
			}
			results[i] = recursion{entries: sub, agg: agg}
		}
		return results, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(w.Options.MaxParallelism)
	for _, idx := range pendingIdx {
		idx := idx
		g.Go(func() error {
			var sub []Entry
			agg, err := w.walkDir(items[idx].childRel, &sub, out)
			if err != nil {
				return err
			}
			results[idx] = recursion{entries: sub, agg: agg}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// mismatchedChildren returns a SyntheticDirStat entry for every entry in
// subEntries that is a direct child of parentRel and whose Status
// disagrees with collapsedStatus.
func mismatchedChildren(parentRel string, collapsedStatus Status, subEntries []Entry) []Entry {
	var out []Entry
	prefix := parentRel + "/"
	for _, e := range subEntries {
		if !strings.HasPrefix(e.Path, prefix) {
			continue
		}
		if strings.Contains(e.Path[len(prefix):], "/") {
			continue
		}
		if e.Status == collapsedStatus {
			continue
		}
		synth := e
		synth.Properties |= SyntheticDirStat
		out = append(out, synth)
	}
	return out
}

// shouldExpandIgnored reports whether an ignored directory at rel must
// still be descended into, either because EmitIgnored never collapses
// ignored directories at all, or because ForDeletion requires probing it
// for a nested repository a deletion pass must not blindly remove.
func (w *Walker) shouldExpandIgnored(rel string) (bool, error) {
	if w.Options.EmitIgnored == None {
		return true, nil
	}
	switch w.Options.ForDeletion {
	case NoForDeletion:
		return false, nil
	case FindNonBareRepositoriesInIgnoredDirectories:
		found, bare, err := w.hasNestedRepository(rel)
		if err != nil {
			return false, err
		}
		return found && !bare, nil
	case FindRepositoriesInIgnoredDirectories:
		found, _, err := w.hasNestedRepository(rel)
		if err != nil {
			return false, err
		}
		return found, nil
	case IgnoredDirectoriesCanHideNestedRepositories:
		return true, nil
	default:
		return false, nil
	}
}

// hasNestedRepository probes rel for the markers of a nested git
// repository: a ".git" entry (non-bare), or the HEAD/objects/refs triad
// a bare repository keeps at its own root.
func (w *Walker) hasNestedRepository(rel string) (found, bare bool, err error) {
	if _, statErr := w.FS.Stat(rel + "/.git"); statErr == nil {
		return true, false, nil
	}
	if _, statErr := w.FS.Stat(rel + "/HEAD"); statErr != nil {
		return false, false, nil
	}
	if info, statErr := w.FS.Stat(rel + "/objects"); statErr != nil || !info.IsDir() {
		return false, false, nil
	}
	if info, statErr := w.FS.Stat(rel + "/refs"); statErr != nil || !info.IsDir() {
		return false, false, nil
	}
	return true, true, nil
}

// decideCollapse applies the configured collapse policy to a directory
// whose contents are summarized by agg. rel is never collapsed if it
// equals Options.Cwd, regardless of policy.
func (w *Walker) decideCollapse(rel string, agg aggregate) (collapse bool, status Status) {
	if agg.anyTracked {
		return false, Untracked
	}
	if w.Options.Cwd != "" && rel == w.Options.Cwd {
		return false, Untracked
	}
	switch w.collapseModeFor(agg) {
	case CollapseDirectory:
		if agg.uniform {
			return true, agg.status
		}
		return true, Untracked
	case Matching:
		if agg.uniform {
			return true, agg.status
		}
		return false, Untracked
	default:
		return false, Untracked
	}
}

// collapseModeFor picks EmitIgnored for a subtree whose descendants are
// uniformly ignored, and EmitUntracked otherwise -- mirroring how git
// itself treats a directory as "ignored" only when nothing inside it
// escapes ignore rules.
func (w *Walker) collapseModeFor(agg aggregate) CollapsedEntriesEmissionMode {
	if agg.uniform && (agg.status == IgnoredExpendable || agg.status == IgnoredPrecious) {
		return w.Options.EmitIgnored
	}
	return w.Options.EmitUntracked
}

func (w *Walker) classifyLeaf(relPath string, segments []string, tracked bool, isDir bool) Status {
	if tracked {
		return Tracked
	}
	if w.Ignore == nil {
		return Untracked
	}
	m := w.Ignore.Match(segments, isDir)
	if !m.Matched {
		return Untracked
	}
	if m.Precious {
		return IgnoredPrecious
	}
	return IgnoredExpendable
}

// classifyKind reports a child's Kind, following a symlink's target
// when Options.SymlinksToDirectoriesAreDirectories asks for libgit2's
// compatibility behavior instead of git's own (a symlink is always a
// file, regardless of what it points at).
func (w *Walker) classifyKind(info os.FileInfo, rel string) Kind {
	if info.Mode()&os.ModeSymlink == 0 {
		if info.IsDir() {
			return KindDirectory
		}
		return KindFile
	}
	if w.Options.SymlinksToDirectoriesAreDirectories {
		if target, err := w.FS.Stat(rel); err == nil && target.IsDir() {
			return KindDirectory
		}
	}
	return KindSymlink
}

func isDotGit(name string, caseInsensitive bool) bool {
	if caseInsensitive {
		return strings.EqualFold(name, ".git")
	}
	return name == ".git"
}
