package diff

import (
	"strings"

	"github.com/go-gitcore/gitcore/hash"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// BlobCache resolves a blob id to its content, letting the rewrite
// tracker's similarity pass reuse already-fetched bytes across many
// candidate comparisons rather than refetching from the object
// database for each pairing.
type BlobCache interface {
	Blob(id hash.ObjectID) ([]byte, error)
}

// lineDiffStats runs a line-level diff between two blobs and reports
// the counts similarity is computed from:
// 1 − (inserted_lines + removed_lines) / (2 · max(old_lines, new_lines)).
func lineDiffStats(old, new []byte) DiffLineStats {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lineArray := dmp.DiffLinesToChars(string(old), string(new))
	diffs := dmp.DiffMain(oldChars, newChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var stats DiffLineStats
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			stats.Removals += n
			stats.Before += n
		case diffmatchpatch.DiffInsert:
			stats.Insertions += n
			stats.After += n
		case diffmatchpatch.DiffEqual:
			stats.Before += n
			stats.After += n
		}
	}

	denom := 2 * maxInt(stats.Before, stats.After)
	if denom == 0 {
		stats.Similarity = 1
	} else {
		stats.Similarity = 1 - float64(stats.Insertions+stats.Removals)/float64(denom)
	}
	return stats
}

// countLines counts the lines in s, a chunk diffmatchpatch's
// line-chars encoding guarantees is made of whole lines, tolerating a
// final line with no trailing newline.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
