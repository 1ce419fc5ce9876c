package odb

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	billy "github.com/go-git/go-billy/v5"

	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/pack"
	"github.com/go-gitcore/gitcore/zlibcodec"
)

// LooseStore is one "objects" directory's loose-object half: content is
// laid out as objects/<first-two-hex>/<remaining-hex>, each file a
// zlib-deflated "<type> <size>\0<content>" stream; loose objects are
// write-once. Grounded on go-git's
// storage/filesystem/internal/dotgit/dotgit.go loose-object path layout,
// adapted to go-billy for filesystem access the way go-git's
// storage/filesystem package does throughout.
type LooseStore struct {
	fs   billy.Filesystem
	path string
}

// NewLooseStore returns a LooseStore rooted at path's "objects"
// directory (or wherever fs is chrooted to already represent it).
func NewLooseStore(fs billy.Filesystem, path string) *LooseStore {
	return &LooseStore{fs: fs, path: path}
}

// Path returns the root directory this store reads from, used to detect
// whether two LooseStore instances represent the same on-disk directory
// across a consolidation pass.
func (l *LooseStore) Path() string { return l.path }

func looseObjectRelPath(id hash.ObjectID) string {
	full := id.String()
	return full[:2] + "/" + full[2:]
}

// Has reports whether id exists as a loose object.
func (l *LooseStore) Has(id hash.ObjectID) bool {
	_, err := l.fs.Stat(l.fs.Join(l.path, looseObjectRelPath(id)))
	return err == nil
}

// LooseObject is a fully decoded loose object: its type and raw payload.
type LooseObject struct {
	Kind pack.Kind
	Data []byte
}

// Read loads and decodes the loose object named by id.
func (l *LooseStore) Read(id hash.ObjectID) (LooseObject, error) {
	f, err := l.fs.Open(l.fs.Join(l.path, looseObjectRelPath(id)))
	if err != nil {
		return LooseObject{}, &giterr.ObjectMissing{ID: id}
	}
	defer f.Close()

	raw, _, err := zlibcodec.InflateAll(f)
	if err != nil {
		return LooseObject{}, &giterr.CodecError{Err: err}
	}

	kind, size, body, err := parseLooseHeader(raw)
	if err != nil {
		return LooseObject{}, err
	}
	if uint64(len(body)) != size {
		return LooseObject{}, giterr.NewFormatError(fmt.Sprintf("loose object %s: size mismatch", id))
	}
	return LooseObject{Kind: kind, Data: body}, nil
}

// parseLooseHeader splits "<type> <size>\0<content>" into its parts.
func parseLooseHeader(raw []byte) (pack.Kind, uint64, []byte, error) {
	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return 0, 0, nil, giterr.NewFormatError("loose object header (no NUL terminator)")
	}
	header := raw[:nul]
	sp := bytes.IndexByte(header, ' ')
	if sp < 0 {
		return 0, 0, nil, giterr.NewFormatError("loose object header (no type/size separator)")
	}
	typ := string(header[:sp])
	var kind pack.Kind
	switch typ {
	case "commit":
		kind = pack.KindCommit
	case "tree":
		kind = pack.KindTree
	case "blob":
		kind = pack.KindBlob
	case "tag":
		kind = pack.KindTag
	default:
		return 0, 0, nil, giterr.NewFormatError("loose object header (unknown type " + typ + ")")
	}

	var size uint64
	for _, c := range header[sp+1:] {
		if c < '0' || c > '9' {
			return 0, 0, nil, giterr.NewFormatError("loose object header (malformed size)")
		}
		size = size*10 + uint64(c-'0')
	}
	return kind, size, raw[nul+1:], nil
}

// EncodeLooseObject deflates kind/data into the on-disk loose-object
// stream, the inverse of parseLooseHeader, for callers that write new
// loose objects.
func EncodeLooseObject(w io.Writer, kind pack.Kind, data []byte) error {
	header := fmt.Sprintf("%s %d\x00", kind.String(), len(data))
	return zlibcodec.Deflate(w, append([]byte(header), data...))
}

// Walk visits every object id stored loosely under this store, in
// ascending hex order. It tolerates a missing "objects" directory
// (nothing written there yet).
func (l *LooseStore) Walk(idKind hash.Kind) ([]hash.ObjectID, error) {
	prefixes, err := l.fs.ReadDir(l.path)
	if err != nil {
		return nil, nil
	}
	var ids []hash.ObjectID
	for _, p := range prefixes {
		if !p.IsDir() || len(p.Name()) != 2 {
			continue
		}
		entries, err := l.fs.ReadDir(l.fs.Join(l.path, p.Name()))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			id, ok := hash.FromHex(p.Name() + e.Name())
			if !ok || id.Kind() != idKind {
				continue
			}
			ids = append(ids, id)
		}
	}
	sort.Sort(hash.Slice(ids))
	return ids, nil
}
