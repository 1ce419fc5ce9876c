package pack

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
)

// DecodeOptions bounds the cost a single Decode call is allowed to incur,
// so a corrupt or adversarial pack (an OFS_DELTA cycle, a forged huge
// inflated size) can't be used to exhaust memory or spin forever.
type DecodeOptions struct {
	// MaxDeltaChainDepth caps how many delta links Decode will walk
	// before giving up. 0 means "use the default".
	MaxDeltaChainDepth int
	// MaxObjectSize caps the decompressed size Decode will allocate for
	// any single entry in the chain. 0 means "use the default".
	MaxObjectSize uint64
}

// DefaultDecodeOptions returns the limits Decode applies when the
// caller's DecodeOptions leaves a field unset.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{MaxDeltaChainDepth: 50, MaxObjectSize: 4 << 30}
}

// resolvedOptions merges opts over the defaults, opts's non-zero fields
// taking precedence.
func resolvedOptions(opts DecodeOptions) DecodeOptions {
	merged := DefaultDecodeOptions()
	_ = mergo.Merge(&merged, opts, mergo.WithOverride)
	return merged
}

// ResolvedBase is what ResolveExternalBase returns for a REF_DELTA whose
// base id is not found inside the current pack.
type ResolvedBase struct {
	// InPack is true when the base id actually does live in this same
	// pack (e.g. a thin-pack base, or simply a REF_DELTA referring
	// in-pack by full id instead of by offset): the walk resumes there.
	InPack     bool
	Header     EntryHeader // valid iff InPack
	Offset     int64       // header start offset, valid iff InPack
	DataOffset int64       // payload start offset, valid iff InPack

	// Out-of-pack: the base was found elsewhere in the object database
	// (another pack, or a loose object) and is handed back fully
	// decoded.
	Kind Kind
	Data []byte
}

// ResolveExternalBase looks up a REF_DELTA base id outside the current
// pack, via the object database's find path.
type ResolveExternalBase func(id hash.ObjectID) (*ResolvedBase, error)

// Outcome reports what decoding an entry actually cost.
//
// DecompressedSize and CompressedSize describe the entry that directly
// produced the requested object (the head of the delta chain, or the
// object itself if it wasn't a delta) — not a sum across the whole
// chain.
type Outcome struct {
	Kind             Kind
	NumDeltas        uint32
	DecompressedSize uint64
	CompressedSize   int
	ObjectSize       uint64
}

type chainLink struct {
	headerOffset     int64
	dataOffset       int64
	decompressedSize uint64
	raw              []byte // decompressed delta stream, header (base/result size varints) included
	baseSize         uint64
	resultSize       uint64
}

// Decode resolves a pack offset to a fully reconstructed object, walking
// OFS_DELTA/REF_DELTA chains against cached or freshly decompressed
// bases. It implements the six-step algorithm verbatim: backward chain
// walk with cache short-circuit, a first
// decompression pass recording per-delta sizes, oldest-to-newest delta
// application, and a cache insert keyed by (pack id, original offset).
func Decode(p *Pack, offset int64, resolve ResolveExternalBase, cache DecodeCache, opts DecodeOptions) (Outcome, []byte, error) {
	if cache == nil {
		cache = NoCache{}
	}
	limits := resolvedOptions(opts)

	originalOffset := offset
	cursorOffset := offset
	cursorHdr, cursorDataOffset, err := p.EntryHeaderAt(cursorOffset)
	if err != nil {
		return Outcome{}, nil, err
	}

	var (
		chain         []chainLink
		baseKind      Kind
		baseData      []byte
		cacheHit      bool
		outOfPack     bool
		consumedInput int
		haveConsumed  bool
	)

	// Step 1: walk the delta chain backward, stopping on the first
	// non-delta entry or on a cache hit.
	for cursorHdr.Kind.IsDelta() {
		if kind, data, packedSize, ok := cache.Get(p.ID(), cursorOffset); ok {
			baseKind, baseData, cacheHit = kind, data, true
			if len(chain) == 0 {
				consumedInput, haveConsumed = packedSize, true
			}
			break
		}

		if len(chain) >= limits.MaxDeltaChainDepth {
			return Outcome{}, nil, &DeltaError{Reason: fmt.Sprintf(
				"delta chain exceeds maximum depth %d", limits.MaxDeltaChainDepth)}
		}
		if cursorHdr.DecompressedSize > limits.MaxObjectSize {
			return Outcome{}, nil, &DeltaError{Reason: fmt.Sprintf(
				"delta entry decompressed size %d exceeds maximum %d", cursorHdr.DecompressedSize, limits.MaxObjectSize)}
		}

		chain = append(chain, chainLink{
			headerOffset:     cursorOffset,
			dataOffset:       cursorDataOffset,
			decompressedSize: cursorHdr.DecompressedSize,
		})

		switch cursorHdr.Kind {
		case KindOfsDelta:
			cursorOffset = cursorHdr.BaseOffset
			cursorHdr, cursorDataOffset, err = p.EntryHeaderAt(cursorOffset)
			if err != nil {
				return Outcome{}, nil, err
			}
		case KindRefDelta:
			resolved, rerr := resolve(cursorHdr.BaseID)
			if rerr != nil {
				return Outcome{}, nil, rerr
			}
			if resolved == nil {
				return Outcome{}, nil, &giterr.DeltaBaseUnresolved{ID: cursorHdr.BaseID}
			}
			if resolved.InPack {
				cursorOffset, cursorDataOffset, cursorHdr = resolved.Offset, resolved.DataOffset, resolved.Header
				continue
			}
			baseKind, baseData, outOfPack = resolved.Kind, resolved.Data, true
		default:
			return Outcome{}, nil, fmt.Errorf("pack: unreachable delta kind %v", cursorHdr.Kind)
		}
		if outOfPack {
			break
		}
	}

	// Cache held the target entry itself: nothing to decode.
	if cacheHit && len(chain) == 0 {
		return Outcome{
			Kind:             baseKind,
			NumDeltas:        0,
			DecompressedSize: cursorHdr.DecompressedSize,
			CompressedSize:   consumedInput,
			ObjectSize:       uint64(len(baseData)),
		}, baseData, nil
	}

	// The target wasn't a delta at all: decompress straight through.
	if len(chain) == 0 && !outOfPack {
		if cursorHdr.DecompressedSize > limits.MaxObjectSize {
			return Outcome{}, nil, &DeltaError{Reason: fmt.Sprintf(
				"object decompressed size %d exceeds maximum %d", cursorHdr.DecompressedSize, limits.MaxObjectSize)}
		}
		buf := make([]byte, cursorHdr.DecompressedSize)
		zlibLen, derr := p.DecompressPayloadAt(cursorDataOffset, cursorHdr.DecompressedSize, buf)
		if derr != nil {
			return Outcome{}, nil, derr
		}
		packed := int(cursorDataOffset-originalOffset) + zlibLen
		return Outcome{
			Kind:             cursorHdr.Kind,
			NumDeltas:        0,
			DecompressedSize: cursorHdr.DecompressedSize,
			CompressedSize:   packed,
			ObjectSize:       cursorHdr.DecompressedSize,
		}, buf, nil
	}

	// Step 2: first decompression pass — inflate every delta's
	// instruction stream, recording per-delta base/result sizes. chain[0]
	// is the newest (closest to the requested object); chain[len-1] is
	// the oldest (closest to the base).
	for i := len(chain) - 1; i >= 0; i-- {
		link := &chain[i]
		buf := make([]byte, link.decompressedSize)
		zlibLen, derr := p.DecompressPayloadAt(link.dataOffset, link.decompressedSize, buf)
		if derr != nil {
			return Outcome{}, nil, derr
		}
		if i == 0 {
			consumedInput = int(link.dataOffset-link.headerOffset) + zlibLen
			haveConsumed = true
		}
		baseSize, resultSize, _, derr2 := DecodeDeltaHeader(buf)
		if derr2 != nil {
			return Outcome{}, nil, derr2
		}
		link.baseSize, link.resultSize, link.raw = baseSize, resultSize, buf
	}

	// Fill the source region with the base object's bytes, either from
	// a cache hit, an out-of-pack resolution, or by decompressing the
	// chain terminator in place.
	if !cacheHit && !outOfPack {
		if cursorHdr.DecompressedSize > limits.MaxObjectSize {
			return Outcome{}, nil, &DeltaError{Reason: fmt.Sprintf(
				"delta base decompressed size %d exceeds maximum %d", cursorHdr.DecompressedSize, limits.MaxObjectSize)}
		}
		baseKind = cursorHdr.Kind
		buf := make([]byte, cursorHdr.DecompressedSize)
		if _, derr := p.DecompressPayloadAt(cursorDataOffset, cursorHdr.DecompressedSize, buf); derr != nil {
			return Outcome{}, nil, derr
		}
		baseData = buf
	}

	// Step 5: apply deltas oldest-to-newest, swapping source/target each
	// iteration.
	source := baseData
	var target []byte
	for i := len(chain) - 1; i >= 0; i-- {
		link := chain[i]
		if link.baseSize != uint64(len(source)) {
			return Outcome{}, nil, &DeltaError{Reason: fmt.Sprintf(
				"delta chain base size mismatch at link %d: expected %d, have %d", i, link.baseSize, len(source))}
		}
		applied, derr := ApplyDelta(target, source, link.raw)
		if derr != nil {
			return Outcome{}, nil, derr
		}
		source, target = applied, source
	}

	if !haveConsumed {
		return Outcome{}, nil, fmt.Errorf("pack: internal error: delta chain produced no consumed-byte count")
	}

	decompressedSize := chain[0].decompressedSize

	result := source
	cache.Put(p.ID(), originalOffset, result, baseKind, consumedInput)

	return Outcome{
		Kind:             baseKind,
		NumDeltas:        uint32(len(chain)),
		DecompressedSize: decompressedSize,
		CompressedSize:   consumedInput,
		ObjectSize:       uint64(len(result)),
	}, result, nil
}
