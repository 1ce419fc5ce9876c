package pack

import (
	"fmt"

	"github.com/go-gitcore/gitcore/internal/varint"
)

// maxCopySize is the maximum a single copy instruction can address when
// its size nibbles are all zero (Git special-cases 0 to mean 0x10000).
const maxCopySize = 0x10000

// DeltaError reports a malformed delta stream: any mismatch between
// what the instructions describe and what the buffers actually hold.
type DeltaError struct {
	Reason string
}

func (e *DeltaError) Error() string { return "malformed delta: " + e.Reason }

// DecodeDeltaHeader reads the two size varints that prefix every delta
// stream: the base object's size, then the result object's size.
func DecodeDeltaHeader(delta []byte) (baseSize, resultSize uint64, rest []byte, err error) {
	baseSize, rest = varint.DecodeLEB128(delta)
	if rest == nil {
		return 0, 0, nil, &DeltaError{Reason: "truncated base size"}
	}
	resultSize, rest = varint.DecodeLEB128(rest)
	return baseSize, resultSize, rest, nil
}

// ApplyDelta reconstructs the target object from base and delta
// instructions, using git's copy/insert instruction set. The
// result is exactly resultSize bytes as decoded from the delta header;
// any mismatch is DeltaError.
//
// Grounded directly on go-git's plumbing/format/packfile/patch_delta.go
// patchDelta, adapted to operate on a destination buffer rather than a
// bytes.Buffer so the decode engine (decode.go) can apply in place.
func ApplyDelta(dst []byte, base, delta []byte) ([]byte, error) {
	baseSize, resultSize, delta, err := DecodeDeltaHeader(delta)
	if err != nil {
		return nil, err
	}
	if baseSize != uint64(len(base)) {
		return nil, &DeltaError{Reason: fmt.Sprintf("base size mismatch: delta expects %d, have %d", baseSize, len(base))}
	}

	if cap(dst) < int(resultSize) {
		dst = make([]byte, 0, resultSize)
	}
	dst = dst[:0]

	remaining := resultSize
	for remaining > 0 {
		if len(delta) == 0 {
			return nil, &DeltaError{Reason: "instruction stream ended early"}
		}
		cmd := delta[0]
		delta = delta[1:]

		switch {
		case isCopyFromBase(cmd):
			offset, sz, rest, err := decodeCopyInstruction(cmd, delta)
			if err != nil {
				return nil, err
			}
			delta = rest
			if sz > remaining {
				return nil, &DeltaError{Reason: "copy instruction exceeds result size"}
			}
			end := offset + sz
			if end < offset || end > uint64(len(base)) {
				return nil, &DeltaError{Reason: "copy instruction out of bounds of base"}
			}
			dst = append(dst, base[offset:end]...)
			remaining -= sz

		case isInsert(cmd):
			sz := uint64(cmd)
			if sz > remaining {
				return nil, &DeltaError{Reason: "insert instruction exceeds result size"}
			}
			if uint64(len(delta)) < sz {
				return nil, &DeltaError{Reason: "insert instruction truncated"}
			}
			dst = append(dst, delta[:sz]...)
			delta = delta[sz:]
			remaining -= sz

		default:
			return nil, &DeltaError{Reason: "zero command byte"}
		}
	}

	if uint64(len(dst)) != resultSize {
		return nil, &DeltaError{Reason: "result size mismatch"}
	}
	return dst, nil
}

// copy instructions set the high bit (0x80) of the command byte; insert
// instructions are any nonzero byte with that bit clear, and the byte
// itself is the insert length (1..=127).
func isCopyFromBase(cmd byte) bool { return cmd&0x80 != 0 }
func isInsert(cmd byte) bool       { return cmd&0x80 == 0 && cmd != 0 }

var copyOffsetShifts = [4]uint{0, 8, 16, 24}
var copySizeShifts = [3]uint{0, 8, 16}

// decodeCopyInstruction reads the variable-length offset/size operands of
// a copy instruction: the low 7 bits of cmd flag which of the offset's
// four bytes and size's three bytes are actually present.
func decodeCopyInstruction(cmd byte, delta []byte) (offset, size uint64, rest []byte, err error) {
	for i, shift := range copyOffsetShifts {
		if cmd&(1<<uint(i)) != 0 {
			if len(delta) == 0 {
				return 0, 0, nil, &DeltaError{Reason: "truncated copy offset"}
			}
			offset |= uint64(delta[0]) << shift
			delta = delta[1:]
		}
	}
	for i, shift := range copySizeShifts {
		if cmd&(1<<uint(i+4)) != 0 {
			if len(delta) == 0 {
				return 0, 0, nil, &DeltaError{Reason: "truncated copy size"}
			}
			size |= uint64(delta[0]) << shift
			delta = delta[1:]
		}
	}
	if size == 0 {
		size = maxCopySize
	}
	return offset, size, delta, nil
}
