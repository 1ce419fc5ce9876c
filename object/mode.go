// Package object parses git's tree-shaped content (tree entries, file
// modes, object kinds) on top of the bytes the odb package returns.
package object

import (
	"fmt"
	"os"
	"strconv"
)

// Mode is a git file mode: the Unix mode bits git stores in a tree
// entry, restricted to the handful of values git itself produces —
// regular file, executable file, symlink, directory, or submodule.
type Mode uint32

const (
	Empty      Mode = 0
	Dir        Mode = 0o040000
	Regular    Mode = 0o100644
	Deprecated Mode = 0o100664
	Executable Mode = 0o100755
	Symlink    Mode = 0o120000
	Submodule  Mode = 0o160000
)

// New parses a tree-entry mode from its textual form, as it appears
// both in packfile-encoded trees and in tools like "git diff-tree".
// Leading zeros are tolerated; anything that doesn't parse as octal
// is rejected.
func New(s string) (Mode, error) {
	if s == "" {
		return Empty, fmt.Errorf("filemode: malformed mode: %q", s)
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, fmt.Errorf("filemode: malformed mode: %q: %w", s, err)
	}
	return Mode(n), nil
}

// NewFromOSFileMode translates an os.FileMode into the closest git
// mode, matching the rules git itself applies when adding files:
// symlinks and directories map directly, executable bits promote a
// regular file to Executable, and modes with no git equivalent
// (devices, sockets, named pipes, temporary files) are rejected.
func NewFromOSFileMode(m os.FileMode) (Mode, error) {
	switch {
	case m&os.ModeSymlink != 0:
		return Symlink, nil
	case m&os.ModeNamedPipe != 0:
		return Empty, fmt.Errorf("filemode: no equivalent mode for named pipe %s", m)
	case m&os.ModeSocket != 0:
		return Empty, fmt.Errorf("filemode: no equivalent mode for socket %s", m)
	case m&os.ModeDevice != 0:
		return Empty, fmt.Errorf("filemode: no equivalent mode for device %s", m)
	case m&os.ModeCharDevice != 0:
		return Empty, fmt.Errorf("filemode: no equivalent mode for char device %s", m)
	case m&os.ModeTemporary != 0:
		return Empty, fmt.Errorf("filemode: no equivalent mode for temporary file %s", m)
	case m.IsDir():
		return Dir, nil
	case m&0o111 != 0:
		return Executable, nil
	default:
		return Regular, nil
	}
}

// Bytes returns the little-endian 4-byte encoding used when a mode is
// embedded alongside a hash for content comparison purposes.
func (m Mode) Bytes() []byte {
	return []byte{byte(m), byte(m >> 8), byte(m >> 16), byte(m >> 24)}
}

// String renders m the way git's plumbing commands print modes: a
// zero-padded 7-digit octal number.
func (m Mode) String() string {
	return fmt.Sprintf("%07o", uint32(m))
}

// IsMalformed reports whether m is not one of the modes git itself
// ever produces.
func (m Mode) IsMalformed() bool {
	switch m {
	case Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	default:
		return true
	}
}

// IsRegular reports whether m addresses a plain (non-executable)
// file, tolerating the deprecated 100664 mode some old repositories
// carry.
func (m Mode) IsRegular() bool {
	return m == Regular || m == Deprecated
}

// IsFile reports whether m addresses file-like content: a regular
// file, the deprecated mode, an executable, or a symlink target.
func (m Mode) IsFile() bool {
	return m == Regular || m == Deprecated || m == Executable || m == Symlink
}

// ToOSFileMode converts m back into an os.FileMode suitable for
// creating a filesystem entry, rejecting any mode IsMalformed would
// flag.
func (m Mode) ToOSFileMode() (os.FileMode, error) {
	switch m {
	case Dir:
		return os.ModePerm | os.ModeDir, nil
	case Regular, Deprecated:
		return 0o644, nil
	case Executable:
		return 0o755, nil
	case Symlink:
		return os.ModePerm | os.ModeSymlink, nil
	case Submodule:
		return os.ModePerm | os.ModeDir, nil
	default:
		return 0, fmt.Errorf("filemode: malformed mode: %s", m)
	}
}
