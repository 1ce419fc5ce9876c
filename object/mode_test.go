package object

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ModeSuite struct {
	suite.Suite
}

func TestModeSuite(t *testing.T) {
	suite.Run(t, new(ModeSuite))
}

func (s *ModeSuite) TestNew() {
	for _, test := range []struct {
		input    string
		expected Mode
	}{
		{input: "40000", expected: Dir},
		{input: "100644", expected: Regular},
		{input: "100664", expected: Deprecated},
		{input: "100755", expected: Executable},
		{input: "120000", expected: Symlink},
		{input: "160000", expected: Submodule},
		{input: "000000", expected: Empty},
		{input: "040000", expected: Dir},
		{input: "0", expected: Empty},
		{input: "42", expected: Mode(0o42)},
		{input: "00000000000100644", expected: Regular},
	} {
		comment := fmt.Sprintf("input = %q", test.input)
		obtained, err := New(test.input)
		s.Equal(test.expected, obtained, comment)
		s.NoError(err, comment)
	}
}

func (s *ModeSuite) TestNewErrors() {
	for _, input := range []string{
		"0x81a4",
		"-rw-r--r--",
		"",
		"-42",
		"9",
		"09",
		"mode",
		"-100644",
		"+100644",
	} {
		comment := fmt.Sprintf("input = %q", input)
		_, err := New(input)
		s.Error(err, comment)
	}
}

func (s *ModeSuite) TestNewFromOSFileMode() {
	for _, test := range []struct {
		input    os.FileMode
		expected Mode
		wantErr  bool
	}{
		{os.FileMode(0o755) | os.ModeDir, Dir, false},
		{os.FileMode(0o644), Regular, false},
		{os.FileMode(0o755), Executable, false},
		{os.FileMode(0o777) | os.ModeSymlink, Symlink, false},
		{os.FileMode(0o644) | os.ModeNamedPipe, Empty, true},
		{os.FileMode(0o644) | os.ModeSocket, Empty, true},
		{os.FileMode(0o644) | os.ModeDevice, Empty, true},
		{os.FileMode(0o644) | os.ModeCharDevice, Empty, true},
		{os.FileMode(0o644) | os.ModeTemporary, Empty, true},
	} {
		obtained, err := NewFromOSFileMode(test.input)
		s.Equal(test.expected, obtained)
		if test.wantErr {
			s.Error(err)
		} else {
			s.NoError(err)
		}
	}
}

func (s *ModeSuite) TestBytes() {
	s.Equal([]byte{0x00, 0x40, 0x00, 0x00}, Dir.Bytes())
	s.Equal([]byte{0xa4, 0x81, 0x00, 0x00}, Regular.Bytes())
	s.Equal([]byte{0xed, 0x81, 0x00, 0x00}, Executable.Bytes())
	s.Equal([]byte{0x00, 0xa0, 0x00, 0x00}, Symlink.Bytes())
	s.Equal([]byte{0x00, 0xe0, 0x00, 0x00}, Submodule.Bytes())
}

func (s *ModeSuite) TestIsMalformed() {
	s.True(Empty.IsMalformed())
	s.False(Dir.IsMalformed())
	s.False(Regular.IsMalformed())
	s.True(Mode(0o1).IsMalformed())
}

func (s *ModeSuite) TestString() {
	s.Equal("0040000", Dir.String())
	s.Equal("0100644", Regular.String())
	s.Equal("0120000", Symlink.String())
}

func (s *ModeSuite) TestIsRegularAndIsFile() {
	s.True(Regular.IsRegular())
	s.True(Deprecated.IsRegular())
	s.False(Executable.IsRegular())
	s.True(Executable.IsFile())
	s.True(Symlink.IsFile())
	s.False(Dir.IsFile())
	s.False(Submodule.IsFile())
}

func (s *ModeSuite) TestToOSFileMode() {
	m, err := Regular.ToOSFileMode()
	s.NoError(err)
	s.Equal(os.FileMode(0o644), m)

	_, err = Empty.ToOSFileMode()
	s.ErrorContains(err, "malformed")
}
