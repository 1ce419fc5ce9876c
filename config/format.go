package config

import (
	"errors"

	"github.com/go-gitcore/gitcore/hash"
)

// RepositoryFormatVersion is the value of core.repositoryformatversion, as
// defined at https://git-scm.com/docs/repository-version.
type RepositoryFormatVersion string

const (
	// Version0 is every repository format predating the extensions.*
	// mechanism.
	Version0 RepositoryFormatVersion = "0"

	// Version1 additionally requires every extensions.* key present in
	// the config to be understood before the repository can be opened.
	Version1 RepositoryFormatVersion = "1"

	// DefaultRepositoryFormatVersion is assumed when
	// core.repositoryformatversion is unset.
	DefaultRepositoryFormatVersion = Version0
)

// ObjectFormat is the value of extensions.objectformat: the hash
// algorithm a repository's object database uses.
type ObjectFormat string

const (
	// UnsetObjectFormat means extensions.objectformat was not present in
	// the config.
	UnsetObjectFormat ObjectFormat = ""

	// SHA1 selects the SHA-1 object format.
	SHA1 ObjectFormat = "sha1"

	// SHA256 selects the SHA-256 object format.
	SHA256 ObjectFormat = "sha256"

	// DefaultObjectFormat is assumed when extensions.objectformat is
	// unset.
	DefaultObjectFormat = SHA1
)

// ErrInvalidObjectFormat is returned for any extensions.objectformat
// value other than "sha1" or "sha256".
var ErrInvalidObjectFormat = errors.New("config: invalid object format")

// String returns the string representation of the ObjectFormat.
func (f ObjectFormat) String() string {
	return string(f)
}

// Kind maps the config-level ObjectFormat name to the hash.Kind it
// selects. An unset or unrecognized format resolves to the default.
func (f ObjectFormat) Kind() hash.Kind {
	switch f {
	case SHA256:
		return hash.SHA256
	default:
		return hash.SHA1
	}
}

// Validate reports ErrInvalidObjectFormat if f is set to anything other
// than "sha1" or "sha256".
func (f ObjectFormat) Validate() error {
	switch f {
	case UnsetObjectFormat, SHA1, SHA256:
		return nil
	default:
		return ErrInvalidObjectFormat
	}
}

// Size returns the raw hash width, in bytes, of the ObjectFormat.
func (f ObjectFormat) Size() int {
	if f.Kind() == hash.SHA256 {
		return hash.SHA256Size
	}
	return hash.SHA1Size
}

// HexSize returns the hex-encoded hash width, in characters, of the
// ObjectFormat.
func (f ObjectFormat) HexSize() int {
	return f.Size() * 2
}
