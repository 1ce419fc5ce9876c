package object

import "bytes"

// SignatureType identifies the cryptographic format of a signature block
// embedded at the end of a tag's message.
type SignatureType int8

const (
	SignatureTypeUnknown SignatureType = iota
	SignatureTypeOpenPGP
	SignatureTypeX509
	SignatureTypeSSH
)

func (t SignatureType) String() string {
	switch t {
	case SignatureTypeOpenPGP:
		return "openpgp"
	case SignatureTypeX509:
		return "x509"
	case SignatureTypeSSH:
		return "ssh"
	default:
		return "unknown"
	}
}

type signatureFormat [][]byte

var (
	openPGPSignatureFormat = signatureFormat{
		[]byte("-----BEGIN PGP SIGNATURE-----"),
		[]byte("-----BEGIN PGP MESSAGE-----"),
	}
	x509SignatureFormat = signatureFormat{
		[]byte("-----BEGIN CERTIFICATE-----"),
		[]byte("-----BEGIN SIGNED MESSAGE-----"),
	}
	sshSignatureFormat = signatureFormat{
		[]byte("-----BEGIN SSH SIGNATURE-----"),
	}
)

var knownSignatureFormats = map[SignatureType]signatureFormat{
	SignatureTypeOpenPGP: openPGPSignatureFormat,
	SignatureTypeX509:    x509SignatureFormat,
	SignatureTypeSSH:     sshSignatureFormat,
}

// DetectSignatureType determines the signature format a block of bytes
// starts with.
func DetectSignatureType(signature []byte) SignatureType {
	return typeForSignature(signature)
}

func typeForSignature(b []byte) SignatureType {
	for t, formats := range knownSignatureFormats {
		for _, begin := range formats {
			if bytes.HasPrefix(b, begin) {
				return t
			}
		}
	}
	return SignatureTypeUnknown
}

// parseSignedBytes returns the byte offset of the last signature block
// found in b, and that block's SignatureType. It returns -1 if no
// signature block is found.
//
// When multiple signature blocks are present, the last one's offset is
// returned; everything from that offset on is the signature, everything
// before it the signed message. This matches git's own
// gpg-interface.c:parse_signed_buffer().
func parseSignedBytes(b []byte) (int, SignatureType) {
	n, match := 0, -1
	var t SignatureType
	for n < len(b) {
		rest := b[n:]
		if st := typeForSignature(rest); st != SignatureTypeUnknown {
			match = n
			t = st
		}
		eol := bytes.IndexByte(rest, '\n')
		if eol < 0 {
			break
		}
		n += eol + 1
	}
	return match, t
}
