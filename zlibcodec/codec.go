// Package zlibcodec provides the streaming inflate entry point the
// packfile decoder relies on: inflate-until-stream-end, reporting
// exactly how many input bytes were consumed, so the caller can
// advance through concatenated pack entries. Grounded on go-git's
// packfile scanner decompression call sites.
package zlibcodec

import (
	"bufio"
	"compress/zlib"
	"io"

	"github.com/go-gitcore/gitcore/giterr"
)

// countingReader tracks how many bytes have been pulled from the
// underlying reader, which is how we learn "bytes consumed from input"
// even though compress/zlib doesn't report it directly.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Inflate decompresses a single zlib stream from r into out, stopping as
// soon as the stream ends (there may be further, unrelated bytes after it
// in r — e.g. the next pack entry). It returns the number of input bytes
// consumed and the number of output bytes written.
//
// Exact consumption requires wrapping r in a bufio.Reader before handing
// it to compress/zlib: flate.NewReader only reads byte-at-a-time from a
// reader that already implements io.ByteReader, so the bufio layer is the
// only buffering happening, and "consumed" is the bytes pulled from r
// minus whatever is left unread in that buffer once the zlib stream ends.
//
// Failure on corrupt input is surfaced as *giterr.CodecError; the
// caller decides whether that is a cache-miss retry opportunity
// (speculative decode) or fatal (explicitly requested object).
func Inflate(r io.Reader, out []byte) (consumed, written int, err error) {
	cr := &countingReader{r: r}
	br := bufio.NewReader(cr)
	zr, err := zlib.NewReader(br)
	if err != nil {
		return 0, 0, &giterr.CodecError{Err: err}
	}
	defer zr.Close()

	written, err = io.ReadFull(zr, out)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return int(cr.n) - br.Buffered(), written, &giterr.CodecError{Err: err}
	}
	// Drain the remainder of the zlib stream (e.g. the Adler-32 trailer)
	// so br.Buffered() reflects the true boundary within r.
	var drain [512]byte
	for {
		if _, derr := zr.Read(drain[:]); derr != nil {
			break
		}
	}
	return int(cr.n) - br.Buffered(), written, nil
}

// InflateAll decompresses an entire zlib stream of unknown output size.
func InflateAll(r io.Reader) (out []byte, consumed int, err error) {
	cr := &countingReader{r: r}
	br := bufio.NewReader(cr)
	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, 0, &giterr.CodecError{Err: err}
	}
	defer zr.Close()

	out, err = io.ReadAll(zr)
	if err != nil {
		return nil, int(cr.n) - br.Buffered(), &giterr.CodecError{Err: err}
	}
	return out, int(cr.n) - br.Buffered(), nil
}

// Deflate compresses src into the zlib format, the inverse operation used
// when encoding loose objects and pack entries.
func Deflate(w io.Writer, src []byte) error {
	zw := zlib.NewWriter(w)
	if _, err := zw.Write(src); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
