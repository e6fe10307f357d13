// Package chunk turns a streamed response body into decoded text fragments.
//
// A Decoder yields one fragment per underlying Read. Bytes of a code point
// that straddle two reads are carried over and decoded with the next read,
// so the concatenated fragments always equal a one-shot decode of the body.
package chunk

import (
	"errors"
	"io"
	"iter"
	"mime"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultBufferSize is the read size used when none is configured.
const DefaultBufferSize = 4096

// ReadError wraps a failure of the underlying reader or of the text decoder.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "reading stream: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithEncoding decodes the stream with enc instead of UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(d *Decoder) {
		if enc != nil {
			d.t = enc.NewDecoder()
		}
	}
}

// WithBufferSize sets how many bytes are requested per Read.
func WithBufferSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.buf = make([]byte, n)
		}
	}
}

// Decoder is a lazy, single-pass fragment sequence over an io.Reader.
// It is not safe for concurrent use.
type Decoder struct {
	r       io.Reader
	t       transform.Transformer
	buf     []byte
	dst     []byte
	pending []byte
	done    bool
}

// NewDecoder returns a UTF-8 decoder over r unless an option says otherwise.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		r: r,
		t: unicode.UTF8.NewDecoder(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.buf == nil {
		d.buf = make([]byte, DefaultBufferSize)
	}
	d.t.Reset()
	return d
}

// EncodingFor picks the text encoding named by a Content-Type header value.
// Missing or unknown charsets fall back to UTF-8.
func EncodingFor(contentType string) encoding.Encoding {
	if contentType == "" {
		return unicode.UTF8
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return unicode.UTF8
	}
	charset := params["charset"]
	if charset == "" {
		return unicode.UTF8
	}
	enc, err := htmlindex.Get(charset)
	if err != nil || enc == nil {
		return unicode.UTF8
	}
	return enc
}

// Next performs one Read and returns the text it completed. The fragment may
// be empty when the read ended inside a multi-byte sequence. Next returns
// io.EOF once the stream is exhausted and a *ReadError if the read fails.
func (d *Decoder) Next() (string, error) {
	if d.done {
		return "", io.EOF
	}

	n, err := d.r.Read(d.buf)
	atEOF := false
	if err != nil {
		if !errors.Is(err, io.EOF) {
			d.done = true
			return "", &ReadError{Err: err}
		}
		atEOF = true
	}

	src := append(d.pending, d.buf[:n]...)
	text, rest, err := d.decode(src, atEOF)
	if err != nil {
		d.done = true
		return "", &ReadError{Err: err}
	}
	d.pending = append(d.pending[:0], rest...)

	if atEOF {
		d.done = true
		if text == "" {
			return "", io.EOF
		}
	}
	return text, nil
}

// All ranges over the remaining fragments. Iteration stops after the first
// error, which is yielded with an empty fragment.
func (d *Decoder) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			text, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(text, err) || err != nil {
				return
			}
		}
	}
}

func (d *Decoder) decode(src []byte, atEOF bool) (string, []byte, error) {
	if need := len(src)*3 + 16; cap(d.dst) < need {
		d.dst = make([]byte, need)
	}
	dst := d.dst[:cap(d.dst)]

	var out []byte
	for {
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			if len(src) == 0 {
				return string(out), nil, nil
			}
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
				d.dst = dst
			}
		case errors.Is(err, transform.ErrShortSrc):
			if atEOF {
				return string(out), nil, err
			}
			return string(out), src, nil
		default:
			return string(out), nil, err
		}
	}
}
