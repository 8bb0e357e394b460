package lz

import (
	"bufio"
	"fmt"
	"io"

	"github.com/xcompress/xcompress"
	"go.uber.org/zap"
)

type byteReader interface {
	io.Reader
	io.ByteReader
}

// A TokenReader parses a framed LZ token stream.
type TokenReader struct {
	r byteReader

	// remaining is the number of entries left in the current block.
	remaining int
	match     bool
	buf       [xcompress.MatchSize]byte
}

// NewTokenReader returns a TokenReader reading from src.
func NewTokenReader(src io.Reader) *TokenReader {
	br, ok := src.(byteReader)
	if !ok {
		br = bufio.NewReader(src)
	}
	return &TokenReader{r: br}
}

// ReadToken returns the next token. At the end of the stream it returns
// io.EOF, but only if the stream ends on a block boundary.
func (t *TokenReader) ReadToken() (xcompress.Token, error) {
	if t.remaining == 0 {
		h, err := t.r.ReadByte()
		if err != nil {
			return xcompress.Token{}, err
		}
		n := int(int8(h))
		switch {
		case n == 0:
			return xcompress.Token{}, fmt.Errorf("%w: zero entry count", xcompress.ErrMalformedHeader)
		case n < -MaxEntries:
			return xcompress.Token{}, fmt.Errorf("%w: entry count %d", xcompress.ErrMalformedHeader, n)
		case n < 0:
			t.match = true
			t.remaining = -n
		default:
			t.match = false
			t.remaining = n
		}
	}

	if !t.match {
		b, err := t.r.ReadByte()
		if err != nil {
			return xcompress.Token{}, truncated(err, "literal")
		}
		t.remaining--
		return xcompress.LiteralToken(b), nil
	}

	if _, err := io.ReadFull(t.r, t.buf[:]); err != nil {
		return xcompress.Token{}, truncated(err, "match")
	}
	t.remaining--
	m := xcompress.ParseMatch(t.buf[:])
	if m.Length == 0 {
		return xcompress.Token{}, fmt.Errorf("%w: zero-length match", xcompress.ErrInvalidBackReference)
	}
	return xcompress.MatchToken(m), nil
}

// truncated converts an end-of-input error in the middle of a structure into
// ErrTruncatedInput. Other errors are returned unchanged.
func truncated(err error, what string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: stream ends inside a %s", xcompress.ErrTruncatedInput, what)
	}
	return err
}

// A Decoder replays an LZ token stream, reconstructing the original data.
type Decoder struct {
	tokens *TokenReader
	window *xcompress.RingBuffer
	logger *zap.SugaredLogger
}

// NewDecoder returns a Decoder reading a framed token stream from src.
// windowSize must be at least the window size used by the encoder.
func NewDecoder(src io.Reader, windowSize int) (*Decoder, error) {
	window, err := xcompress.NewRingBuffer(windowSize)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		tokens: NewTokenReader(src),
		window: window,
	}, nil
}

// SetLogger sets the logger used for debug output; nil disables it.
func (d *Decoder) SetLogger(logger *zap.SugaredLogger) {
	d.logger = logger
}

// Decode writes the decoded data to dst.
func (d *Decoder) Decode(dst io.Writer) error {
	bw := bufio.NewWriter(dst)
	var written int64
	for {
		tok, err := d.tokens.ReadToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if !tok.IsMatch() {
			if err := d.emit(bw, tok.Literal); err != nil {
				return err
			}
			written++
			continue
		}

		dist := int(tok.Match.Distance)
		if dist == 0 || dist > d.window.Len() {
			return fmt.Errorf("%w: distance %d with %d bytes of history", xcompress.ErrInvalidBackReference, dist, d.window.Len())
		}
		// Each byte is appended before the next is read, so a match may
		// copy bytes it has just produced.
		for i := 0; i < int(tok.Match.Length); i++ {
			b, err := d.window.Get(d.window.Len() - dist)
			if err != nil {
				return err
			}
			if err := d.emit(bw, b); err != nil {
				return err
			}
		}
		written += int64(tok.Match.Length)
	}

	if d.logger != nil {
		d.logger.Debugf("lz: decoded %d bytes", written)
	}
	return bw.Flush()
}

func (d *Decoder) emit(bw *bufio.Writer, b byte) error {
	if err := bw.WriteByte(b); err != nil {
		return err
	}
	if d.window.Free() == 0 {
		if err := d.window.Drop(1); err != nil {
			return err
		}
	}
	return d.window.AppendByte(b)
}

// Decompress reverses Compress, reading a framed token stream from src and
// writing the original data to dst.
func Decompress(dst io.Writer, src io.Reader, windowSize int) error {
	d, err := NewDecoder(src, windowSize)
	if err != nil {
		return err
	}
	return d.Decode(dst)
}
