package lz

import (
	"fmt"
	"io"

	"github.com/xcompress/xcompress"
	"go.uber.org/zap"
)

// An Encoder runs the LZ stage over an input stream, turning it into a
// sequence of literals and matches.
//
// Input is kept in a ring buffer holding the search window, the lookahead
// and some room to read ahead. When the lookahead runs short, the oldest
// bytes (which have already left the window) are dropped and the freed space
// is refilled from the input.
type Encoder struct {
	src    io.Reader
	cfg    Config
	ring   *xcompress.RingBuffer
	window *xcompress.SlidingWindow

	// chunk is the scratch buffer input is read into before it is copied
	// into the ring; it is reused for every refill.
	chunk []byte
	eof   bool

	bytesRead int64
	logger    *zap.SugaredLogger
}

// NewEncoder returns an Encoder reading from src.
func NewEncoder(src io.Reader, cfg Config) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ring, err := xcompress.NewRingBuffer(cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	window, err := xcompress.NewSlidingWindow(ring, cfg.WindowSize, cfg.LookaheadSize, cfg.MinMatchLength)
	if err != nil {
		return nil, err
	}
	window.MaxCandidates = cfg.MaxCandidates
	return &Encoder{
		src:    src,
		cfg:    cfg,
		ring:   ring,
		window: window,
		chunk:  make([]byte, cfg.ReadChunkSize),
	}, nil
}

// SetLogger sets the logger used for debug output; nil disables it.
func (e *Encoder) SetLogger(logger *zap.SugaredLogger) {
	e.logger = logger
}

func (e *Encoder) logf(format string, v ...any) {
	if e.logger != nil {
		e.logger.Debugf(format, v...)
	}
}

// BytesRead returns how many bytes have been read from the input so far.
func (e *Encoder) BytesRead() int64 {
	return e.bytesRead
}

// Encode reads the whole input and writes the resulting tokens to w.
func (e *Encoder) Encode(w xcompress.TokenWriter) error {
	if err := e.fill(); err != nil {
		return err
	}

	pos := 0
	for {
		if !e.eof && e.ring.Len()-pos < e.cfg.LookaheadSize {
			var err error
			if pos, err = e.refill(pos); err != nil {
				return err
			}
		}
		if pos >= e.ring.Len() {
			if e.eof {
				break
			}
			return fmt.Errorf("%w: no room to read more input at position %d", xcompress.ErrCapacityExceeded, pos)
		}
		if err := e.window.SetDivider(pos); err != nil {
			return err
		}

		if m, ok := e.window.FindMatch(); ok {
			if err := w.WriteMatch(m); err != nil {
				return err
			}
			pos += int(m.Length)
			continue
		}

		b, err := e.ring.Get(pos)
		if err != nil {
			return err
		}
		if err := w.WriteLiteral(b); err != nil {
			return err
		}
		pos++
	}

	e.logf("lz: encoded %d bytes", e.bytesRead)
	return nil
}

// refill drops history that the search no longer needs to make room for
// another chunk of input, and returns pos adjusted for the dropped bytes.
// Only bytes more than WindowSize behind pos, and behind the window's
// divider, are dropped.
func (e *Encoder) refill(pos int) (int, error) {
	if e.ring.Free() < e.cfg.ReadChunkSize {
		n := min(e.cfg.ReadChunkSize, max(0, pos-e.cfg.WindowSize), e.window.Divider())
		if err := e.window.Rebase(n); err != nil {
			return pos, err
		}
		if err := e.ring.Drop(n); err != nil {
			return pos, err
		}
		pos -= n
		e.logf("lz: dropped %d bytes of history", n)
	}
	return pos, e.fill()
}

// fill reads input until the ring buffer is full or the input is exhausted.
func (e *Encoder) fill() error {
	for !e.eof && e.ring.Free() > 0 {
		n, err := e.src.Read(e.chunk[:min(len(e.chunk), e.ring.Free())])
		if n > 0 {
			if aerr := e.ring.Append(e.chunk[:n]); aerr != nil {
				return aerr
			}
			e.bytesRead += int64(n)
		}
		if err == io.EOF {
			e.eof = true
		} else if err != nil {
			return err
		}
	}
	e.logf("lz: buffered %d bytes, %d read so far", e.ring.Len(), e.bytesRead)
	return nil
}

// Compress runs the LZ stage over src and writes the framed token stream to
// dst.
func Compress(dst io.Writer, src io.Reader, cfg Config) error {
	e, err := NewEncoder(src, cfg)
	if err != nil {
		return err
	}
	f := NewFramer(dst, cfg.ChunkSize)
	if err := e.Encode(f); err != nil {
		return err
	}
	return f.Close()
}
