package huffman

import (
	"bytes"
	"fmt"
	"io"

	"github.com/icza/bitio"
	"go.uber.org/zap"
)

const (
	// DefaultBlockSize is the default amount of input coded with one tree.
	DefaultBlockSize = 16 << 20

	// MaxBlockSize is the largest block size a Writer accepts.
	MaxBlockSize = 1 << 30
)

// A Writer Huffman-codes the data written to it, one block at a time.
//
// Each block is written as its frequency table, its length as a varint, and
// the packed codes of its bytes. The codes are packed most significant bit
// first, and the last byte of a block is padded with zero bits.
type Writer struct {
	bw        *bitio.Writer
	blockSize int
	buf       []byte
	header    []byte
	blocks    int
	err       error
	logger    *zap.SugaredLogger
}

// NewWriter returns a Writer that codes blocks of blockSize bytes and writes
// them to dst. Values of blockSize outside [1, MaxBlockSize] are replaced by
// DefaultBlockSize.
func NewWriter(dst io.Writer, blockSize int) *Writer {
	if blockSize < 1 || blockSize > MaxBlockSize {
		blockSize = DefaultBlockSize
	}
	return &Writer{
		bw:        bitio.NewWriter(dst),
		blockSize: blockSize,
	}
}

// SetLogger sets the logger used for debug output; nil disables it.
func (w *Writer) SetLogger(logger *zap.SugaredLogger) {
	w.logger = logger
}

// Write buffers p, coding a block each time blockSize bytes have
// accumulated.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.buf == nil {
		w.buf = make([]byte, 0, min(w.blockSize, 64<<10))
	}
	for len(p) > 0 {
		k := min(len(p), w.blockSize-len(w.buf))
		w.buf = append(w.buf, p[:k]...)
		p = p[k:]
		n += k
		if len(w.buf) == w.blockSize {
			if w.err = w.writeBlock(w.buf); w.err != nil {
				return n, w.err
			}
			w.buf = w.buf[:0]
		}
	}
	return n, nil
}

// Close codes any buffered data as a final, shorter block and flushes the
// output. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if len(w.buf) > 0 {
		if w.err = w.writeBlock(w.buf); w.err != nil {
			return w.err
		}
		w.buf = w.buf[:0]
	}
	w.err = w.bw.Close()
	if w.logger != nil {
		w.logger.Debugf("huffman: wrote %d blocks", w.blocks)
	}
	return w.err
}

func (w *Writer) writeBlock(block []byte) error {
	freq := Count(block)
	codes, err := BuildTree(&freq).Codes()
	if err != nil {
		return err
	}

	w.header = freq.AppendTo(w.header[:0])
	w.header = AppendUvarint32(w.header, uint32(len(block)))
	if _, err := w.bw.Write(w.header); err != nil {
		return err
	}

	for _, b := range block {
		c := codes[b]
		if c.Len == 0 {
			continue
		}
		if err := w.bw.WriteBits(c.Bits, c.Len); err != nil {
			return err
		}
	}
	if _, err := w.bw.Align(); err != nil {
		return err
	}

	w.blocks++
	if w.logger != nil {
		w.logger.Debugf("huffman: block %d: %d bytes, %d symbols, %d header bytes", w.blocks, len(block), freq.NonZero(), len(w.header))
	}
	return nil
}

// Encode Huffman-codes data as a single block and returns the result.
func Encode(data []byte) ([]byte, error) {
	if len(data) > MaxBlockSize {
		return nil, fmt.Errorf("block of %d bytes exceeds %d", len(data), MaxBlockSize)
	}
	b := new(bytes.Buffer)
	w := NewWriter(b, max(len(data), 1))
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
