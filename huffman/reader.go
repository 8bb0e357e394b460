package huffman

import (
	"bytes"
	"fmt"
	"io"

	"github.com/icza/bitio"
	"github.com/xcompress/xcompress"
	"go.uber.org/zap"
)

// A Reader decodes a stream of blocks written by a Writer.
//
// Decoding walks the tree one bit at a time, starting at the root and
// returning to it after each leaf. A block ends when its declared length has
// been produced; the unused bits of its last byte are skipped.
type Reader struct {
	br *bitio.Reader

	tree      *Tree
	node      int32
	remaining uint32

	blocks int
	err    error
	logger *zap.SugaredLogger
}

// NewReader returns a Reader decoding the blocks in src.
func NewReader(src io.Reader) *Reader {
	return &Reader{br: bitio.NewReader(src)}
}

// SetLogger sets the logger used for debug output; nil disables it.
func (r *Reader) SetLogger(logger *zap.SugaredLogger) {
	r.logger = logger
}

// Read decodes up to len(p) bytes into p. It returns io.EOF when the input
// ends cleanly after a block.
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.err != nil {
		return 0, r.err
	}
	for n < len(p) {
		if r.remaining == 0 {
			if n > 0 {
				break
			}
			if r.err = r.nextBlock(); r.err != nil {
				return 0, r.err
			}
			continue
		}

		root := &r.tree.nodes[r.tree.root]
		if root.isLeaf() {
			// A single-symbol block carries no code bits.
			k := min(uint32(len(p)-n), r.remaining)
			for i := range p[n : n+int(k)] {
				p[n+i] = root.value
			}
			n += int(k)
			r.remaining -= k
			continue
		}

		bit, err := r.br.ReadBool()
		if err != nil {
			if err == io.EOF {
				err = fmt.Errorf("%w: stream ends inside a block (%d bytes missing)", xcompress.ErrTruncatedInput, r.remaining)
			}
			r.err = err
			return n, err
		}
		nd := &r.tree.nodes[r.node]
		if bit {
			r.node = nd.right
		} else {
			r.node = nd.left
		}
		if leaf := &r.tree.nodes[r.node]; leaf.isLeaf() {
			p[n] = leaf.value
			n++
			r.remaining--
			r.node = r.tree.root
			if r.remaining == 0 {
				r.br.Align()
			}
		}
	}
	return n, nil
}

// nextBlock reads the header of the next block and builds its tree.
func (r *Reader) nextBlock() error {
	freq, err := ReadFrequencyTable(r.br)
	if err != nil {
		return err
	}
	length, err := ReadUvarint32(r.br)
	if err != nil {
		if err == io.EOF {
			err = fmt.Errorf("%w: stream ends before the block length", xcompress.ErrTruncatedInput)
		}
		return err
	}
	if total := freq.Total(); total != uint64(length) {
		return fmt.Errorf("%w: block length %d but frequencies sum to %d", xcompress.ErrMalformedHeader, length, total)
	}

	r.tree = BuildTree(&freq)
	r.node = r.tree.root
	r.remaining = length
	r.blocks++
	if r.logger != nil {
		r.logger.Debugf("huffman: block %d: %d bytes, %d symbols", r.blocks, length, freq.NonZero())
	}
	return nil
}

// Decode decodes the single block (or sequence of blocks) in src.
func Decode(src []byte) ([]byte, error) {
	return io.ReadAll(NewReader(bytes.NewReader(src)))
}
