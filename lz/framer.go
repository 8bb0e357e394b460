package lz

import (
	"io"

	"github.com/xcompress/xcompress"
)

// MaxEntries is the largest number of tokens in one LZ block.
const MaxEntries = 127

// A Framer is a TokenWriter that groups tokens into LZ blocks and writes them
// to an io.Writer.
//
// Each block is a run of tokens of the same kind, preceded by a signed count
// byte: positive for literals, negative for matches. The count is not known
// until the block ends, so its byte is reserved when the block starts and
// filled in later. Output is collected in fixed-size chunks; a chunk is
// written as soon as it is full, unless it (or an earlier chunk) still holds
// an unfilled count byte.
type Framer struct {
	dst       io.Writer
	chunkSize int

	// chunks holds the chunks not yet written to dst. The last one is being
	// filled. Written chunks go to free to be reused.
	chunks [][]byte
	free   [][]byte

	match bool
	count int

	// headerChunk and headerIndex locate the count byte of the open block.
	headerChunk int
	headerIndex int

	err error
}

// NewFramer returns a Framer writing to dst in chunks of chunkSize bytes.
func NewFramer(dst io.Writer, chunkSize int) *Framer {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Framer{
		dst:       dst,
		chunkSize: chunkSize,
	}
}

// Reset discards any buffered output and prepares f to write to dst.
func (f *Framer) Reset(dst io.Writer) {
	for _, c := range f.chunks {
		f.free = append(f.free, c[:0])
	}
	clear(f.chunks)
	f.chunks = f.chunks[:0]
	f.dst = dst
	f.match = false
	f.count = 0
	f.err = nil
}

func (f *Framer) WriteLiteral(b byte) error {
	if err := f.begin(false); err != nil {
		return err
	}
	f.put(b)
	return f.entryDone()
}

func (f *Framer) WriteMatch(m xcompress.Match) error {
	if err := f.begin(true); err != nil {
		return err
	}
	var buf [xcompress.MatchSize]byte
	for _, b := range xcompress.AppendMatch(buf[:0], m) {
		f.put(b)
	}
	return f.entryDone()
}

// begin makes sure a block of the right kind is open.
func (f *Framer) begin(match bool) error {
	if f.err != nil {
		return f.err
	}
	if f.count > 0 && f.match != match {
		f.finalize()
		if f.err != nil {
			return f.err
		}
	}
	if f.count == 0 {
		f.match = match
		f.put(0)
		f.headerChunk = len(f.chunks) - 1
		f.headerIndex = len(f.chunks[f.headerChunk]) - 1
	}
	return nil
}

func (f *Framer) put(b byte) {
	n := len(f.chunks)
	if n == 0 || len(f.chunks[n-1]) == f.chunkSize {
		f.chunks = append(f.chunks, f.newChunk())
		n++
	}
	f.chunks[n-1] = append(f.chunks[n-1], b)
}

func (f *Framer) newChunk() []byte {
	if n := len(f.free); n > 0 {
		c := f.free[n-1]
		f.free = f.free[:n-1]
		return c
	}
	return make([]byte, 0, f.chunkSize)
}

func (f *Framer) entryDone() error {
	f.count++
	if f.count == MaxEntries {
		f.finalize()
	} else {
		f.release()
	}
	return f.err
}

// finalize fills in the count byte of the open block and closes it.
func (f *Framer) finalize() {
	if f.count == 0 {
		return
	}
	n := int8(f.count)
	if f.match {
		n = -n
	}
	f.chunks[f.headerChunk][f.headerIndex] = byte(n)
	f.count = 0
	f.release()
}

// release writes out the full chunks that precede the open block's count
// byte, or all full chunks if no block is open.
func (f *Framer) release() {
	limit := len(f.chunks)
	if f.count > 0 {
		limit = f.headerChunk
	}
	k := 0
	for k < limit && len(f.chunks[k]) == f.chunkSize {
		f.write(f.chunks[k])
		k++
	}
	if k == 0 {
		return
	}
	n := copy(f.chunks, f.chunks[k:])
	clear(f.chunks[n:])
	f.chunks = f.chunks[:n]
	f.headerChunk -= k
}

func (f *Framer) write(c []byte) {
	if f.err == nil {
		_, f.err = f.dst.Write(c)
	}
	f.free = append(f.free, c[:0])
}

// Close ends the open block and writes out everything that is still
// buffered. The last chunk is written with its used length only. Close does
// not close the underlying writer.
func (f *Framer) Close() error {
	if f.err != nil {
		return f.err
	}
	f.finalize()
	for _, c := range f.chunks {
		f.write(c)
	}
	clear(f.chunks)
	f.chunks = f.chunks[:0]
	return f.err
}
