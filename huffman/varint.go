package huffman

import (
	"fmt"
	"io"

	"github.com/xcompress/xcompress"
)

// MaxVarintLen32 is the maximum length of a varint-encoded uint32.
const MaxVarintLen32 = 5

// AppendUvarint32 appends x to dst in varint format: groups of 7 bits, least
// significant group first, with the top bit of each byte set if another
// group follows.
func AppendUvarint32(dst []byte, x uint32) []byte {
	for x >= 0x80 {
		dst = append(dst, byte(x)|0x80)
		x >>= 7
	}
	return append(dst, byte(x))
}

// ReadUvarint32 reads a varint-encoded uint32 from r. It returns io.EOF only
// if r is exhausted before the first byte.
func ReadUvarint32(r io.ByteReader) (uint32, error) {
	var x uint32
	var s uint
	for i := 0; i < MaxVarintLen32; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if i > 0 && err == io.EOF {
				err = fmt.Errorf("%w: stream ends inside a varint", xcompress.ErrTruncatedInput)
			}
			return 0, err
		}
		if i == MaxVarintLen32-1 && b > 0x0f {
			return 0, fmt.Errorf("%w: varint overflows 32 bits", xcompress.ErrMalformedHeader)
		}
		x |= uint32(b&0x7f) << s
		if b < 0x80 {
			return x, nil
		}
		s += 7
	}
	// The last group is checked above, so this is unreachable.
	return 0, fmt.Errorf("%w: varint too long", xcompress.ErrMalformedHeader)
}
