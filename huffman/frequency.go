package huffman

import (
	"fmt"
	"io"

	"github.com/xcompress/xcompress"
)

// A FrequencyTable counts how often each byte value occurs in one block.
type FrequencyTable [256]uint32

// Count returns the frequency table of data.
func Count(data []byte) FrequencyTable {
	var f FrequencyTable
	f.Add(data)
	return f
}

// Add counts the bytes of data into f.
func (f *FrequencyTable) Add(data []byte) {
	for _, b := range data {
		f[b]++
	}
}

// NonZero returns the number of byte values that occur at least once.
func (f *FrequencyTable) NonZero() int {
	n := 0
	for _, c := range f {
		if c != 0 {
			n++
		}
	}
	return n
}

// Total returns the sum of all frequencies.
func (f *FrequencyTable) Total() uint64 {
	var t uint64
	for _, c := range f {
		t += uint64(c)
	}
	return t
}

// AppendTo appends the serialized form of f to dst: the number of byte
// values present, then each value with its frequency, in ascending order.
func (f *FrequencyTable) AppendTo(dst []byte) []byte {
	dst = AppendUvarint32(dst, uint32(f.NonZero()))
	for i, c := range f {
		if c != 0 {
			dst = append(dst, byte(i))
			dst = AppendUvarint32(dst, c)
		}
	}
	return dst
}

// ReadFrequencyTable reads a table written by AppendTo. It returns io.EOF if
// r is exhausted before the table starts.
func ReadFrequencyTable(r io.ByteReader) (FrequencyTable, error) {
	var f FrequencyTable
	n, err := ReadUvarint32(r)
	if err != nil {
		return f, err
	}
	if n > 256 {
		return f, fmt.Errorf("%w: frequency table with %d entries", xcompress.ErrMalformedHeader, n)
	}
	for i := uint32(0); i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return f, tableErr(err)
		}
		c, err := ReadUvarint32(r)
		if err != nil {
			return f, tableErr(err)
		}
		switch {
		case c == 0:
			return f, fmt.Errorf("%w: zero frequency for byte %#02x", xcompress.ErrMalformedHeader, b)
		case f[b] != 0:
			return f, fmt.Errorf("%w: byte %#02x listed twice", xcompress.ErrMalformedHeader, b)
		}
		f[b] = c
	}
	return f, nil
}

func tableErr(err error) error {
	if err == io.EOF {
		return fmt.Errorf("%w: stream ends inside a frequency table", xcompress.ErrTruncatedInput)
	}
	return err
}
