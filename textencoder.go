package xcompress

import (
	"fmt"
	"io"
)

// A TextEncoder is a TokenWriter that produces a human-readable rendering of
// the LZ stage. Literals are written as-is and matches are replaced with
// <Length,Distance> symbols.
type TextEncoder struct {
	W io.Writer
}

func (t TextEncoder) WriteLiteral(b byte) error {
	_, err := t.W.Write([]byte{b})
	return err
}

func (t TextEncoder) WriteMatch(m Match) error {
	_, err := fmt.Fprintf(t.W, "<%d,%d>", m.Length, m.Distance)
	return err
}
