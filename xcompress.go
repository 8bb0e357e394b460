// Package xcompress is the shared core of a two-stage lossless compressor.
//
// Compression happens in two logically separate steps:
//   - An LZ77 stage that looks for repeated sequences of bytes in a sliding
//     window and replaces them with back-references
//   - A Huffman stage that entropy-codes the framed token stream in blocks
//
// This package holds the vocabulary the stages share (Match, Token,
// TokenWriter and the error taxonomy) together with the history ring buffer
// and the sliding-window match finder. The lz and huffman subpackages build
// the two stages on top of it, and the stream package composes them.
package xcompress

import "encoding/binary"

// MatchSize is the number of bytes a serialized Match occupies.
const MatchSize = 4

// A Match is a back-reference: copy Length bytes starting Distance bytes back
// in the already produced output.
type Match struct {
	Distance uint16 // how far back in the stream to copy from; never 0
	Length   uint16 // the number of bytes in the matched string
}

// AppendMatch appends the big-endian serialized form of m to dst.
func AppendMatch(dst []byte, m Match) []byte {
	dst = binary.BigEndian.AppendUint16(dst, m.Distance)
	return binary.BigEndian.AppendUint16(dst, m.Length)
}

// ParseMatch decodes a Match from the first MatchSize bytes of src.
func ParseMatch(src []byte) Match {
	return Match{
		Distance: binary.BigEndian.Uint16(src),
		Length:   binary.BigEndian.Uint16(src[2:]),
	}
}

// A Token is one unit of LZ output: either a literal byte or a Match.
// A Token whose Match.Length is 0 is a literal.
type Token struct {
	Literal byte
	Match   Match
}

// LiteralToken returns a Token for the literal byte b.
func LiteralToken(b byte) Token {
	return Token{Literal: b}
}

// MatchToken returns a Token for the back-reference m.
func MatchToken(m Match) Token {
	return Token{Match: m}
}

// IsMatch reports whether t is a back-reference.
func (t Token) IsMatch() bool {
	return t.Match.Length > 0
}

// A TokenWriter consumes the token sequence produced by the LZ stage.
type TokenWriter interface {
	WriteLiteral(b byte) error
	WriteMatch(m Match) error
}

// WriteToken writes t to w using the method matching its kind.
func WriteToken(w TokenWriter, t Token) error {
	if t.IsMatch() {
		return w.WriteMatch(t.Match)
	}
	return w.WriteLiteral(t.Literal)
}

// TokenSlice is a TokenWriter that collects tokens in memory.
type TokenSlice []Token

func (s *TokenSlice) WriteLiteral(b byte) error {
	*s = append(*s, LiteralToken(b))
	return nil
}

func (s *TokenSlice) WriteMatch(m Match) error {
	*s = append(*s, MatchToken(m))
	return nil
}
