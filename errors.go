package xcompress

import "errors"

// Sentinel errors shared by the compression stages. Callers should test for
// them with errors.Is, since they are usually wrapped with extra context.
var (
	// ErrMalformedHeader is returned when a block header holds an illegal
	// value, such as a zero LZ block count or an inconsistent frequency table.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrTruncatedInput is returned when the input ends in the middle of a
	// token, a frequency table, or a Huffman bit stream.
	ErrTruncatedInput = errors.New("truncated input")

	// ErrInvalidBackReference is returned when a back-reference points
	// before the start of the decoder's history window.
	ErrInvalidBackReference = errors.New("invalid back-reference")

	// ErrCapacityExceeded is returned when an internal buffer invariant is
	// violated. It indicates a bug or a misconfiguration, not bad input.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)
