package xcompress

import (
	"fmt"
	"slices"
)

const (
	// MaxWindowSize is the largest window whose distances fit in a Match.
	MaxWindowSize = 1 << 15

	// MaxLookaheadSize is the largest lookahead whose lengths fit in a Match.
	MaxLookaheadSize = 1<<16 - 1

	numBuckets = 1 << 16
)

// A SlidingWindow finds back-references for the data in a RingBuffer.
//
// The ring buffer is split at the divider: bytes before it are history that
// may be referenced, bytes from it on are the lookahead still to be encoded.
// Only the last WindowSize bytes of history are searchable. Every searchable
// position is indexed by the two bytes starting there, so a search only
// visits positions that share the lookahead's first two bytes.
type SlidingWindow struct {
	// WindowSize is the maximum distance to look back for a match.
	WindowSize int

	// LookaheadSize is the maximum length of a match.
	LookaheadSize int

	// MinMatchLength is the length a match must exceed to be reported.
	MinMatchLength int

	// MaxCandidates limits how many entries of a bucket are examined,
	// counting back from the most recent; 0 means all of them.
	MaxCandidates int

	buf *RingBuffer

	// divider and offset are indexes into buf; base is the stream position
	// of buf index 0. Buckets hold stream positions, so they stay valid when
	// the owner drops bytes from the front of buf.
	divider int
	offset  int
	base    int

	buckets [][]int
}

// NewSlidingWindow returns a SlidingWindow searching the data in buf.
func NewSlidingWindow(buf *RingBuffer, windowSize, lookaheadSize, minMatchLength int) (*SlidingWindow, error) {
	switch {
	case windowSize < 1 || windowSize > MaxWindowSize:
		return nil, fmt.Errorf("window size %d out of range [1,%d]", windowSize, MaxWindowSize)
	case minMatchLength < 2:
		return nil, fmt.Errorf("minimum match length %d is less than 2", minMatchLength)
	case lookaheadSize < minMatchLength || lookaheadSize > MaxLookaheadSize:
		return nil, fmt.Errorf("lookahead size %d out of range [%d,%d]", lookaheadSize, minMatchLength, MaxLookaheadSize)
	}
	return &SlidingWindow{
		WindowSize:     windowSize,
		LookaheadSize:  lookaheadSize,
		MinMatchLength: minMatchLength,
		buf:            buf,
		buckets:        make([][]int, numBuckets),
	}, nil
}

// Reset clears the index and moves the divider back to the start of buf.
func (s *SlidingWindow) Reset() {
	for i := range s.buckets {
		s.buckets[i] = s.buckets[i][:0]
	}
	s.divider = 0
	s.offset = 0
	s.base = 0
}

// Divider returns the current encode position, as an index into the buffer.
func (s *SlidingWindow) Divider() int { return s.divider }

// Offset returns the index of the oldest searchable byte.
func (s *SlidingWindow) Offset() int { return s.offset }

func (s *SlidingWindow) key(i int) int {
	return int(s.buf.at(i))<<8 | int(s.buf.at(i+1))
}

// SetDivider moves the encode position forward to index. Positions passing
// the divider are added to the index, and positions falling out of the
// window are removed from it.
func (s *SlidingWindow) SetDivider(index int) error {
	if index < s.divider || index >= s.buf.Len() {
		return fmt.Errorf("%w: divider %d outside [%d,%d)", ErrCapacityExceeded, index, s.divider, s.buf.Len())
	}
	oldDivider, oldOffset := s.divider, s.offset
	s.divider = index
	s.offset = max(oldOffset, index-s.WindowSize)

	for i := oldDivider; i < s.divider; i++ {
		k := s.key(i)
		s.buckets[k] = append(s.buckets[k], s.base+i)
	}
	for i := oldOffset; i < s.offset; i++ {
		s.remove(s.key(i), s.base+i)
	}
	return nil
}

func (s *SlidingWindow) remove(k, pos int) {
	b := s.buckets[k]
	// Positions leave the window in the order they entered, so the entry
	// is nearly always at the front.
	if len(b) > 0 && b[0] == pos {
		s.buckets[k] = b[1:]
		return
	}
	if i := slices.Index(b, pos); i >= 0 {
		s.buckets[k] = slices.Delete(b, i, i+1)
	}
}

// Rebase tells s that the owner is about to drop n bytes from the front of
// the buffer. It must be called before the bytes are dropped, and n may not
// pass the divider. Positions among the dropped bytes that are still in the
// window are removed from the index.
func (s *SlidingWindow) Rebase(n int) error {
	if n < 0 || n > s.divider {
		return fmt.Errorf("%w: rebasing by %d with divider %d", ErrCapacityExceeded, n, s.divider)
	}
	for i := s.offset; i < n; i++ {
		s.remove(s.key(i), s.base+i)
	}
	s.divider -= n
	s.offset = max(s.offset, n) - n
	s.base += n
	return nil
}

// FindMatch looks for the longest match for the data at the divider. It
// reports false if there is none longer than MinMatchLength. Among matches
// of equal length, the oldest wins.
//
// A match may run past the divider into the lookahead itself; the decoder
// copies byte by byte, so such overlapping references replay correctly.
func (s *SlidingWindow) FindMatch() (Match, bool) {
	lookaheadEnd := min(s.LookaheadSize, s.buf.Len()-s.divider)
	if lookaheadEnd < s.MinMatchLength {
		return Match{}, false
	}

	candidates := s.buckets[s.key(s.divider)]
	if s.MaxCandidates > 0 && len(candidates) > s.MaxCandidates {
		candidates = candidates[len(candidates)-s.MaxCandidates:]
	}

	bestPos, bestLen := 0, 0
	for _, c := range candidates {
		p := c - s.base
		// The bucket key already matched the first two bytes.
		i := 2
		for i < lookaheadEnd && s.buf.at(s.divider+i) == s.buf.at(p+i) {
			i++
		}
		if i > bestLen {
			bestPos, bestLen = p, i
			if i == lookaheadEnd {
				break
			}
		}
	}

	if bestLen > s.MinMatchLength {
		return Match{
			Distance: uint16(s.divider - bestPos),
			Length:   uint16(bestLen),
		}, true
	}
	return Match{}, false
}
