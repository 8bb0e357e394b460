package lz

import (
	"fmt"

	"github.com/xcompress/xcompress"
)

// Default configuration values.
const (
	DefaultWindowSize     = 32768
	DefaultLookaheadSize  = 256
	DefaultMinMatchLength = xcompress.MatchSize + 1
	DefaultBufferSize     = 1 << 20
	DefaultReadChunkSize  = 128 << 10
	DefaultChunkSize      = 64 << 10
)

// Config holds the parameters of the LZ stage. The decoder only needs
// WindowSize, which must be at least as large as the encoder's.
type Config struct {
	// WindowSize is how far back matches may reach. It must be a power of two
	// no larger than xcompress.MaxWindowSize.
	WindowSize int

	// LookaheadSize is the maximum match length.
	LookaheadSize int

	// MinMatchLength is the length a match must exceed to be used.
	MinMatchLength int

	// BufferSize is the capacity of the encoder's ring buffer. It must be a
	// power of two, large enough for the window, the lookahead and one read
	// chunk.
	BufferSize int

	// ReadChunkSize is how much history is dropped (and new input read)
	// each time the encoder runs low on lookahead.
	ReadChunkSize int

	// ChunkSize is the size of the output chunks the Framer releases.
	ChunkSize int

	// MaxCandidates limits the positions examined per search; 0 means
	// unlimited.
	MaxCandidates int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		WindowSize:     DefaultWindowSize,
		LookaheadSize:  DefaultLookaheadSize,
		MinMatchLength: DefaultMinMatchLength,
		BufferSize:     DefaultBufferSize,
		ReadChunkSize:  DefaultReadChunkSize,
		ChunkSize:      DefaultChunkSize,
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Validate checks that c describes a usable encoder and decoder.
func (c Config) Validate() error {
	switch {
	case !isPowerOfTwo(c.WindowSize) || c.WindowSize > xcompress.MaxWindowSize:
		return fmt.Errorf("window size %d must be a power of two no larger than %d", c.WindowSize, xcompress.MaxWindowSize)
	case c.MinMatchLength < 2:
		return fmt.Errorf("minimum match length %d is less than 2", c.MinMatchLength)
	case c.LookaheadSize < c.MinMatchLength || c.LookaheadSize > xcompress.MaxLookaheadSize:
		return fmt.Errorf("lookahead size %d out of range [%d,%d]", c.LookaheadSize, c.MinMatchLength, xcompress.MaxLookaheadSize)
	case c.ReadChunkSize < 1:
		return fmt.Errorf("read chunk size %d is not positive", c.ReadChunkSize)
	case !isPowerOfTwo(c.BufferSize) || c.BufferSize < c.WindowSize+c.LookaheadSize+c.ReadChunkSize:
		return fmt.Errorf("buffer size %d must be a power of two of at least %d", c.BufferSize, c.WindowSize+c.LookaheadSize+c.ReadChunkSize)
	case c.ChunkSize < 1:
		return fmt.Errorf("chunk size %d is not positive", c.ChunkSize)
	case c.MaxCandidates < 0:
		return fmt.Errorf("max candidates %d is negative", c.MaxCandidates)
	}
	return nil
}
