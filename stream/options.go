package stream

import (
	"fmt"
	"io"
	"os"

	"github.com/xcompress/xcompress/huffman"
	"github.com/xcompress/xcompress/lz"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options configures both stages of the pipeline.
type Options struct {
	WindowSize     int `yaml:"windowSize"`
	LookaheadSize  int `yaml:"lookaheadSize"`
	MinMatchLength int `yaml:"minMatchLength"`
	BufferSize     int `yaml:"bufferSize"`
	ReadChunkSize  int `yaml:"readChunkSize"`
	ChunkSize      int `yaml:"chunkSize"`
	MaxCandidates  int `yaml:"maxCandidates"`

	// BlockSize is the amount of LZ output coded with one Huffman tree.
	BlockSize int `yaml:"blockSize"`

	// Logger receives debug output from every stage. It may be nil.
	Logger *zap.SugaredLogger `yaml:"-"`
}

// DefaultOptions returns the default options.
func DefaultOptions() *Options {
	cfg := lz.DefaultConfig()
	return &Options{
		WindowSize:     cfg.WindowSize,
		LookaheadSize:  cfg.LookaheadSize,
		MinMatchLength: cfg.MinMatchLength,
		BufferSize:     cfg.BufferSize,
		ReadChunkSize:  cfg.ReadChunkSize,
		ChunkSize:      cfg.ChunkSize,
		MaxCandidates:  cfg.MaxCandidates,
		BlockSize:      huffman.DefaultBlockSize,
	}
}

// LZConfig returns the parameters of the LZ stage.
func (o *Options) LZConfig() lz.Config {
	return lz.Config{
		WindowSize:     o.WindowSize,
		LookaheadSize:  o.LookaheadSize,
		MinMatchLength: o.MinMatchLength,
		BufferSize:     o.BufferSize,
		ReadChunkSize:  o.ReadChunkSize,
		ChunkSize:      o.ChunkSize,
		MaxCandidates:  o.MaxCandidates,
	}
}

// Validate reports the first invalid option.
func (o *Options) Validate() error {
	if err := o.LZConfig().Validate(); err != nil {
		return err
	}
	if o.BlockSize < 1 || o.BlockSize > huffman.MaxBlockSize {
		return fmt.Errorf("block size %d out of range [1,%d]", o.BlockSize, huffman.MaxBlockSize)
	}
	return nil
}

// LoadOptions reads options from a YAML file. Fields missing from the file
// keep their default values; unknown fields are an error.
func LoadOptions(path string) (*Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts := DefaultOptions()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}
