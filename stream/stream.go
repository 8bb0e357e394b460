// Package stream chains the LZ and Huffman stages into a complete
// compressor.
//
// Compressed data is a sequence of Huffman blocks whose decoded contents,
// concatenated, form the LZ token stream. Empty input compresses to empty
// output.
package stream

import (
	"io"

	"github.com/xcompress/xcompress/huffman"
	"github.com/xcompress/xcompress/lz"
)

// Compress reads src until EOF and writes its compressed form to dst. A nil
// opts means DefaultOptions. Neither src nor dst is closed.
func Compress(dst io.Writer, src io.Reader, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	hw := huffman.NewWriter(dst, opts.BlockSize)
	hw.SetLogger(opts.Logger)

	e, err := lz.NewEncoder(src, opts.LZConfig())
	if err != nil {
		return err
	}
	e.SetLogger(opts.Logger)

	f := lz.NewFramer(hw, opts.ChunkSize)
	if err := e.Encode(f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := hw.Close(); err != nil {
		return err
	}

	if opts.Logger != nil {
		opts.Logger.Debugf("stream: compressed %d bytes", e.BytesRead())
	}
	return nil
}

// Decompress reads compressed data from src and writes the original bytes to
// dst. opts must use a window at least as large as the one the data was
// compressed with; a nil opts means DefaultOptions.
func Decompress(dst io.Writer, src io.Reader, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	hr := huffman.NewReader(src)
	hr.SetLogger(opts.Logger)

	d, err := lz.NewDecoder(hr, opts.WindowSize)
	if err != nil {
		return err
	}
	d.SetLogger(opts.Logger)
	return d.Decode(dst)
}
