// Command xcompress compresses and decompresses files.
//
// Usage:
//
//	xcompress -c [flags] input output
//	xcompress -d [flags] input output
//	xcompress -tokens [flags] input [output]
//
// With -stage lz or -stage huffman, -c and -d run only that stage of the
// pipeline.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/xxHash/xxHash32"
	"github.com/xcompress/xcompress"
	"github.com/xcompress/xcompress/huffman"
	"github.com/xcompress/xcompress/lz"
	"github.com/xcompress/xcompress/stream"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var errUsage = errors.New("usage")

const (
	stageBoth    = "both"
	stageLZ      = "lz"
	stageHuffman = "huffman"
)

type command struct {
	compress   bool
	decompress bool
	help       bool
	tokens     bool
	verify     bool
	verbose    bool
	config     string
	stage      string
	args       []string
}

func parseArgs(args []string, stderr io.Writer) (*command, error) {
	var c command
	fs := flag.NewFlagSet("xcompress", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&c.compress, "c", false, "compress input into output")
	fs.BoolVar(&c.decompress, "d", false, "decompress input into output")
	fs.BoolVar(&c.help, "h", false, "print this help")
	fs.BoolVar(&c.tokens, "tokens", false, "print the LZ tokens of input as text")
	fs.BoolVar(&c.verify, "verify", false, "after compressing, decompress the output and compare checksums")
	fs.BoolVar(&c.verbose, "verbose", false, "log debug output")
	fs.StringVar(&c.config, "config", "", "YAML `file` with compression options")
	fs.StringVar(&c.stage, "stage", stageBoth, "pipeline `stage` to run with -c or -d: both, lz or huffman")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: xcompress -c|-d [-stage both|lz|huffman] [flags] input output")
		fmt.Fprintln(stderr, "       xcompress -tokens [flags] input [output]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return &command{help: true}, nil
		}
		return nil, errUsage
	}
	c.args = fs.Args()
	if c.help {
		fs.Usage()
		return &c, nil
	}

	modes := 0
	for _, m := range []bool{c.compress, c.decompress, c.tokens} {
		if m {
			modes++
		}
	}
	switch {
	case c.stage != stageBoth && c.stage != stageLZ && c.stage != stageHuffman:
		fmt.Fprintf(stderr, "Unknown stage %q.\n", c.stage)
	case modes != 1:
		fmt.Fprintln(stderr, "You must specify one of -c, -d or -tokens (or -h).")
	case c.tokens && (len(c.args) < 1 || len(c.args) > 2):
		fmt.Fprintln(stderr, "-tokens takes an input file and an optional output file.")
	case !c.tokens && len(c.args) != 2:
		fmt.Fprintln(stderr, "You must specify an input and an output file.")
	default:
		return &c, nil
	}
	fs.Usage()
	return nil, errUsage
}

func newLogger(stderr io.Writer, verbose bool) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	level := zapcore.InfoLevel
	if verbose {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		level = zapcore.DebugLevel
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(stderr), level))
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the exit status: 0 on success, 1
// if the operation failed and 2 for a usage error.
func run(args []string, stdout, stderr io.Writer) int {
	c, err := parseArgs(args, stderr)
	if err != nil {
		return 2
	}
	if c.help {
		return 0
	}

	logger := newLogger(stderr, c.verbose)
	defer logger.Sync()
	log := logger.Sugar()

	opts := stream.DefaultOptions()
	if c.config != "" {
		if opts, err = stream.LoadOptions(c.config); err != nil {
			log.Errorw("loading options", "error", err)
			return 1
		}
	}
	if c.verbose {
		opts.Logger = log
	}

	switch {
	case c.compress:
		err = compressFile(c.args[0], c.args[1], c.stage, opts, c.verify, log)
	case c.decompress:
		err = decompressFile(c.args[0], c.args[1], c.stage, opts)
	case c.tokens:
		err = printTokens(c.args, stdout, opts)
	}
	if err != nil {
		log.Errorw("failed", "input", c.args[0], "error", err)
		return 1
	}
	return 0
}

// convert opens input, creates output and runs f between them. The output is
// removed if f fails.
func convert(input, output string, f func(dst io.Writer, src io.Reader) error) (err error) {
	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(output)
		}
	}()
	return f(out, in)
}

// compress writes src to dst in the format of the given stage.
func compress(stage string, dst io.Writer, src io.Reader, opts *stream.Options) error {
	switch stage {
	case stageLZ:
		e, err := lz.NewEncoder(src, opts.LZConfig())
		if err != nil {
			return err
		}
		e.SetLogger(opts.Logger)
		f := lz.NewFramer(dst, opts.ChunkSize)
		if err := e.Encode(f); err != nil {
			return err
		}
		return f.Close()
	case stageHuffman:
		hw := huffman.NewWriter(dst, opts.BlockSize)
		hw.SetLogger(opts.Logger)
		if _, err := io.Copy(hw, src); err != nil {
			return err
		}
		return hw.Close()
	default:
		return stream.Compress(dst, src, opts)
	}
}

// decompress reverses compress.
func decompress(stage string, dst io.Writer, src io.Reader, opts *stream.Options) error {
	switch stage {
	case stageLZ:
		d, err := lz.NewDecoder(src, opts.WindowSize)
		if err != nil {
			return err
		}
		d.SetLogger(opts.Logger)
		return d.Decode(dst)
	case stageHuffman:
		hr := huffman.NewReader(src)
		hr.SetLogger(opts.Logger)
		_, err := io.Copy(dst, hr)
		return err
	default:
		return stream.Decompress(dst, src, opts)
	}
}

func compressFile(input, output, stage string, opts *stream.Options, verify bool, log *zap.SugaredLogger) error {
	sum := xxHash32.New(0)
	var size int64
	err := convert(input, output, func(dst io.Writer, src io.Reader) error {
		cw := &countingWriter{w: dst}
		if err := compress(stage, cw, io.TeeReader(src, sum), opts); err != nil {
			return err
		}
		size = cw.n
		return nil
	})
	if err != nil {
		return err
	}
	log.Debugw("compressed", "input", input, "output", output, "stage", stage, "size", size)
	if !verify {
		return nil
	}

	f, err := os.Open(output)
	if err != nil {
		return err
	}
	defer f.Close()
	check := xxHash32.New(0)
	if err := decompress(stage, check, f, opts); err != nil {
		return fmt.Errorf("verifying %s: %w", output, err)
	}
	if got, want := check.Sum32(), sum.Sum32(); got != want {
		return fmt.Errorf("verifying %s: checksum %08x, want %08x", output, got, want)
	}
	log.Infow("verified", "output", output, "xxhash32", fmt.Sprintf("%08x", sum.Sum32()))
	return nil
}

func decompressFile(input, output, stage string, opts *stream.Options) error {
	return convert(input, output, func(dst io.Writer, src io.Reader) error {
		return decompress(stage, dst, src, opts)
	})
}

func printTokens(args []string, stdout io.Writer, opts *stream.Options) error {
	write := func(dst io.Writer, src io.Reader) error {
		e, err := lz.NewEncoder(src, opts.LZConfig())
		if err != nil {
			return err
		}
		e.SetLogger(opts.Logger)
		bw := bufio.NewWriter(dst)
		if err := e.Encode(xcompress.TextEncoder{W: bw}); err != nil {
			return err
		}
		return bw.Flush()
	}
	if len(args) == 2 {
		return convert(args[0], args[1], write)
	}
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()
	return write(stdout, in)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
