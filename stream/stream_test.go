package stream

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pierrec/xxHash/xxHash32"
	"github.com/xcompress/xcompress"
	"github.com/xcompress/xcompress/huffman"
	"go.uber.org/zap/zaptest"
)

var words = strings.Fields(`of the and to in a is that for it as was with be by on
	not he this are or his from at which but have an they you were their one all
	we can her has there been if more when will would who so no light colours
	rays refraction glass prism experiment white red violet`)

// textCorpus generates n bytes of word salad, which compresses about as well
// as English text.
func textCorpus(n int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	b := make([]byte, 0, n+16)
	for len(b) < n {
		b = append(b, words[rng.Intn(len(words))]...)
		if rng.Intn(12) == 0 {
			b = append(b, ".\n"...)
		} else {
			b = append(b, ' ')
		}
	}
	return b[:n]
}

func smallOptions() *Options {
	return &Options{
		WindowSize:     64,
		LookaheadSize:  16,
		MinMatchLength: 4,
		BufferSize:     256,
		ReadChunkSize:  64,
		ChunkSize:      7,
		BlockSize:      100,
	}
}

func test(t *testing.T, data []byte, opts *Options) []byte {
	t.Helper()
	compressed := new(bytes.Buffer)
	if err := Compress(compressed, bytes.NewReader(data), opts); err != nil {
		t.Fatal(err)
	}
	decompressed := new(bytes.Buffer)
	if err := Decompress(decompressed, bytes.NewReader(compressed.Bytes()), opts); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed.Bytes(), data) {
		t.Fatalf("decompressed output doesn't match (%d bytes in, %d out)", len(data), decompressed.Len())
	}
	return compressed.Bytes()
}

func TestRoundTrip(t *testing.T) {
	random := make([]byte, 20000)
	rand.New(rand.NewSource(1)).Read(random)
	corpora := map[string][]byte{
		"text":   textCorpus(300000, 2),
		"random": random,
		"zeros":  make([]byte, 100000),
		"short":  []byte("abc"),
	}
	for name, data := range corpora {
		t.Run(name, func(t *testing.T) {
			test(t, data, nil)
			test(t, data, smallOptions())
		})
	}
}

func TestLongRun(t *testing.T) {
	// Longer than the default buffer, so matches keep ending where the
	// buffered input does.
	data := make([]byte, 2<<20)
	rand.New(rand.NewSource(8)).Read(data[:255])
	test(t, data, nil)

	opts := smallOptions()
	opts.LookaheadSize = 64
	opts.MinMatchLength = 2
	opts.ReadChunkSize = 128
	test(t, make([]byte, 50000), opts)
}

func TestCompresses(t *testing.T) {
	data := textCorpus(200000, 3)
	compressed := test(t, data, nil)
	if len(compressed) >= len(data)*3/4 {
		t.Fatalf("text compressed only to %d of %d bytes", len(compressed), len(data))
	}
}

func TestEmptyInput(t *testing.T) {
	compressed := test(t, nil, nil)
	if len(compressed) != 0 {
		t.Fatalf("empty input compressed to % x", compressed)
	}
}

func TestRunScenario(t *testing.T) {
	opts := DefaultOptions()
	opts.MinMatchLength = 4
	compressed := test(t, []byte("aaaaaaaaaa"), opts)

	// One literal, then a match reaching back one byte for the other nine.
	want, err := huffman.Encode([]byte{1, 'a', 0xff, 0, 1, 0, 9})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(compressed, want) {
		t.Fatalf("got % x, want % x", compressed, want)
	}
}

func TestDigest(t *testing.T) {
	data := textCorpus(50000, 4)
	compressed := test(t, data, smallOptions())

	var out bytes.Buffer
	if err := Decompress(&out, bytes.NewReader(compressed), smallOptions()); err != nil {
		t.Fatal(err)
	}
	if got, want := xxHash32.Checksum(out.Bytes(), 0), xxHash32.Checksum(data, 0); got != want {
		t.Fatalf("digest %08x, want %08x", got, want)
	}
}

func TestLogger(t *testing.T) {
	opts := smallOptions()
	opts.Logger = zaptest.NewLogger(t).Sugar()
	test(t, textCorpus(1000, 5), opts)
}

func TestTruncated(t *testing.T) {
	data := textCorpus(20000, 6)
	compressed := test(t, data, nil)
	err := Decompress(io.Discard, bytes.NewReader(compressed[:len(compressed)/2]), nil)
	if !errors.Is(err, xcompress.ErrTruncatedInput) {
		t.Fatalf("got %v, want ErrTruncatedInput", err)
	}
}

func TestInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.WindowSize = 1000
	if err := Compress(io.Discard, bytes.NewReader([]byte("x")), opts); err == nil {
		t.Error("window size 1000 accepted")
	}
	opts = DefaultOptions()
	opts.BlockSize = 0
	if err := Decompress(io.Discard, bytes.NewReader(nil), opts); err == nil {
		t.Error("block size 0 accepted")
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	opts, err := LoadOptions(write("small.yml", "windowSize: 4096\nminMatchLength: 8\nblockSize: 65536\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultOptions()
	want.WindowSize = 4096
	want.MinMatchLength = 8
	want.BlockSize = 65536
	if *opts != *want {
		t.Fatalf("got %+v, want %+v", *opts, *want)
	}

	opts, err = LoadOptions(write("empty.yml", ""))
	if err != nil {
		t.Fatal(err)
	}
	if *opts != *DefaultOptions() {
		t.Fatalf("empty file gave %+v", *opts)
	}

	if _, err := LoadOptions(write("unknown.yml", "windowsize: 4096\n")); err == nil {
		t.Error("unknown field accepted")
	}
	if _, err := LoadOptions(write("invalid.yml", "lookaheadSize: 2\n")); err == nil {
		t.Error("lookahead shorter than the minimum match accepted")
	}
	if _, err := LoadOptions(filepath.Join(dir, "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}

func benchmark(b *testing.B, opts *Options) {
	b.StopTimer()
	b.ReportAllocs()
	data := textCorpus(1<<20, 7)
	b.SetBytes(int64(len(data)))
	buf := new(bytes.Buffer)
	if err := Compress(buf, bytes.NewReader(data), opts); err != nil {
		b.Fatal(err)
	}
	b.ReportMetric(float64(len(data))/float64(buf.Len()), "ratio")
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		Compress(io.Discard, bytes.NewReader(data), opts)
	}
}

func BenchmarkEncode(b *testing.B) {
	benchmark(b, nil)
}

func BenchmarkEncodeLimitedCandidates(b *testing.B) {
	opts := DefaultOptions()
	opts.MaxCandidates = 16
	benchmark(b, opts)
}

func BenchmarkDecode(b *testing.B) {
	b.StopTimer()
	b.ReportAllocs()
	data := textCorpus(1<<20, 7)
	b.SetBytes(int64(len(data)))
	buf := new(bytes.Buffer)
	if err := Compress(buf, bytes.NewReader(data), nil); err != nil {
		b.Fatal(err)
	}
	compressed := buf.Bytes()
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		if err := Decompress(io.Discard, bytes.NewReader(compressed), nil); err != nil {
			b.Fatal(err)
		}
	}
}

// The benchmarks below measure other formats on the same corpus, so that
// their ratios can be compared with BenchmarkEncode.

func benchmarkWriter(b *testing.B, newWriter func(io.Writer) io.WriteCloser) {
	b.StopTimer()
	b.ReportAllocs()
	data := textCorpus(1<<20, 7)
	b.SetBytes(int64(len(data)))
	buf := new(bytes.Buffer)
	w := newWriter(buf)
	w.Write(data)
	w.Close()
	b.ReportMetric(float64(len(data))/float64(buf.Len()), "ratio")
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		w := newWriter(io.Discard)
		w.Write(data)
		w.Close()
	}
}

func BenchmarkEncodeGolangSnappy(b *testing.B) {
	benchmarkWriter(b, func(w io.Writer) io.WriteCloser {
		return snappy.NewBufferedWriter(w)
	})
}

func BenchmarkEncodeZstd(b *testing.B) {
	benchmarkWriter(b, func(w io.Writer) io.WriteCloser {
		zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
		if err != nil {
			b.Fatal(err)
		}
		return zw
	})
}

func BenchmarkEncodeBrotli(b *testing.B) {
	benchmarkWriter(b, func(w io.Writer) io.WriteCloser {
		return brotli.NewWriterLevel(w, 5)
	})
}

func BenchmarkEncodeLZ4(b *testing.B) {
	benchmarkWriter(b, func(w io.Writer) io.WriteCloser {
		return lz4.NewWriter(w)
	})
}
