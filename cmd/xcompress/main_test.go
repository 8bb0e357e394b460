package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xcompress/xcompress/huffman"
)

func runArgs(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestCompressDecompress(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.txt")
	compressed := filepath.Join(dir, "input.xc")
	output := filepath.Join(dir, "output.txt")
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 500))
	if err := os.WriteFile(input, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if code, _, stderr := runArgs(t, "-c", "-verify", input, compressed); code != 0 {
		t.Fatalf("compress exited with %d: %s", code, stderr)
	}
	if code, _, stderr := runArgs(t, "-d", compressed, output); code != 0 {
		t.Fatalf("decompress exited with %d: %s", code, stderr)
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("decompressed output doesn't match")
	}
	c, err := os.ReadFile(compressed)
	if err != nil {
		t.Fatal(err)
	}
	if len(c) >= len(data)/4 {
		t.Fatalf("compressed %d bytes to %d", len(data), len(c))
	}
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input")
	config := filepath.Join(dir, "xcompress.yml")
	if err := os.WriteFile(input, []byte("aaaaaaaaaa"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config, []byte("windowSize: 1024\nminMatchLength: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := runArgs(t, "-tokens", "-config", config, input)
	if code != 0 {
		t.Fatalf("exited with %d: %s", code, stderr)
	}
	// The run of nine is not longer than the minimum, so it stays literal.
	if stdout != "aaaaaaaaaa" {
		t.Fatalf("got %q", stdout)
	}

	if err := os.WriteFile(config, []byte("windowSize: 1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := runArgs(t, "-tokens", "-config", config, input); code != 1 {
		t.Fatalf("invalid config: exited with %d", code)
	}
}

func TestTokens(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input")
	if err := os.WriteFile(input, []byte("aaaaaaaaaab"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, stdout, stderr := runArgs(t, "-tokens", input)
	if code != 0 {
		t.Fatalf("exited with %d: %s", code, stderr)
	}
	if want := "a<9,1>b"; stdout != want {
		t.Fatalf("got %q, want %q", stdout, want)
	}

	output := filepath.Join(dir, "tokens.txt")
	if code, _, stderr := runArgs(t, "-tokens", input, output); code != 0 {
		t.Fatalf("exited with %d: %s", code, stderr)
	}
	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "a<9,1>b" {
		t.Fatalf("got %q", got)
	}
}

func TestStages(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input")
	data := []byte("aaaaaaaaaab")
	if err := os.WriteFile(input, data, 0o644); err != nil {
		t.Fatal(err)
	}
	huffmanBlock, err := huffman.Encode(data)
	if err != nil {
		t.Fatal(err)
	}

	for _, c := range []struct {
		stage string
		want  []byte
	}{
		// A literal block, a match block and another literal block.
		{"lz", []byte{1, 'a', 0xff, 0, 1, 0, 9, 1, 'b'}},
		{"huffman", huffmanBlock},
	} {
		compressed := filepath.Join(dir, c.stage+".out")
		output := filepath.Join(dir, c.stage+".txt")
		if code, _, stderr := runArgs(t, "-c", "-verify", "-stage", c.stage, input, compressed); code != 0 {
			t.Fatalf("%s: compress exited with %d: %s", c.stage, code, stderr)
		}
		got, err := os.ReadFile(compressed)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, c.want) {
			t.Errorf("%s: got % x, want % x", c.stage, got, c.want)
		}

		if code, _, stderr := runArgs(t, "-d", "-stage", c.stage, compressed, output); code != 0 {
			t.Fatalf("%s: decompress exited with %d: %s", c.stage, code, stderr)
		}
		got, err = os.ReadFile(output)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("%s: decompressed to %q", c.stage, got)
		}
	}
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"-c"},
		{"-c", "in"},
		{"-d", "in", "out", "extra"},
		{"-c", "-d", "in", "out"},
		{"-tokens"},
		{"-bogus"},
		{"-c", "-stage", "deflate", "in", "out"},
	} {
		code, _, stderr := runArgs(t, args...)
		if code != 2 {
			t.Errorf("%q: exited with %d, want 2", args, code)
		}
		if !strings.Contains(stderr, "usage:") {
			t.Errorf("%q: no usage message in %q", args, stderr)
		}
	}

	code, _, stderr := runArgs(t, "-h")
	if code != 0 || !strings.Contains(stderr, "usage:") {
		t.Errorf("-h: exited with %d, printed %q", code, stderr)
	}
}

func TestFailures(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out")

	if code, _, _ := runArgs(t, "-c", filepath.Join(dir, "missing"), output); code != 1 {
		t.Errorf("missing input: exited with %d", code)
	}

	corrupt := filepath.Join(dir, "corrupt.xc")
	if err := os.WriteFile(corrupt, []byte{3, 'a', 1, 'b', 1}, 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runArgs(t, "-d", corrupt, output)
	if code != 1 {
		t.Errorf("corrupt input: exited with %d", code)
	}
	if !strings.Contains(stderr, "truncated") {
		t.Errorf("error not logged: %q", stderr)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("output left behind after failure: %v", err)
	}
}
