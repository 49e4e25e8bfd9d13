package bed

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// input is a line reader over a possibly compressed file or stream.
type input struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	zstdReader *zstd.Decoder
	lineNumber int
}

// openInput opens path, or stdin when path is "-".
func openInput(path string) (*input, error) {
	if path == "-" {
		return newInput(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	in, err := newInput(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	in.file = file
	return in, nil
}

// newInput detects gzip and zstd input from the leading magic bytes.
func newInput(r io.Reader) (*input, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}

	in := &input{}
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		in.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		in.reader = bufio.NewReader(in.gzipReader)
	case bytes.HasPrefix(magic, zstdMagic):
		in.zstdReader, err = zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		in.reader = bufio.NewReader(in.zstdReader)
	default:
		in.reader = br
	}
	return in, nil
}

// nextLine returns the next line without its terminator, or ok=false at EOF.
// A final line without a newline is still returned.
func (in *input) nextLine() (line string, ok bool, err error) {
	line, err = in.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, fmt.Errorf("read line: %w", err)
	}
	if line == "" && err != nil {
		return "", false, nil
	}
	in.lineNumber++
	return strings.TrimRight(line, "\r\n"), true, nil
}

// LineNumber returns the current line number being processed.
func (in *input) LineNumber() int {
	return in.lineNumber
}

// Close closes the decompressor and underlying file.
func (in *input) Close() error {
	if in.gzipReader != nil {
		in.gzipReader.Close()
	}
	if in.zstdReader != nil {
		in.zstdReader.Close()
	}
	if in.file != nil {
		return in.file.Close()
	}
	return nil
}
