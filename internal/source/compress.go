package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/mcncl/jsonsieve/internal/errors"
)

// Compression names a stream encoding.
type Compression string

const (
	CompressionAuto Compression = "auto"
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// ParseCompression accepts the names used in config files and flags. An
// empty name means auto.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(name))); c {
	case "":
		return CompressionAuto, nil
	case CompressionAuto, CompressionNone, CompressionGzip, CompressionZstd, CompressionLZ4:
		return c, nil
	default:
		return "", errors.NewConfigError(fmt.Sprintf("compression %q", name), errors.ErrUnsupportedCompression)
	}
}

// fromContentEncoding maps an HTTP Content-Encoding onto a Compression.
// Unknown or identity encodings fall back to sniffing.
func fromContentEncoding(header string) Compression {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case "gzip", "x-gzip":
		return CompressionGzip
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	default:
		return CompressionAuto
	}
}

// sniff looks at the first bytes without consuming them.
func sniff(br *bufio.Reader) Compression {
	head, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(head, lz4Magic):
		return CompressionLZ4
	case bytes.HasPrefix(head, gzipMagic):
		return CompressionGzip
	default:
		return CompressionNone
	}
}

// decompress wraps rc so reads yield decoded bytes. Closing the result closes rc.
func decompress(rc io.ReadCloser, c Compression) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(rc)
	if c == CompressionAuto {
		c = sniff(br)
	}

	switch c {
	case CompressionNone:
		return readCloser{Reader: br, close: rc.Close}, c, nil

	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, errors.NewIOError("opening gzip stream", err)
		}
		return readCloser{Reader: zr, close: closeBoth(zr, rc)}, c, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, c, errors.NewIOError("opening zstd stream", err)
		}
		return readCloser{Reader: dec, close: func() error {
			dec.Close()
			return rc.Close()
		}}, c, nil

	case CompressionLZ4:
		return readCloser{Reader: lz4.NewReader(br), close: rc.Close}, c, nil

	default:
		return nil, c, errors.NewConfigError(fmt.Sprintf("compression %q", c), errors.ErrUnsupportedCompression)
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

func closeBoth(inner io.Closer, outer io.Closer) func() error {
	return func() error {
		err := inner.Close()
		if cerr := outer.Close(); err == nil {
			err = cerr
		}
		return err
	}
}
