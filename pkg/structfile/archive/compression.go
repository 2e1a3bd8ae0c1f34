package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the filter applied to the tar stream of a struct file.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
)

// Data type strings recorded on struct file data objects.
const (
	DataTypeTar     = "tar file"
	DataTypeGzipTar = "gzipTar"
	DataTypeZstdTar = "zstdTar"
	DataTypeLZ4Tar  = "lz4Tar"
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// DataType is the catalog data type string for a compression.
func (c Compression) DataType() string {
	switch c {
	case Gzip:
		return DataTypeGzipTar
	case Zstd:
		return DataTypeZstdTar
	case LZ4:
		return DataTypeLZ4Tar
	default:
		return DataTypeTar
	}
}

// ParseDataType maps a data type string to its compression. Unknown strings
// are plain tar.
func ParseDataType(dataType string) Compression {
	switch dataType {
	case DataTypeGzipTar, "gzip":
		return Gzip
	case DataTypeZstdTar, "zstd":
		return Zstd
	case DataTypeLZ4Tar, "lz4":
		return LZ4
	default:
		return None
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Detect sniffs the compression of a stream without consuming it.
func Detect(br *bufio.Reader) Compression {
	head, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, lz4Magic):
		return LZ4
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	default:
		return None
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w)
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// newDecompressor returns a reader over the decompressed stream and a func that
// releases the decoder.
func newDecompressor(br *bufio.Reader) (io.Reader, func(), error) {
	switch Detect(br) {
	case Gzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return gzr, func() { _ = gzr.Close() }, nil
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case LZ4:
		return lz4.NewReader(br), func() {}, nil
	default:
		return br, func() {}, nil
	}
}
