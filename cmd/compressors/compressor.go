// Package compressors provides streaming compression for result files and
// decompression for compressed snapshot inputs (zstd, lz4, gzip).
package compressors

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnsupportedCompression is returned when an unsupported compression type is requested
var ErrUnsupportedCompression = errors.New("unsupported compression type")

// Compressor defines the interface for compression handlers. Writers and
// readers stream, so result files never need a second in-memory copy.
type Compressor interface {
	// NewWriter wraps w in a compressing writer at the given level.
	// Closing the returned writer flushes the codec but not w.
	NewWriter(w io.Writer, level int) (io.WriteCloser, error)

	// NewReader wraps r in a decompressing reader.
	NewReader(r io.Reader) (io.ReadCloser, error)

	// Extension returns the file extension for this compression (e.g. ".zst")
	Extension() string

	// DefaultLevel returns the default compression level
	DefaultLevel() int
}

// GetCompressor returns the appropriate compressor based on the compression string
func GetCompressor(compression string) (Compressor, error) {
	switch compression {
	case "zstd":
		return NewZstdCompressor(), nil
	case "lz4":
		return NewLZ4Compressor(), nil
	case "gzip":
		return NewGzipCompressor(), nil
	case "none":
		return NewNoneCompressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, compression)
	}
}

// ByExtension maps a file extension to its compressor, for sniffing
// compressed snapshot inputs.
func ByExtension(ext string) (Compressor, bool) {
	switch ext {
	case ".zst":
		return NewZstdCompressor(), true
	case ".lz4":
		return NewLZ4Compressor(), true
	case ".gz":
		return NewGzipCompressor(), true
	default:
		return nil, false
	}
}
