package compressors

import "io"

// NoneCompressor passes data through unchanged.
type NoneCompressor struct{}

// NewNoneCompressor creates a new pass-through compressor
func NewNoneCompressor() *NoneCompressor {
	return &NoneCompressor{}
}

// NewWriter returns a writer that passes data through. Closing it does not
// close the underlying writer.
func (c *NoneCompressor) NewWriter(w io.Writer, _ int) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

// NewReader returns a reader that passes data through.
func (c *NoneCompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

// Extension returns an empty extension: uncompressed files keep their name.
func (c *NoneCompressor) Extension() string {
	return ""
}

// DefaultLevel returns 0: there is no level to pick.
func (c *NoneCompressor) DefaultLevel() int {
	return 0
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
