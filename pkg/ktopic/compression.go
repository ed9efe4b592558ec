package ktopic

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/pierrec/lz4/v4"
)

// CompressionCodec names the per-topic compression a producer should use,
// with Inherit deferring to the client's default. This core only resolves
// and validates the codec as part of topic configuration; encoding and
// decoding record batches is the produce/fetch pipeline's job.
type CompressionCodec int8

const (
	CompressionInherit CompressionCodec = iota
	CompressionNone
	CompressionGzip
	CompressionSnappy
	CompressionLz4
)

func (c CompressionCodec) String() string {
	switch c {
	case CompressionInherit:
		return "inherit"
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionSnappy:
		return "snappy"
	case CompressionLz4:
		return "lz4"
	default:
		return fmt.Sprintf("CompressionCodec(%d)", c)
	}
}

// ResolveCompression resolves a topic's codec against the client default,
// falling further back to CompressionNone if the default is itself
// Inherit (or unset).
func ResolveCompression(topicCodec, clientDefault CompressionCodec) CompressionCodec {
	if topicCodec != CompressionInherit {
		return topicCodec
	}
	if clientDefault != CompressionInherit {
		return clientDefault
	}
	return CompressionNone
}

// NewCompressionWriter wraps w with the codec's compressor. Callers must
// Close the returned writer to flush trailing data.
func NewCompressionWriter(w io.Writer, codec CompressionCodec) (io.WriteCloser, error) {
	switch codec {
	case CompressionNone, CompressionInherit:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionSnappy:
		return s2.NewWriter(w, s2.WriterSnappyCompat()), nil
	case CompressionLz4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("ktopic: unknown compression codec %v", codec)
	}
}

// NewCompressionReader wraps r with the codec's decompressor.
func NewCompressionReader(r io.Reader, codec CompressionCodec) (io.ReadCloser, error) {
	switch codec {
	case CompressionNone, CompressionInherit:
		return io.NopCloser(r), nil
	case CompressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return gr, nil
	case CompressionSnappy:
		return io.NopCloser(s2.NewReader(r)), nil
	case CompressionLz4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("ktopic: unknown compression codec %v", codec)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
