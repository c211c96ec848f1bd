// Package compression optionally compresses entry plaintext before it
// reaches the AEAD envelope, trading a little CPU for meaningfully
// smaller fragments and carriers — fragment and carrier size are tightly
// bounded elsewhere in this module, which makes compression a natural fit
// upstream of both.
//
// Modeled on Compressor.go: a switch-by-algorithm CompressData/
// DecompressData pair built on github.com/klauspost/compress/zstd and
// github.com/pierrec/lz4/v4, with a decompression-bomb size guard on the
// way back out.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm selects a compression codec.
type Algorithm string

const (
	None Algorithm = "none"
	Gzip Algorithm = "gzip"
	Zstd Algorithm = "zstd"
	LZ4 Algorithm = "lz4"
)

// MaxDecompressionSize bounds DecompressData's output to guard against a
// decompression-bomb carrier claiming an implausible plaintext size.
const MaxDecompressionSize = 256 * 1024 * 1024 // 256 MiB

// CompressData compresses data with the given algorithm. None returns
// data unchanged.
func CompressData(data []byte, algo Algorithm) ([]byte, error) {
	switch algo {
	case "", None:
		return data, nil
	case Gzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("compression: gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("compression: gzip close: %w", err)
		}
		return buf.Bytes(), nil
	case Zstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("compression: new zstd writer: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("compression: lz4 write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("compression: lz4 close: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("compression: unknown algorithm %q", algo)
	}
}

// DecompressData reverses CompressData, refusing to emit more than
// MaxDecompressionSize bytes.
func DecompressData(data []byte, algo Algorithm) ([]byte, error) {
	switch algo {
	case "", None:
		return data, nil
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compression: gzip reader: %w", err)
		}
		defer r.Close()
		return readBounded(r)
	case Zstd:
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compression: new zstd reader: %w", err)
		}
		defer dec.Close()
		return readBounded(dec)
	case LZ4:
		r := lz4.NewReader(bytes.NewReader(data))
		return readBounded(r)
	default:
		return nil, fmt.Errorf("compression: unknown algorithm %q", algo)
	}
}

func readBounded(r io.Reader) ([]byte, error) {
	limited := io.LimitReader(r, MaxDecompressionSize+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("compression: decompress: %w", err)
	}
	if len(out) > MaxDecompressionSize {
		return nil, fmt.Errorf("compression: decompressed payload exceeds %d bytes", MaxDecompressionSize)
	}
	return out, nil
}
